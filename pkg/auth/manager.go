// Package auth mantém tokens de acesso renovados em background para o
// cliente HTTP do toolkit.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotStarted é retornado por Token antes de Start ter obtido o primeiro token.
var ErrNotStarted = errors.New("auth: manager não inicializado")

const (
	defaultTTL    = 5 * time.Minute
	retryInterval = 10 * time.Second
)

// Fetcher busca um novo token e o seu tempo de vida.
type Fetcher func(ctx context.Context) (token string, ttl time.Duration, err error)

// Manager guarda o token atual e o renova antes de expirar.
type Manager struct {
	fetcher Fetcher
	logger  zerolog.Logger

	mu    sync.RWMutex
	token string
	ready bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager cria um Manager para fetcher. Nada é buscado até Start.
func NewManager(fetcher Fetcher, logger zerolog.Logger) *Manager {
	return &Manager{
		fetcher: fetcher,
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

// Start busca o primeiro token de forma síncrona e inicia a renovação.
// A renovação termina com Stop ou com o cancelamento de ctx.
func (m *Manager) Start(ctx context.Context) error {
	token, ttl, err := m.fetcher(ctx)
	if err != nil {
		return fmt.Errorf("falha inicial ao obter token: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.ready = true
	m.mu.Unlock()

	go m.refreshLoop(ctx, ttl)
	return nil
}

// Token retorna o token atual.
func (m *Manager) Token(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return "", ErrNotStarted
	}
	return m.token, nil
}

// Stop encerra a renovação. Pode ser chamado mais de uma vez.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) refreshLoop(ctx context.Context, ttl time.Duration) {
	timer := time.NewTimer(renewAfter(ttl))
	defer timer.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			token, next, err := m.fetcher(ctx)
			if err != nil {
				m.logger.Warn().Err(err).Dur("retry_in", retryInterval).Msg("token refresh failed")
				timer.Reset(retryInterval)
				continue
			}

			m.mu.Lock()
			m.token = token
			m.mu.Unlock()

			m.logger.Debug().Dur("ttl", next).Msg("token refreshed")
			timer.Reset(renewAfter(next))
		}
	}
}

// renewAfter agenda a renovação para 80% do tempo de vida.
func renewAfter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultTTL
	}
	return ttl * 4 / 5
}
