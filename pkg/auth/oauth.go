package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raywall/fast-dispatch-toolkit/pkg/config"
	"github.com/rs/zerolog"
)

// Doer executa a requisição ao provedor de token.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// tokenResponse segue a resposta da RFC 6749.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// NewClientCredentials cria um Manager para o fluxo Client Credentials.
func NewClientCredentials(cfg config.AuthConf, logger zerolog.Logger) *Manager {
	return NewManager(NewClientCredentialsFetcher(cfg, nil), logger)
}

// NewClientCredentialsFetcher cria o Fetcher do fluxo Client Credentials.
// doer nil usa um http.Client com timeout de 10s.
func NewClientCredentialsFetcher(cfg config.AuthConf, doer Doer) Fetcher {
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}

	return func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")
		form.Set("client_id", cfg.ClientID)
		form.Set("client_secret", cfg.ClientSecret)
		if cfg.Scope != "" {
			form.Set("scope", cfg.Scope)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", 0, fmt.Errorf("erro ao criar request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := doer.Do(req)
		if err != nil {
			return "", 0, fmt.Errorf("erro de conexão oauth: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return "", 0, fmt.Errorf("oauth provider retornou erro: %d", resp.StatusCode)
		}

		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return "", 0, fmt.Errorf("erro decode json token: %w", err)
		}
		if tr.AccessToken == "" {
			return "", 0, fmt.Errorf("access_token veio vazio")
		}

		return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
	}
}
