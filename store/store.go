// Package store implementa um store mínimo baseado em reducer, usado como
// hospedeiro da cadeia de middlewares (apimiddleware.Middleware).
//
// O store serializa a redução das actions com um mutex, portanto Dispatch
// pode ser chamado concorrentemente (como faz o apimiddleware a partir das
// goroutines de requisição).
package store

import (
	"context"
	"sync"

	"github.com/raywall/fast-dispatch-toolkit/apimiddleware"
)

// Reducer calcula o próximo estado a partir do estado atual e da action.
type Reducer[S any] func(state S, action apimiddleware.Action) S

// Listener é notificado após cada action reduzida.
type Listener[S any] func(state S, action apimiddleware.Action)

type subscription[S any] struct {
	id int
	fn Listener[S]
}

// Store guarda o estado e expõe Dispatch através da cadeia de middlewares.
type Store[S any] struct {
	mu        sync.RWMutex
	state     S
	reducer   Reducer[S]
	listeners []subscription[S]
	nextID    int

	dispatch apimiddleware.DispatchFunc
}

// New cria o store e aplica os middlewares. O primeiro middleware da lista
// é o mais externo: recebe a action antes dos demais.
func New[S any](reducer Reducer[S], initial S, middlewares ...apimiddleware.Middleware) *Store[S] {
	s := &Store[S]{
		state:   initial,
		reducer: reducer,
	}

	// Dispatch durante a construção da cadeia não é permitido.
	s.dispatch = func(context.Context, apimiddleware.Action) any {
		panic("store: dispatching while constructing middleware is not allowed")
	}

	api := storeAPI[S]{store: s}
	chain := make([]func(apimiddleware.DispatchFunc) apimiddleware.DispatchFunc, 0, len(middlewares))
	for _, mw := range middlewares {
		if mw == nil {
			continue
		}
		chain = append(chain, mw(api))
	}

	var next apimiddleware.DispatchFunc = s.reduce
	for i := len(chain) - 1; i >= 0; i-- {
		next = chain[i](next)
	}
	s.dispatch = next

	return s
}

// Dispatch envia a action pela cadeia de middlewares e retorna o resultado
// do primeiro elo. Sem middlewares, retorna a própria action.
func (s *Store[S]) Dispatch(ctx context.Context, action apimiddleware.Action) any {
	return s.dispatch(ctx, action)
}

// State retorna o estado atual.
func (s *Store[S]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registra um listener e retorna a função que o remove.
//
// Os listeners são chamados na ordem de registro, fora do lock, com o estado
// produzido pela própria action. Com Dispatch concorrente, as notificações
// de actions diferentes podem chegar fora da ordem de redução.
func (s *Store[S]) Subscribe(l Listener[S]) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription[S]{id: id, fn: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			// cópia nova: reduce pode estar iterando a fatia anterior
			kept := make([]subscription[S], 0, len(s.listeners))
			for _, sub := range s.listeners {
				if sub.id != id {
					kept = append(kept, sub)
				}
			}
			s.listeners = kept
		})
	}
}

// reduce é o último elo da cadeia.
func (s *Store[S]) reduce(_ context.Context, action apimiddleware.Action) any {
	s.mu.Lock()
	s.state = s.reducer(s.state, action)
	state := s.state
	listeners := s.listeners
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(state, action)
	}
	return action
}

// storeAPI é a visão do store entregue aos middlewares. Dispatch passa pela
// cadeia completa.
type storeAPI[S any] struct {
	store *Store[S]
}

func (a storeAPI[S]) Dispatch(ctx context.Context, action apimiddleware.Action) any {
	return a.store.dispatch(ctx, action)
}
