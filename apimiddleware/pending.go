package apimiddleware

import "context"

// Pending é o futuro retornado pelo dispatch de uma RequestAction.
//
// Ele é concluído depois que todas as actions de ciclo de vida da
// requisição foram despachadas.
type Pending struct {
	done  chan struct{}
	value any
	err   error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved cria um Pending já concluído com o valor informado.
func Resolved(v any) *Pending {
	p := newPending()
	p.complete(v, nil)
	return p
}

func (p *Pending) complete(v any, err error) {
	p.value = v
	p.err = err
	close(p.done)
}

// Done retorna um canal fechado quando a requisição termina.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait aguarda o término da requisição.
//
// Retorna o payload normalizado em caso de sucesso e (nil, nil) em uma falha
// tratada. Um erro só é retornado quando OnFailure entra em pânico
// (*ContinuationError) ou quando ctx termina antes da requisição; neste
// último caso a requisição continua em andamento.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
