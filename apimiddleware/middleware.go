package apimiddleware

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/fast-dispatch-toolkit/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Nomes das métricas emitidas para cada RequestAction interceptada.
const (
	MetricRequestStart    = "apimiddleware.request.start"
	MetricRequestSuccess  = "apimiddleware.request.success"
	MetricRequestFailure  = "apimiddleware.request.failure"
	MetricRequestDuration = "apimiddleware.request.duration_ms"
)

// RequestFunc executa a requisição de fato. Recebe a URL e as opções já
// combinadas com RequestDefaults.
type RequestFunc func(ctx context.Context, url string, opts Options) (Response, error)

// DispatchFunc é um elo da cadeia de dispatch.
type DispatchFunc func(ctx context.Context, action Action) any

// StoreAPI é o contrato mínimo do store exposto aos middlewares.
type StoreAPI interface {
	Dispatch(ctx context.Context, action Action) any
}

// Middleware segue o protocolo de três níveis do store:
// (StoreAPI) -> (next) -> (action) -> resultado.
type Middleware func(api StoreAPI) func(next DispatchFunc) DispatchFunc

// Option customiza a fábrica do middleware.
type Option func(*factory)

// WithLogger define o logger usado pelo middleware.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithMetrics define o provider que recebe as métricas de requisição.
func WithMetrics(provider metrics.Provider) Option {
	return func(f *factory) {
		if provider != nil {
			f.metrics = provider
		}
	}
}

type factory struct {
	request RequestFunc
	cfg     Config
	logger  zerolog.Logger
	metrics metrics.Provider
}

// New cria o middleware a partir da RequestFunc e da configuração.
//
// A validação acontece aqui, antes de qualquer ligação com o store.
//
// Parâmetros:
//   fn: Função de requisição (obrigatória).
//   cfg: Configuração opcional; nil usa DefaultConfig.
//   opts: Logger e provider de métricas.
//
// Erros:
//   - ErrMissingRequestFunc: fn é nil.
func New(fn RequestFunc, cfg *Config, opts ...Option) (Middleware, error) {
	if fn == nil {
		return nil, ErrMissingRequestFunc
	}

	f := &factory{
		request: fn,
		cfg:     cfg.WithDefaults(),
		logger:  log.With().Str("component", "apimiddleware").Logger(),
		metrics: metrics.NoopProvider{},
	}
	for _, opt := range opts {
		opt(f)
	}

	return f.middleware, nil
}

// MustNew é similar ao New, mas panic em caso de erro
func MustNew(fn RequestFunc, cfg *Config, opts ...Option) Middleware {
	mw, err := New(fn, cfg, opts...)
	if err != nil {
		panic(err)
	}
	return mw
}

func (f *factory) middleware(api StoreAPI) func(next DispatchFunc) DispatchFunc {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, action Action) any {
			switch a := action.(type) {
			case *RequestAction:
				if a == nil {
					return next(ctx, action)
				}
				return f.intercept(ctx, api, *a)
			case RequestAction:
				return f.intercept(ctx, api, a)
			default:
				return next(ctx, action)
			}
		}
	}
}

// intercept despacha o START de forma síncrona e executa o restante do ciclo
// em uma goroutine própria.
func (f *factory) intercept(ctx context.Context, api StoreAPI, action RequestAction) *Pending {
	logger := f.logger.With().
		Str("request_id", uuid.NewString()).
		Str("url", action.URL).
		Str("type", action.Type).
		Logger()
	tags := requestTags(action.Type)

	if action.Type != "" {
		api.Dispatch(ctx, StandardAction{Type: f.cfg.ActionTypes.Start, Payload: action.Type})
	}
	f.observe(logger, MetricRequestStart, f.metrics.Count(MetricRequestStart, 1, tags))
	logger.Debug().Msg("request started")

	opts := f.cfg.RequestDefaults.Merge(action.Options)

	// a requisição não é cancelada junto com o contexto do dispatch
	reqCtx := logger.WithContext(context.WithoutCancel(ctx))

	pending := newPending()
	go f.run(reqCtx, api, action, opts, pending, logger, tags)

	return pending
}

func (f *factory) run(ctx context.Context, api StoreAPI, action RequestAction, opts Options, pending *Pending, logger zerolog.Logger, tags []string) {
	start := time.Now()

	var (
		value any
		err   error
	)
	defer func() {
		if action.Type != "" {
			endErr := protect("end dispatch", func() {
				api.Dispatch(ctx, StandardAction{Type: f.cfg.ActionTypes.End, Payload: action.Type})
			})
			if err == nil {
				err = endErr
			}
		}

		duration := time.Since(start)
		f.observe(logger, MetricRequestDuration, f.metrics.Histogram(MetricRequestDuration, float64(duration.Milliseconds()), tags))

		if err != nil {
			logger.Error().Err(err).Msg("request lifecycle aborted")
			value = nil
		} else {
			logger.Debug().Int64("duration_ms", duration.Milliseconds()).Msg("request finished")
		}
		pending.complete(value, err)
	}()

	payload, reqErr := f.execute(ctx, api, action, opts)
	if reqErr == nil {
		f.observe(logger, MetricRequestSuccess, f.metrics.Count(MetricRequestSuccess, 1, tags))
		value = payload
		return
	}

	f.observe(logger, MetricRequestFailure, f.metrics.Count(MetricRequestFailure, 1, tags))
	logger.Warn().Err(reqErr).Msg("request failed")
	err = f.fail(ctx, api, action, reqErr)
}

// execute chama a RequestFunc, normaliza a resposta e executa OnSuccess.
// Qualquer erro retornado segue para o ramo de falha.
func (f *factory) execute(ctx context.Context, api StoreAPI, action RequestAction, opts Options) (payload any, err error) {
	// actions montadas sem BuildRequestAction também precisam de URL
	if action.URL == "" {
		return nil, ErrInvalidURL
	}

	var resp Response
	if perr := protect("request", func() {
		resp, err = f.request(ctx, action.URL, opts)
	}); perr != nil {
		return nil, perr
	}
	if err != nil {
		return nil, err
	}

	payload, err = Resolve(ctx, resp)
	if err != nil {
		return nil, err
	}

	if action.OnSuccess != nil {
		if err := protect("onSuccess", func() {
			f.dispatchResult(ctx, api, action.OnSuccess(payload))
		}); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

// fail executa o ramo de falha: FAILURE (se houver tag) e OnFailure (se
// houver), nessa ordem.
func (f *factory) fail(ctx context.Context, api StoreAPI, action RequestAction, cause error) error {
	if action.Type != "" {
		if err := protect("failure dispatch", func() {
			api.Dispatch(ctx, StandardAction{Type: f.cfg.ActionTypes.Failure, Payload: cause, Error: true})
		}); err != nil {
			return err
		}
	}

	if action.OnFailure != nil {
		return protect("onFailure", func() {
			f.dispatchResult(ctx, api, action.OnFailure(cause))
		})
	}

	return nil
}

func (f *factory) dispatchResult(ctx context.Context, api StoreAPI, action Action) {
	if action == nil {
		zerolog.Ctx(ctx).Debug().Msg("continuation returned nil action, skipping dispatch")
		return
	}
	api.Dispatch(ctx, action)
}

// observe registra em debug a falha ao emitir uma métrica.
func (f *factory) observe(logger zerolog.Logger, metric string, err error) {
	if err != nil {
		logger.Debug().Err(err).Str("metric", metric).Msg("metric emission failed")
	}
}

// protect executa fn convertendo um pânico em *ContinuationError.
func protect(stage string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ContinuationError{Stage: stage, Value: r}
		}
	}()
	fn()
	return nil
}

func requestTags(correlation string) []string {
	if correlation == "" {
		return nil
	}
	return []string{fmt.Sprintf("type:%s", correlation)}
}
