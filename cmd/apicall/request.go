package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/raywall/fast-dispatch-toolkit/apimiddleware"
	"github.com/raywall/fast-dispatch-toolkit/pkg/auth"
	"github.com/raywall/fast-dispatch-toolkit/pkg/config"
	"github.com/raywall/fast-dispatch-toolkit/pkg/fetch"
	"github.com/raywall/fast-dispatch-toolkit/pkg/logger"
	"github.com/raywall/fast-dispatch-toolkit/pkg/observability"
	"github.com/raywall/fast-dispatch-toolkit/store"
	"github.com/spf13/cobra"
)

const (
	successActionType = "APICALL_SUCCEEDED"
	failureActionType = "APICALL_FAILED"
)

type requestOptions struct {
	correlation string
	method      string
	body        string
	headers     []string
}

// report é o que o comando imprime ao final da requisição.
type report struct {
	Result  any                            `json:"result"`
	Actions []apimiddleware.StandardAction `json:"actions"`
}

func newRequestCommand() *cobra.Command {
	var opts requestOptions

	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Dispatch a single request action and print the lifecycle",
		Long: `Despacha uma RequestAction para a URL informada e imprime, em JSON, o
resultado e todas as actions que chegaram ao reducer.

URLs relativas são resolvidas contra fetch.base_url da configuração.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.correlation, "type", "t", "", "Tag de correlação das actions de ciclo de vida")
	cmd.Flags().StringVarP(&opts.method, "method", "X", "", "Método HTTP (default da configuração ou GET)")
	cmd.Flags().StringVarP(&opts.body, "body", "d", "", "Corpo da requisição")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Header no formato chave=valor (repetível)")

	return cmd
}

func runRequest(ctx context.Context, out, errOut io.Writer, url string, opts requestOptions) error {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return err
	}

	log := logger.ConfigureTo(errOut, cfg.Logging, cfg.Service.Name)

	provider, err := observability.SetupMetrics(cfg.Metrics)
	if err != nil {
		return err
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	client := fetch.New(cfg.Fetch)
	if cfg.Fetch.Auth.Enabled() {
		tokens := auth.NewClientCredentials(cfg.Fetch.Auth, log.With().Str("component", "auth").Logger())
		if err := tokens.Start(ctx); err != nil {
			return err
		}
		defer tokens.Stop()
		client.WithTokenSource(tokens)
	}
	mw, err := apimiddleware.New(client.Request, cfg.MiddlewareConfig(),
		apimiddleware.WithLogger(log),
		apimiddleware.WithMetrics(provider),
	)
	if err != nil {
		return err
	}

	st := store.New(collect, nil, mw)

	extra, err := buildExtra(opts)
	if err != nil {
		return err
	}

	var failure error
	action, err := apimiddleware.BuildRequestAction(url, apimiddleware.RequestOptions{
		Type: opts.correlation,
		OnSuccess: func(payload any) apimiddleware.Action {
			return apimiddleware.StandardAction{Type: successActionType, Payload: payload}
		},
		OnFailure: func(err error) apimiddleware.Action {
			failure = err
			return apimiddleware.StandardAction{Type: failureActionType, Payload: err, Error: true}
		},
		Extra: extra,
	})
	if err != nil {
		return err
	}

	pending := st.Dispatch(ctx, action).(*apimiddleware.Pending)
	result, err := pending.Wait(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report{Result: result, Actions: st.State()}); err != nil {
		return fmt.Errorf("erro ao imprimir resultado: %w", err)
	}

	if failure != nil {
		return fmt.Errorf("request failed: %w", failure)
	}
	return nil
}

// collect é o reducer do comando: guarda as actions padrão, trocando erros
// pela sua mensagem para que possam ser serializados.
func collect(state []apimiddleware.StandardAction, action apimiddleware.Action) []apimiddleware.StandardAction {
	a, ok := action.(apimiddleware.StandardAction)
	if !ok {
		return state
	}
	if err, ok := a.Payload.(error); ok {
		a.Payload = err.Error()
	}
	return append(state, a)
}

func buildExtra(opts requestOptions) (apimiddleware.Options, error) {
	extra := apimiddleware.Options{}
	if opts.method != "" {
		extra[fetch.OptMethod] = opts.method
	}
	if opts.body != "" {
		extra[fetch.OptBody] = opts.body
	}
	if len(opts.headers) > 0 {
		headers := make(map[string]string, len(opts.headers))
		for _, h := range opts.headers {
			k, v, ok := strings.Cut(h, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("header inválido '%s': use chave=valor", h)
			}
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		extra[fetch.OptHeaders] = headers
	}
	return extra, nil
}
