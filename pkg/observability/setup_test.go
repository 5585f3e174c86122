package observability

import (
	"testing"

	"github.com/raywall/fast-dispatch-toolkit/pkg/config"
	"github.com/raywall/fast-dispatch-toolkit/pkg/metrics"
)

func TestSetupMetrics(t *testing.T) {
	t.Run("Disabled returns Noop", func(t *testing.T) {
		cfg := config.MetricsConf{
			Datadog: config.DatadogConf{Enabled: false},
		}

		provider, err := SetupMetrics(cfg)
		if err != nil {
			t.Fatalf("Erro setup: %v", err)
		}

		if _, ok := provider.(metrics.NoopProvider); !ok {
			t.Errorf("Esperado NoopProvider, recebido %T", provider)
		}
	})

	t.Run("Enabled returns Datadog", func(t *testing.T) {
		cfg := config.MetricsConf{
			Datadog: config.DatadogConf{
				Enabled:   true,
				Addr:      "localhost:8125",
				Namespace: "apimiddleware.",
				Tags:      []string{"env:test"},
			},
		}

		provider, err := SetupMetrics(cfg)
		if err != nil {
			// statsd.New pode falhar se o endereço for inválido, mas localhost costuma passar na criação do struct
			t.Fatalf("Erro setup: %v", err)
		}

		dd, ok := provider.(*DatadogProvider)
		if !ok {
			t.Fatalf("Esperado DatadogProvider, recebido %T", provider)
		}
		if err := dd.Count("request.start", 1, []string{"type:T"}); err != nil {
			t.Errorf("Erro ao enviar count: %v", err)
		}
		if err := dd.Close(); err != nil {
			t.Errorf("Erro ao fechar cliente: %v", err)
		}
	})
}
