package metrics

// Provider define o contrato para envio de métricas.
// Isso permite trocar Datadog por Prometheus ou Logging sem alterar a lógica de negócio.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// NoopProvider descarta todas as métricas. É o provider padrão quando
// métricas estão desabilitadas.
type NoopProvider struct{}

func (NoopProvider) Count(name string, value float64, tags []string) error     { return nil }
func (NoopProvider) Gauge(name string, value float64, tags []string) error     { return nil }
func (NoopProvider) Histogram(name string, value float64, tags []string) error { return nil }
