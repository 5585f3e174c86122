package config

import (
	"time"

	"github.com/raywall/fast-dispatch-toolkit/apimiddleware"
)

// EnvPrefix é o prefixo das variáveis de ambiente que sobrepõem o YAML.
const EnvPrefix = "APIMW_"

// AppConfig representa a estrutura raiz do arquivo YAML de configuração.
type AppConfig struct {
	Version    string               `yaml:"version" validate:"required"`
	Service    ServiceDetails       `yaml:"service" envPrefix:"SERVICE_"`
	Logging    LoggingConf          `yaml:"logging" envPrefix:"LOG_"`
	Metrics    MetricsConf          `yaml:"metrics"`
	Fetch      FetchConf            `yaml:"fetch" envPrefix:"FETCH_"`
	Middleware apimiddleware.Config `yaml:"middleware" envPrefix:"MW_"`
}

// ServiceDetails contém os metadados do serviço que usa o middleware.
type ServiceDetails struct {
	Name string `yaml:"name" env:"NAME" validate:"omitempty,hostname_rfc1123"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Level   string `yaml:"level" env:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" env:"FORMAT" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog" envPrefix:"DD_"`
}

type DatadogConf struct {
	Enabled   bool     `yaml:"enabled" env:"ENABLED"`
	Addr      string   `yaml:"addr" env:"AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string   `yaml:"namespace" env:"NAMESPACE"`
	Tags      []string `yaml:"tags" env:"TAGS"`
}

// FetchConf configura o cliente HTTP usado como RequestFunc.
type FetchConf struct {
	// BaseURL é prefixada às URLs relativas das RequestActions.
	BaseURL   string   `yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
	Timeout   string   `yaml:"timeout" env:"TIMEOUT"` // Ex: "500ms", "2s"
	UserAgent string   `yaml:"user_agent" env:"USER_AGENT"`
	Auth      AuthConf `yaml:"auth" envPrefix:"AUTH_"`
}

// AuthConf configura o fluxo OAuth2 Client Credentials. Vazio desliga a
// injeção do header Authorization.
type AuthConf struct {
	TokenURL     string `yaml:"token_url" env:"TOKEN_URL" validate:"omitempty,url"`
	ClientID     string `yaml:"client_id" env:"CLIENT_ID" validate:"required_with=TokenURL"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET" validate:"required_with=TokenURL"`
	Scope        string `yaml:"scope" env:"SCOPE"`
}

// Enabled indica se há um provedor de token configurado.
func (a AuthConf) Enabled() bool {
	return a.TokenURL != ""
}

// Default retorna a configuração usada antes da leitura do YAML.
func Default() AppConfig {
	return AppConfig{
		Version:    "1.0",
		Logging:    LoggingConf{Enabled: true, Level: "info", Format: "json"},
		Fetch:      FetchConf{Timeout: "30s", UserAgent: "FastDispatchToolkit/1.0"},
		Middleware: apimiddleware.DefaultConfig(),
	}
}

// GetTimeout interpreta Fetch.Timeout, usando 30s quando inválido ou vazio.
func (f FetchConf) GetTimeout() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// MiddlewareConfig retorna uma cópia da configuração do middleware pronta
// para apimiddleware.New.
func (c *AppConfig) MiddlewareConfig() *apimiddleware.Config {
	mw := apimiddleware.Config{
		ActionTypes:     c.Middleware.ActionTypes,
		RequestDefaults: c.Middleware.RequestDefaults.Clone(),
	}
	return &mw
}
