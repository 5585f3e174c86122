package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/raywall/fast-dispatch-toolkit/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure inicializa o logger global baseando-se na configuração do YAML.
func Configure(cfg config.LoggingConf, service string) zerolog.Logger {
	return ConfigureTo(os.Stdout, cfg, service)
}

// ConfigureTo é similar ao Configure, mas escreve no writer informado.
// O logger resultante também passa a ser o log.Logger global.
func ConfigureTo(w io.Writer, cfg config.LoggingConf, service string) zerolog.Logger {
	// Define o nível de log (default: info)
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Define o output (JSON para produção, Console "bonito" para local se solicitado)
	output := w
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	logger := ctx.Logger()

	log.Logger = logger
	return logger
}
