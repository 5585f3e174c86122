package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/fast-dispatch-toolkit/apimiddleware"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *AppConfig) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *AppConfig) error {
	// 1. Labels de ciclo de vida distintos (após aplicar os padrões)
	types := cfg.Middleware.ActionTypes
	labels := map[string]string{
		"start":   orDefault(types.Start, apimiddleware.DefaultStartType),
		"end":     orDefault(types.End, apimiddleware.DefaultEndType),
		"failure": orDefault(types.Failure, apimiddleware.DefaultFailureType),
	}
	seen := make(map[string]string)
	for _, name := range []string{"start", "end", "failure"} {
		label := labels[name]
		if other, dup := seen[label]; dup {
			return fmt.Errorf("action type '%s' usado em '%s' e '%s'", label, other, name)
		}
		seen[label] = name
	}

	// 2. Timeout do cliente HTTP
	if cfg.Fetch.Timeout != "" {
		d, err := time.ParseDuration(cfg.Fetch.Timeout)
		if err != nil {
			return fmt.Errorf("fetch.timeout inválido '%s': %w", cfg.Fetch.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("fetch.timeout deve ser positivo, recebido '%s'", cfg.Fetch.Timeout)
		}
	}

	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
