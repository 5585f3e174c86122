package main

import (
	"encoding/json"
	"fmt"

	"github.com/raywall/fast-dispatch-toolkit/pkg/config"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration source",
		Long: `Carrega a configuração (arquivo local, S3 ou DynamoDB), aplica as variáveis
de ambiente APIMW_* e executa as validações estruturais e semânticas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config flag is required")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🔍 Analisando configuração: %s ...\n", configPath)

			cfg, err := config.Load(cmd.Context(), configPath)
			if err != nil {
				fmt.Fprintf(out, "❌ Configuração inválida: %v\n", err)
				return err
			}

			fmt.Fprintln(out, "✅ Configuração válida!")

			summary, err := json.MarshalIndent(cfg.Middleware.WithDefaults(), "", "  ")
			if err != nil {
				return fmt.Errorf("erro ao serializar configuração do middleware: %w", err)
			}
			fmt.Fprintf(out, "%s\n", summary)
			return nil
		},
	}
}
