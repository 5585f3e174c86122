package main

import (
	"github.com/spf13/cobra"
)

var configPath string

// NewRootCommand cria o comando raiz do apicall.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "apicall",
		Short: "Dispatch API request actions through the request middleware",
		Long: `apicall monta um store com o middleware de requisições e despacha uma
RequestAction, exibindo as actions de ciclo de vida produzidas.

Examples:
  apicall request https://api.example.com/users --type FETCH_USERS
  apicall request /users --config config.yaml -H x-api-key=abc
  apicall validate --config s3://bucket/apicall.yaml`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Caminho do arquivo YAML ou S3/DynamoDB URI")

	rootCmd.AddCommand(newRequestCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}
