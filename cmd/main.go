package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/newsboy-backend/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveAPI(configPath)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Migrate(configPath)
		},
	}

	root := &cobra.Command{
		Use:           "newsboy",
		Short:         "Newsboy digest backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overrides CONFIG_FILE)")
	root.AddCommand(serve, migrate)
	return root
}

func serveAPI(configPath string) error {
	a, err := app.New(configPath)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	a.Start()
	return a.Run()
}
