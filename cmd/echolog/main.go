package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"echolog/internal/bootstrap"
	"echolog/internal/cli"
	"echolog/internal/logger"
)

func main() {
	// Optional local overrides; absence is not an error.
	_ = godotenv.Load()

	log := logger.New()

	app, err := bootstrap.New(log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "echolog:", err)
		os.Exit(1)
	}

	// Ctrl+C during `record` is a stop signal, not an abort, so the
	// commands own their signal handling rather than a shared context.
	rootCmd := cli.NewRootCmd(&cli.Dependencies{App: app})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "echolog:", err)
		os.Exit(1)
	}
}
