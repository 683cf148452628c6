package main

import (
	"os"

	"github.com/spf13/cobra"

	"warden/internal/interfaces/cli/migrate"
	"warden/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - session and auth-state service",
		Long:  `Warden is a session lifecycle service with multi-device management, remember-me expiry classes, and profile storage.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
