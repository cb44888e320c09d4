package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/uxlens/uxlens/cmd/do/cmd"
)

func main() {
	// Same .env the server reads; missing is fine
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "do",
		Short:        "Development and operations tools for UXLens",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.ContentCmd())
	rootCmd.AddCommand(cmd.AnalyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
