package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func DevCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the server under air, rebuilding on Go, template, script and migration changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAir(cmd.Context(), port)
		},
	}
	cmd.Flags().StringVar(&port, "port", envOr("PORT", "8090"), "port for the dev server")
	return cmd
}

// runAir runs air with an inline config. Markdown content is re-read per
// request in development, so it is not watched.
func runAir(ctx context.Context, port string) error {
	if _, err := exec.LookPath("air"); err != nil {
		return errors.New("air not found, install with: go install github.com/air-verse/air@latest")
	}

	air := exec.CommandContext(ctx, "air",
		"-c", os.DevNull,
		"-root", ".",
		"-build.cmd", "go build -o ./tmp/uxlens ./cmd/server",
		"-build.bin", "./tmp/uxlens",
		"-build.delay", "200",
		"-build.exclude_dir", "bin,tmp,data,content",
		"-build.exclude_regex", "_test.go$",
		"-build.include_ext", "go,html,js,sql",
		"-build.send_interrupt", "true",
	)
	air.Stdin, air.Stdout, air.Stderr = os.Stdin, os.Stdout, os.Stderr
	air.Env = append(os.Environ(), "APP_ENV=development", "PORT="+port)

	fmt.Printf("dev server on http://localhost:%s\n", port)
	return air.Run()
}
