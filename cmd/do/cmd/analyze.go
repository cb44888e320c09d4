package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/uxlens/uxlens/internal/llm"
	"github.com/uxlens/uxlens/internal/logger"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/webpage"
)

// AnalyzeCmd runs one analysis outside the server, handy when tuning prompts.
func AnalyzeCmd() *cobra.Command {
	var (
		baseURL string
		apiKey  string
		modelID string
		timeout time.Duration
	)

	newService := func() (*service.AnalysisService, error) {
		client, err := llm.New(llm.Config{
			BaseURL: baseURL,
			APIKey:  apiKey,
			Model:   modelID,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		fetcher := webpage.NewFetcher(15*time.Second, 2<<20)
		return service.NewAnalysisService(client, fetcher, nil), nil
	}

	run := func(cmd *cobra.Command, req *model.AnalysisRequest) error {
		logger.Init(logger.Options{Development: true})

		svc, err := newService()
		if err != nil {
			return err
		}

		result, err := svc.Analyze(cmd.Context(), req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a single analysis and print the JSON report",
	}
	cmd.PersistentFlags().StringVar(&baseURL, "base-url", envOr("LLM_BASE_URL", "https://api.openai.com"), "OpenAI-compatible API base URL")
	cmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("LLM_API_KEY"), "API key")
	cmd.PersistentFlags().StringVar(&modelID, "model", envOr("LLM_MODEL", "gpt-4o-mini"), "model name")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 90*time.Second, "completion timeout")

	cmd.AddCommand(&cobra.Command{
		Use:   "url <url>",
		Short: "Analyze a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &model.AnalysisRequest{Type: model.AnalysisTypeURL, Content: args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "file <path>",
		Short: "Analyze a CSV, TXT or PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			name := filepath.Base(args[0])
			if len(data) > 10<<20 {
				return fmt.Errorf("%s is larger than 10 MB", name)
			}

			req := &model.AnalysisRequest{Type: model.AnalysisTypeFile, FileName: name}
			if http.DetectContentType(data) == "application/pdf" {
				req.Attachment = &model.Attachment{Name: name, MimeType: "application/pdf", Data: data}
			} else {
				req.Content = string(data)
			}
			return run(cmd, req)
		},
	})

	return cmd
}
