package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/uxlens/uxlens/internal/llm"
	"github.com/uxlens/uxlens/internal/metrics"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/validation"
	"github.com/uxlens/uxlens/internal/webpage"
)

const (
	maxPromptContentRunes = 24000
	maxCSVRows            = 500
)

// Completer is the LLM call the analysis depends on.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// PageFetcher loads the page behind a URL analysis.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*webpage.Page, error)
}

type AnalysisService struct {
	completer Completer
	fetcher   PageFetcher
	metrics   metrics.Recorder
}

func NewAnalysisService(completer Completer, fetcher PageFetcher, recorder metrics.Recorder) *AnalysisService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AnalysisService{
		completer: completer,
		fetcher:   fetcher,
		metrics:   recorder,
	}
}

// Validate normalises req in place and reports input problems as ErrInvalidRequest.
func (s *AnalysisService) Validate(req *model.AnalysisRequest) error {
	req.Content = strings.TrimSpace(req.Content)
	req.FileName = strings.TrimSpace(filepath.Base(req.FileName))
	if req.FileName == "." || req.FileName == "/" {
		req.FileName = ""
	}

	if req.Content == "" && req.Attachment != nil {
		req.Content = req.Attachment.Name
	}

	err := validation.ValidateStruct(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if req.Type == model.AnalysisTypeURL {
		u, err := webpage.ValidateURL(req.Content)
		if err != nil {
			return fmt.Errorf("%w: content must be an absolute http(s) URL", ErrInvalidRequest)
		}
		req.Content = u.String()
	}

	return nil
}

// Analyze runs the whole pipeline: validate, fetch (URL only, best effort),
// one completion, parse.
func (s *AnalysisService) Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResult, error) {
	start := time.Now()

	if err := s.Validate(req); err != nil {
		s.metrics.RecordAnalysis(req.Type, "invalid", time.Since(start))
		return nil, err
	}

	in := llm.CompletionRequest{System: systemPrompt, JSON: true}

	switch req.Type {
	case model.AnalysisTypeURL:
		page := s.fetchPage(ctx, req.Content)
		in.User = urlPrompt(req.Content, page)
	case model.AnalysisTypeFile:
		if req.Attachment != nil {
			in.File = &llm.File{
				Name:     req.Attachment.Name,
				MimeType: req.Attachment.MimeType,
				Data:     req.Attachment.Data,
			}
			in.User = attachmentPrompt(req.Attachment.Name)
		} else {
			in.User = filePrompt(req.FileName, prepareFileContent(req.FileName, req.Content))
		}
	}

	text, err := s.completer.Complete(ctx, in)
	if err != nil {
		s.metrics.RecordAnalysis(req.Type, "upstream_error", time.Since(start))
		return nil, fmt.Errorf("completion: %w", err)
	}

	result, err := ParseResult(text)
	if err != nil {
		s.metrics.RecordAnalysis(req.Type, "parse_error", time.Since(start))
		slog.Warn("analysis result not parseable", "type", req.Type, "error", err, "completion_bytes", len(text))
		return nil, err
	}

	s.metrics.RecordAnalysis(req.Type, "success", time.Since(start))
	slog.Info("analysis completed",
		"type", req.Type,
		"problems", len(result.Problems),
		"issues", len(result.Issues),
		"duration", time.Since(start),
	)
	return result, nil
}

// fetchPage makes the single fetch attempt. Failure is logged and yields nil,
// the prompt then carries the URL alone.
func (s *AnalysisService) fetchPage(ctx context.Context, rawURL string) *webpage.Page {
	if s.fetcher == nil {
		return nil
	}

	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.metrics.RecordPageFetchFailure()
		slog.Warn("page fetch failed, analyzing URL only", "url", rawURL, "error", err)
		return nil
	}
	return page
}

// ParseResult strips optional code fences and decodes the result JSON.
func ParseResult(text string) (*model.AnalysisResult, error) {
	clean := llm.StripCodeFences(text)

	var result model.AnalysisResult
	dec := json.NewDecoder(strings.NewReader(clean))
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableResult, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrUnparseableResult)
	}

	result.Normalize()
	return &result, nil
}

// prepareFileContent rewrites CSV into one labelled line per row and caps the size.
func prepareFileContent(fileName, content string) string {
	if strings.EqualFold(filepath.Ext(fileName), ".csv") {
		if table, err := normalizeCSV(content); err == nil {
			content = table
		} else {
			slog.Debug("csv normalisation failed, sending raw text", "file", fileName, "error", err)
		}
	}
	return truncate(content, maxPromptContentRunes)
}

func normalizeCSV(content string) (string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	rows := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if rows == maxCSVRows {
			fmt.Fprintf(&buf, "... more rows omitted\n")
			break
		}
		rows++

		fmt.Fprintf(&buf, "Row %d:", rows)
		for i, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			label := fmt.Sprintf("column %d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				label = strings.TrimSpace(header[i])
			}
			fmt.Fprintf(&buf, " %s=%q;", label, field)
		}
		buf.WriteByte('\n')
	}

	if rows == 0 {
		return "", errors.New("csv has no data rows")
	}
	return fmt.Sprintf("Columns: %s\n%s", strings.Join(header, ", "), buf.String()), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "\n[truncated]"
}
