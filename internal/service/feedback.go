package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/uxlens/uxlens/internal/metrics"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/validation"
)

const maxFeedbackCommentRunes = 2000

// FeedbackNotifier delivers feedback to a human.
type FeedbackNotifier interface {
	SendFeedback(ctx context.Context, score float64, comment, fromEmail string) error
}

type FeedbackService struct {
	notifier FeedbackNotifier
	metrics  metrics.Recorder
}

func NewFeedbackService(notifier FeedbackNotifier, recorder metrics.Recorder) *FeedbackService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &FeedbackService{notifier: notifier, metrics: recorder}
}

// Submit validates the score and forwards the feedback. Nothing is stored.
// Delivery failures are logged and never returned.
func (s *FeedbackService) Submit(ctx context.Context, fb *model.Feedback, fromEmail string) error {
	err := validation.ValidateStruct(fb)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	fb.Comment = strings.TrimSpace(fb.Comment)
	if utf8.RuneCountInString(fb.Comment) > maxFeedbackCommentRunes {
		fb.Comment = string([]rune(fb.Comment)[:maxFeedbackCommentRunes])
	}

	score := *fb.Score
	s.metrics.RecordFeedback(score)
	slog.Info("feedback received", "score", score, "comment_length", len(fb.Comment), "signed_in", fromEmail != "")

	if s.notifier != nil {
		if err := s.notifier.SendFeedback(ctx, score, fb.Comment, fromEmail); err != nil {
			slog.Error("failed to forward feedback", "error", err)
		}
	}

	return nil
}
