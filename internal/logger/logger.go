package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

type Options struct {
	// Development switches to human-readable text at debug level.
	Development bool
	// SentryDSN, when set, forwards error records to Sentry.
	SentryDSN   string
	Environment string
}

// Init installs the process-wide slog default writing to stdout.
func Init(opts Options) {
	slog.SetDefault(New(os.Stdout, opts))
}

func New(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelInfo
	var base slog.Handler
	if opts.Development {
		level = slog.LevelDebug
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	if opts.SentryDSN == "" {
		return slog.New(base)
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.SentryDSN,
		Environment:      opts.Environment,
		AttachStacktrace: true,
	})
	if err != nil {
		l := slog.New(base)
		l.Warn("sentry disabled", "error", err)
		return l
	}

	return slog.New(slogmulti.Fanout(
		base,
		slogsentry.Option{Level: slog.LevelError, AddSource: true}.NewSentryHandler(),
	))
}

// Flush waits for buffered Sentry events before shutdown.
func Flush() {
	sentry.Flush(2 * time.Second)
}
