package monitor

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/postboard/config"
)

// InitSentry configures the global sentry client. An empty DSN disables reporting
// and the returned flush is a no-op.
func InitSentry(cfg config.SentryConfig) (flush func(), err error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		SampleRate:       cfg.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// Enabled reports whether a sentry client is installed.
func Enabled() bool {
	return sentry.CurrentHub().Client() != nil
}
