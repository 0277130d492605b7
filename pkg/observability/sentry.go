// Package observability reports unexpected failures to Sentry when a DSN is configured.
package observability

import (
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

var sentryEnabled atomic.Bool

// InitSentry configures the Sentry client from SENTRY_DSN, SENTRY_ENVIRONMENT
// and SENTRY_RELEASE. Without a DSN reporting stays disabled and the returned
// flush function is a no-op.
func InitSentry(release string) (func(), bool, error) {
	dsn := strings.TrimSpace(os.Getenv("SENTRY_DSN"))
	if dsn == "" {
		sentryEnabled.Store(false)
		return func() {}, false, nil
	}

	if env := strings.TrimSpace(os.Getenv("SENTRY_RELEASE")); env != "" {
		release = env
	}
	options := sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		Release:          release,
		AttachStacktrace: true,
	}

	if err := sentry.Init(options); err != nil {
		sentryEnabled.Store(false)
		return func() {}, false, err
	}

	sentryEnabled.Store(true)
	return func() {
		sentry.Flush(flushTimeout)
	}, true, nil
}

// CaptureError sends err with tags and extra context. It does nothing when
// Sentry is disabled.
func CaptureError(err error, tags map[string]string, extra map[string]interface{}) {
	if err == nil || !sentryEnabled.Load() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		for key, value := range extra {
			scope.SetExtra(key, value)
		}
		sentry.CaptureException(err)
	})
}

// Enabled reports whether Sentry reporting is active.
func Enabled() bool {
	return sentryEnabled.Load()
}
