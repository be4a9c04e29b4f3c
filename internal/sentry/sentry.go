// Package sentry reports crashes and error logs when a DSN is configured.
// Without one, every function here does nothing.
package sentry

import (
	"os"
	"runtime"
	"time"

	gosentry "github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

var enabled bool

// Init starts the SDK for dsn. An empty dsn leaves reporting off.
func Init(dsn, version string) error {
	enabled = false
	if dsn == "" {
		return nil
	}
	opts := gosentry.ClientOptions{
		Dsn:              dsn,
		Release:          "jiratui@" + version,
		AttachStacktrace: true,
	}
	if err := gosentry.Init(opts); err != nil {
		return err
	}
	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTags(map[string]string{
			"os":      runtime.GOOS,
			"arch":    runtime.GOARCH,
			"go":      runtime.Version(),
			"term":    os.Getenv("TERM"),
			"version": version,
		})
	})
	enabled = true
	return nil
}

func IsEnabled() bool { return enabled }

// Flush blocks until queued events are sent or flushTimeout passes.
func Flush() {
	if enabled {
		gosentry.Flush(flushTimeout)
	}
}

// CaptureError reports err as an exception and waits for delivery. Used for
// failures surfaced as errors rather than panics, such as a panic the
// bubbletea runtime recovered and turned into tea.ErrProgramPanic.
func CaptureError(err error) {
	if !enabled || err == nil {
		return
	}
	gosentry.CaptureException(err)
	gosentry.Flush(flushTimeout)
}

// RecoverPanic reports a panic in flight and re-raises it. It must be
// deferred directly: defer sentry.RecoverPanic().
func RecoverPanic() {
	if !enabled {
		return
	}
	if v := recover(); v != nil {
		gosentry.CurrentHub().Recover(v)
		gosentry.Flush(flushTimeout)
		panic(v)
	}
}
