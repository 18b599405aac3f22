package telemetry

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dukerupert/cepfinder/internal/domain"
	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// SentryConfig holds configuration for Sentry error tracking.
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string

	// SampleRate is the share of errors sent; zero means all of them.
	SampleRate float64

	// TracesSampleRate is the share of transactions traced; zero disables tracing.
	TracesSampleRate float64

	Debug bool
}

var sentryEnabled atomic.Bool

// InitSentry starts the Sentry client when enabled and configured. The
// returned function flushes pending events and must run before exit.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	sentryEnabled.Store(false)

	switch {
	case !cfg.Enabled:
		logger.Info("Sentry disabled")
		return func() {}, nil
	case cfg.DSN == "":
		logger.Warn("Sentry enabled without SENTRY_DSN, error tracking stays off")
		return func() {}, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		BeforeSend:       scrubEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	sentryEnabled.Store(true)

	logger.Info("Sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)

	return func() { sentry.Flush(flushTimeout) }, nil
}

// scrubEvent drops the session cookie; it identifies a browser and adds
// nothing to a stack trace.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		event.Request.Cookies = ""
		delete(event.Request.Headers, "Cookie")
	}
	return event
}

// IsEnabled reports whether events are being sent.
func IsEnabled() bool {
	return sentryEnabled.Load()
}

// CaptureError sends err with tags. An unreachable external service is
// reported as a warning; everything else as an error. No-op when disabled.
func CaptureError(err error, tags map[string]string) {
	if err == nil || !IsEnabled() {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if op := domain.ErrorOp(err); op != "" {
			scope.SetTag("op", op)
		}
		if domain.IsCode(err, domain.EUNAVAILABLE) {
			scope.SetLevel(sentry.LevelWarning)
		}
		sentry.CaptureException(err)
	})
}

// SentryMiddleware gives each request its own hub and reports panics before
// re-raising them for the recovery middleware.
func SentryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			defer func() {
				if p := recover(); p != nil {
					hub.RecoverWithContext(ctx, p)
					panic(p)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HTTPTransport records a span around each outgoing request when tracing
// is on. A nil Transport means http.DefaultTransport.
type HTTPTransport struct {
	Transport http.RoundTripper
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if !IsEnabled() {
		return base.RoundTrip(req)
	}

	span := sentry.StartSpan(req.Context(), "http.client")
	span.Description = req.Method + " " + req.URL.Host
	defer span.Finish()

	resp, err := base.RoundTrip(req)
	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		return nil, err
	}
	span.SetData("http.status_code", resp.StatusCode)
	return resp, nil
}
