package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrubEvent_DropsCookies(t *testing.T) {
	event := &sentry.Event{Request: &sentry.Request{
		Cookies: "cep_session=abc",
		Headers: map[string]string{"Cookie": "cep_session=abc", "Accept": "application/json"},
	}}

	got := scrubEvent(event, nil)
	require.NotNil(t, got)
	assert.Empty(t, got.Request.Cookies)
	assert.NotContains(t, got.Request.Headers, "Cookie")
	assert.Equal(t, "application/json", got.Request.Headers["Accept"])
}

func TestScrubEvent_NoRequest(t *testing.T) {
	assert.NotNil(t, scrubEvent(&sentry.Event{}, nil))
}

func TestSentryMiddleware_DisabledPassesThrough(t *testing.T) {
	h := SentryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHTTPTransport_DisabledUsesBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &HTTPTransport{}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
