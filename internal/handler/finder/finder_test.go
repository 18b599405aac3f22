package finder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/dukerupert/cepfinder/internal/cookie"
	"github.com/dukerupert/cepfinder/internal/handler"
	"github.com/dukerupert/cepfinder/internal/handler/finder"
	"github.com/dukerupert/cepfinder/internal/lookup"
	"github.com/dukerupert/cepfinder/internal/notify"
	"github.com/dukerupert/cepfinder/internal/router"
	"github.com/dukerupert/cepfinder/internal/routes"
	"github.com/dukerupert/cepfinder/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	server   *httptest.Server
	client   *http.Client
	sessions *finder.Sessions
	fetcher  *address.MockFetcher
	pings    *atomic.Int32
	up       *atomic.Bool
}

func newHarness(t *testing.T, capacity int) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := address.NewMemoryStore()
	_, err := store.Upsert(context.Background(), address.Address{
		CEP:          "01001000",
		Street:       "Praça da Sé",
		Neighborhood: "Sé",
		City:         "São Paulo",
		State:        "SP",
		Source:       address.SourceSeed,
	})
	require.NoError(t, err)

	h := &harness{
		fetcher: address.NewMockFetcher(),
		pings:   &atomic.Int32{},
		up:      &atomic.Bool{},
	}
	h.up.Store(true)
	h.fetcher.PingFunc = func(ctx context.Context) (bool, error) {
		h.pings.Add(1)
		if !h.up.Load() {
			return false, errors.New("connection refused")
		}
		return true, nil
	}
	h.fetcher.FetchFunc = func(ctx context.Context, cep string) (*address.Address, error) {
		if cep != "20040020" {
			return nil, nil
		}
		return &address.Address{
			CEP:          cep,
			Street:       "Avenida Rio Branco",
			Neighborhood: "Centro",
			City:         "Rio de Janeiro",
			State:        "RJ",
		}, nil
	}

	svc := address.NewService(store, h.fetcher, logger)

	sessions, err := finder.NewSessions(func(id string, inbox *notify.Buffer) *lookup.Coordinator {
		return lookup.New(svc, lookup.Options{Notifier: inbox, Logger: logger})
	}, finder.SessionsConfig{Capacity: capacity, Cookies: cookie.NewConfig("", false)})
	require.NoError(t, err)
	h.sessions = sessions

	renderer, err := handler.NewRenderer(web.Templates())
	require.NoError(t, err)

	r := router.New()
	routes.RegisterFinderRoutes(r, routes.FinderDeps{Handler: finder.NewHandler(sessions, renderer)})

	h.server = httptest.NewServer(r)
	t.Cleanup(h.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	h.client = &http.Client{Jar: jar}

	return h
}

func (h *harness) call(t *testing.T, method, path string, body any) (int, finder.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out finder.Response
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (h *harness) input(t *testing.T, value string) finder.Response {
	t.Helper()
	status, resp := h.call(t, http.MethodPost, "/api/cep/input", finder.InputRequest{Value: value})
	require.Equal(t, http.StatusOK, status)
	return resp
}

func TestFinder_SessionCookie(t *testing.T) {
	h := newHarness(t, 0)

	resp, err := h.client.Get(h.server.URL + "/api/cep/state")
	require.NoError(t, err)
	resp.Body.Close()

	var found *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookie.SessionCookieName {
			found = c
		}
	}
	require.NotNil(t, found, "first request sets the session cookie")
	assert.True(t, found.HttpOnly)

	resp, err = h.client.Get(h.server.URL + "/api/cep/state")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, resp.Cookies(), "a known session is not re-issued")
	assert.Equal(t, 1, h.sessions.Len())
}

func TestFinder_StateActivatesOnce(t *testing.T) {
	h := newHarness(t, 0)

	_, resp := h.call(t, http.MethodGet, "/api/cep/state", nil)
	assert.True(t, resp.State.IsServiceAvailable)
	assert.Equal(t, "Serviço Online", resp.State.ServiceStatusText)
	assert.Equal(t, "service-status online", resp.State.ServiceStatusClass)
	assert.Empty(t, resp.Notifications)

	h.call(t, http.MethodGet, "/api/cep/state", nil)
	assert.Equal(t, int32(1), h.pings.Load())
}

func TestFinder_Input(t *testing.T) {
	h := newHarness(t, 0)

	resp := h.input(t, "01a00-1000")
	assert.Equal(t, "01001000", resp.State.PostalCode)
	assert.Equal(t, "01001-000", resp.State.Display)
	assert.Nil(t, resp.Outcome)
}

func TestFinder_SearchFound(t *testing.T) {
	h := newHarness(t, 0)
	h.input(t, "01001-000")

	status, resp := h.call(t, http.MethodPost, "/api/cep/search", nil)
	require.Equal(t, http.StatusOK, status)

	require.NotNil(t, resp.Outcome)
	assert.Equal(t, lookup.StatusFound, resp.Outcome.Status)
	assert.Equal(t, lookup.KindSearch, resp.Outcome.Kind)

	require.NotNil(t, resp.State.Address)
	assert.Equal(t, "São Paulo", resp.State.Address.City)
	assert.True(t, resp.State.ShowResult)
	assert.False(t, resp.State.IsLoading)
	assert.Equal(t, "result-card success", resp.State.ResultCardClass)

	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, notify.Success("Sucesso", "Endereço encontrado!"), resp.Notifications[0])

	assert.Empty(t, h.fetcher.FetchCalls(), "search never calls the external API")
}

func TestFinder_SearchNotFound(t *testing.T) {
	h := newHarness(t, 0)
	h.input(t, "99999999")

	_, resp := h.call(t, http.MethodPost, "/api/cep/search", nil)

	require.NotNil(t, resp.Outcome)
	assert.Equal(t, lookup.StatusNotFound, resp.Outcome.Status)
	assert.False(t, resp.State.ShowResult)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, notify.Warning("Aviso", "Endereço não encontrado"), resp.Notifications[0])
}

func TestFinder_SearchInvalid(t *testing.T) {
	h := newHarness(t, 0)
	h.input(t, "0100")

	_, resp := h.call(t, http.MethodPost, "/api/cep/search", nil)

	require.NotNil(t, resp.Outcome)
	assert.Equal(t, lookup.StatusInvalid, resp.Outcome.Status)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, notify.Error("Erro", "Digite um CEP válido com 8 dígitos"), resp.Notifications[0])
}

func TestFinder_Sync(t *testing.T) {
	h := newHarness(t, 0)
	h.input(t, "20040-020")

	_, resp := h.call(t, http.MethodPost, "/api/cep/sync", nil)

	require.NotNil(t, resp.Outcome)
	assert.Equal(t, lookup.StatusFound, resp.Outcome.Status)
	require.NotNil(t, resp.State.Address)
	assert.Equal(t, address.SourceViaCEP, resp.State.Address.Source)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Endereço sincronizado com sucesso!", resp.Notifications[0].Message)

	// The synced record is now in the local store.
	_, resp = h.call(t, http.MethodPost, "/api/cep/search", nil)
	assert.Equal(t, lookup.StatusFound, resp.Outcome.Status)
	assert.Equal(t, []string{"20040020"}, h.fetcher.FetchCalls())
}

func TestFinder_Clear(t *testing.T) {
	h := newHarness(t, 0)
	h.input(t, "01001000")
	h.call(t, http.MethodPost, "/api/cep/search", nil)

	_, resp := h.call(t, http.MethodPost, "/api/cep/clear", nil)

	assert.Empty(t, resp.State.PostalCode)
	assert.Empty(t, resp.State.Display)
	assert.Nil(t, resp.State.Address)
	assert.False(t, resp.State.ShowResult)
	assert.Empty(t, resp.Notifications)
}

func TestFinder_Status(t *testing.T) {
	h := newHarness(t, 0)
	h.call(t, http.MethodGet, "/api/cep/state", nil)

	h.up.Store(false)
	_, resp := h.call(t, http.MethodPost, "/api/cep/status", nil)

	assert.False(t, resp.State.IsServiceAvailable)
	assert.Equal(t, "service-status offline", resp.State.ServiceStatusClass)
	assert.Empty(t, resp.Notifications, "status checks never notify")
	assert.Equal(t, int32(2), h.pings.Load())
}

func TestFinder_Page(t *testing.T) {
	h := newHarness(t, 0)

	resp, err := h.client.Get(h.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Serviço Online")
	assert.Equal(t, int32(1), h.pings.Load())

	page := string(body)
	assert.Contains(t, page, "queue = queue.then(fn)", "page sends API calls one at a time")
	assert.Contains(t, page, "if (seq === typed && input.value !== s.display)", "stale responses do not overwrite the input")
}

func TestFinder_InputKeepsLastKeystroke(t *testing.T) {
	h := newHarness(t, 0)

	var resp finder.Response
	for _, typed := range []string{"1", "12", "123", "1234", "12345"} {
		_, resp = h.call(t, http.MethodPost, "/api/cep/input", map[string]string{"value": typed})
	}

	assert.Equal(t, "12345", resp.State.Display)
	_, state := h.call(t, http.MethodGet, "/api/cep/state", nil)
	assert.Equal(t, "12345", state.State.PostalCode)
}

func TestFinder_UnknownPaths(t *testing.T) {
	h := newHarness(t, 0)

	status, _ := h.call(t, http.MethodGet, "/api/cep/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.call(t, http.MethodGet, "/favicon.ico", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFinder_InputRejectsUnknownFields(t *testing.T) {
	h := newHarness(t, 0)

	status, _ := h.call(t, http.MethodPost, "/api/cep/input", map[string]string{"zip": "01001000"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFinder_SessionsAreIsolated(t *testing.T) {
	h := newHarness(t, 0)
	h.input(t, "01001000")

	other, err := cookiejar.New(nil)
	require.NoError(t, err)
	h2 := *h
	h2.client = &http.Client{Jar: other}

	_, resp := h2.call(t, http.MethodGet, "/api/cep/state", nil)
	assert.Empty(t, resp.State.PostalCode)
	assert.Equal(t, 2, h.sessions.Len())
}

func TestSessions_Capacity(t *testing.T) {
	var sizes []int
	sessions, err := finder.NewSessions(func(id string, inbox *notify.Buffer) *lookup.Coordinator {
		return lookup.New(nil, lookup.Options{Notifier: inbox})
	}, finder.SessionsConfig{Capacity: 2, OnResize: func(n int) { sizes = append(sizes, n) }})
	require.NoError(t, err)

	ids := make([]string, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		sess := sessions.Resolve(w, httptest.NewRequest(http.MethodGet, "/", nil))
		ids = append(ids, sess.ID)
	}

	assert.Equal(t, 2, sessions.Len())
	assert.Equal(t, []int{1, 2, 2}, sizes)

	// The oldest session was evicted; its id gets a fresh coordinator.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionCookieName, Value: ids[0]})
	w := httptest.NewRecorder()
	sess := sessions.Resolve(w, req)

	assert.Equal(t, ids[0], sess.ID)
	assert.Empty(t, w.Result().Cookies(), "a well-formed id keeps its cookie")
}

func TestSessions_ReplacesMalformedID(t *testing.T) {
	sessions, err := finder.NewSessions(func(id string, inbox *notify.Buffer) *lookup.Coordinator {
		return lookup.New(nil, lookup.Options{Notifier: inbox})
	}, finder.SessionsConfig{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionCookieName, Value: "not-a-uuid"})
	w := httptest.NewRecorder()
	sess := sessions.Resolve(w, req)

	assert.NotEqual(t, "not-a-uuid", sess.ID)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, sess.ID, w.Result().Cookies()[0].Value)
}
