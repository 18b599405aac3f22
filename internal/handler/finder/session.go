// Package finder hosts the CEP finder over HTTP. Each browser session owns
// one lookup coordinator and one notification buffer; the buffer is drained
// into every response.
package finder

import (
	"net/http"

	"github.com/dukerupert/cepfinder/internal/cookie"
	"github.com/dukerupert/cepfinder/internal/lookup"
	"github.com/dukerupert/cepfinder/internal/notify"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the sessions held in memory.
const DefaultCapacity = 1024

// Session is one browser's finder.
type Session struct {
	ID          string
	Coordinator *lookup.Coordinator
	Inbox       *notify.Buffer
}

// CoordinatorFactory builds the coordinator for a new session. Notifications
// the coordinator emits must reach inbox.
type CoordinatorFactory func(sessionID string, inbox *notify.Buffer) *lookup.Coordinator

// Sessions is an LRU-bounded registry of sessions keyed by the session cookie.
// When full, the least recently used session is dropped.
type Sessions struct {
	cache    *lru.Cache[string, *Session]
	factory  CoordinatorFactory
	cookies  *cookie.Config
	onResize func(n int)
}

// SessionsConfig configures a Sessions registry.
type SessionsConfig struct {
	Capacity int
	Cookies  *cookie.Config

	// OnResize, when set, is called with the session count after a session
	// is created.
	OnResize func(n int)
}

// NewSessions creates a session registry.
func NewSessions(factory CoordinatorFactory, cfg SessionsConfig) (*Sessions, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Cookies == nil {
		cfg.Cookies = cookie.NewConfig("", false)
	}
	if cfg.OnResize == nil {
		cfg.OnResize = func(int) {}
	}

	cache, err := lru.New[string, *Session](cfg.Capacity)
	if err != nil {
		return nil, err
	}

	return &Sessions{
		cache:    cache,
		factory:  factory,
		cookies:  cfg.Cookies,
		onResize: cfg.OnResize,
	}, nil
}

// Resolve returns the session named by the request cookie, creating one
// (and setting the cookie) when there is none. A well-formed id that is no
// longer held gets a fresh session under the same id.
func (s *Sessions) Resolve(w http.ResponseWriter, r *http.Request) *Session {
	id := cookie.Get(r, cookie.SessionCookieName)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		s.cookies.SetSession(w, cookie.SessionCookieName, id, 0)
	}

	if sess, ok := s.cache.Get(id); ok {
		return sess
	}

	inbox := &notify.Buffer{}
	sess := &Session{
		ID:          id,
		Coordinator: s.factory(id, inbox),
		Inbox:       inbox,
	}

	if prev, loaded, _ := s.cache.PeekOrAdd(id, sess); loaded {
		return prev
	}
	s.onResize(s.cache.Len())
	return sess
}

// Len returns the number of sessions held.
func (s *Sessions) Len() int {
	return s.cache.Len()
}
