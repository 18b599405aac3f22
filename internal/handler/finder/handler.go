package finder

import (
	"context"
	"net/http"

	"github.com/dukerupert/cepfinder/internal/handler"
	"github.com/dukerupert/cepfinder/internal/lookup"
	"github.com/dukerupert/cepfinder/internal/middleware"
	"github.com/dukerupert/cepfinder/internal/notify"
)

// StateView is the state as the page renders it.
type StateView struct {
	lookup.State
	ServiceStatusText  string `json:"service_status_text"`
	ServiceStatusClass string `json:"service_status_class"`
	ResultCardClass    string `json:"result_card_class"`
}

func newStateView(s lookup.State) StateView {
	return StateView{
		State:              s,
		ServiceStatusText:  s.ServiceStatusText(),
		ServiceStatusClass: s.ServiceStatusClass(),
		ResultCardClass:    s.ResultCardClass(),
	}
}

// Response is the body of every finder API call.
type Response struct {
	Outcome       *lookup.Outcome       `json:"outcome,omitempty"`
	State         StateView             `json:"state"`
	Notifications []notify.Notification `json:"notifications"`
}

// PageData feeds the finder page template.
type PageData struct {
	State         lookup.State
	Notifications []notify.Notification
}

// InputRequest carries the raw postal code field value.
type InputRequest struct {
	Value string `json:"value"`
}

// Handler serves the finder page and its JSON API.
type Handler struct {
	sessions *Sessions
	renderer *handler.Renderer
}

// NewHandler creates a finder handler.
func NewHandler(sessions *Sessions, renderer *handler.Renderer) *Handler {
	return &Handler{sessions: sessions, renderer: renderer}
}

// session resolves the caller's session and returns a context that carries
// the session id for notifiers and logs.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, context.Context) {
	sess := h.sessions.Resolve(w, r)

	ctx := notify.WithSessionID(r.Context(), sess.ID)
	ctx = middleware.WithLogger(ctx, middleware.GetLogger(ctx).With("session_id", sess.ID))
	return sess, ctx
}

func (h *Handler) respond(w http.ResponseWriter, sess *Session, outcome *lookup.Outcome) {
	handler.JSON(w, http.StatusOK, Response{
		Outcome:       outcome,
		State:         newStateView(sess.Coordinator.State()),
		Notifications: sess.Inbox.Drain(),
	})
}

// Page handles GET /
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	sess, ctx := h.session(w, r)
	sess.Coordinator.Activate(ctx)

	h.renderer.RenderHTTP(w, r, "finder", PageData{
		State:         sess.Coordinator.State(),
		Notifications: sess.Inbox.Drain(),
	})
}

// State handles GET /api/cep/state. The first call of a session runs the
// service status probe.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	sess, ctx := h.session(w, r)
	sess.Coordinator.Activate(ctx)
	h.respond(w, sess, nil)
}

// Input handles POST /api/cep/input
func (h *Handler) Input(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	sess, _ := h.session(w, r)
	sess.Coordinator.Input(req.Value)
	h.respond(w, sess, nil)
}

// Search handles POST /api/cep/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	sess, ctx := h.session(w, r)
	outcome := sess.Coordinator.Search(ctx)
	h.respond(w, sess, &outcome)
}

// Sync handles POST /api/cep/sync
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	sess, ctx := h.session(w, r)
	outcome := sess.Coordinator.Sync(ctx)
	h.respond(w, sess, &outcome)
}

// Clear handles POST /api/cep/clear
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	sess.Coordinator.Clear()
	h.respond(w, sess, nil)
}

// Status handles POST /api/cep/status, re-running the service status probe.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	sess, ctx := h.session(w, r)
	sess.Coordinator.CheckStatus(ctx)
	h.respond(w, sess, nil)
}
