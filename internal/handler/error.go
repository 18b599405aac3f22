package handler

import (
	"net/http"

	"github.com/dukerupert/cepfinder/internal/domain"
	"github.com/dukerupert/cepfinder/internal/middleware"
)

// ErrorResponse writes err to the client with the status its code maps to.
// JSON clients get {"error":{"code","message"}}; others get plain text.
// Internal errors are logged with details and shown with a generic message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := domain.HTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	if status >= 500 {
		logger.Error("request failed", "error", err, "code", code, "op", domain.ErrorOp(err))
	} else {
		logger.Debug("request rejected", "error", err, "code", code)
	}

	writeError(w, r, status, map[string]any{
		"code":    code,
		"message": domain.ErrorMessage(err),
	})
}

// NotFoundResponse is a convenience wrapper for 404 errors.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "Recurso não encontrado"))
}

// InternalErrorResponse logs err and returns a generic 500.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "unexpected error"))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body map[string]any) {
	if middleware.AcceptsJSON(r) {
		JSON(w, status, map[string]any{"error": body})
		return
	}
	http.Error(w, body["message"].(string), status)
}
