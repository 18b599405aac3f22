// Package middleware holds the HTTP middleware of the finder server:
// request IDs, request-scoped logging, metrics, rate limiting and limits.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/cepfinder/internal/domain"
)

// respondWithError rejects a request before it reaches a handler, in the
// same envelope handler.ErrorResponse uses.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := domain.HTTPStatus(code)
	message := domain.ErrorMessage(err)

	GetLogger(r.Context()).Info("request rejected",
		"error", err,
		"code", code,
		"status", status,
	)

	if !AcceptsJSON(r) {
		http.Error(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
}

// AcceptsJSON reports whether the client should get a JSON error body:
// it asked for JSON, sent JSON, or called the API. Both error envelopes
// (here and in package handler) decide with it.
func AcceptsJSON(r *http.Request) bool {
	for _, h := range []string{"Accept", "Content-Type"} {
		if strings.Contains(r.Header.Get(h), "application/json") {
			return true
		}
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
