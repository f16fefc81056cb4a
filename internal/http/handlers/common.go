// Package handlers maps the REST surface onto the services.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// decodeJSON fills v from the body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		return domain.ErrInvalidJSON
	}
	return nil
}

func idParam(r *http.Request) string { return chi.URLParam(r, "id") }

func actorID(r *http.Request) string {
	if u := middleware.CurrentUser(r); u != nil {
		return u.ID
	}
	return ""
}

// boolQuery parses an optional boolean query value. Unparseable values count as unset.
func boolQuery(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
