// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"errors"
	"net/http"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/pkg/logger"
	"github.com/go-chi/render"
)

// Envelope is the success body: {success:true, data, count?}.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Count   *int `json:"count,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the failure body: {success:false, error:{code,message,details?}}.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`

	status int
}

func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: true, Data: data})
}

func OK(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, r, http.StatusOK, data)
}

func Created(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, r, http.StatusCreated, data)
}

// List answers with the items and their count. A nil slice is sent as [].
func List[T any](w http.ResponseWriter, r *http.Request, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Envelope{Success: true, Data: items, Count: &n})
}

// Message answers {success:true, data:{message}}.
func Message(w http.ResponseWriter, r *http.Request, msg string) {
	OK(w, r, map[string]string{"message": msg})
}

// Error renders err. Anything that is not a *domain.Error is logged and sent as SERVER_ERROR.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.ErrorContext(r.Context(), "unhandled error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		de = domain.ErrServer
	} else if de.Status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "code", de.Code, "error", err)
	}
	_ = render.Render(w, r, &ErrorResponse{
		Error:  ErrorBody{Code: de.Code, Message: de.Message, Details: de.Details},
		status: de.Status,
	})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, domain.ErrNotFound.WithMessage("Route not found: "+r.Method+" "+r.URL.Path))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, r, domain.ErrMethodNotAllowed)
}
