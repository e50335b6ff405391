package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/domain"
	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/goliatone/go-reservation-cache/store"
)

// badRequest marks input errors detected outside the validator.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

func (a *API) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondRead writes a cached read with a weak ETag fingerprinting the
// payload. A matching If-None-Match gets 304 with no body.
func (a *API) respondRead(w http.ResponseWriter, r *http.Request, data any) {
	etag := `W/"` + keys.Digest(data) + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	a.respondJSON(w, http.StatusOK, data)
}

func (a *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		message = formatValidationErrors(verrs)
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = http.StatusText(status)
	}

	a.respondJSON(w, status, map[string]any{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

func statusFor(err error) int {
	var (
		br    *badRequest
		verrs validator.ValidationErrors
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &br), errors.As(err, &verrs), errors.Is(err, keys.ErrInvalidPattern):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func formatValidationErrors(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required", "required_without":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must match %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func (a *API) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequestf("invalid request body: %v", err)
	}
	return a.validate.Struct(dst)
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequestf("invalid %s %q", name, raw)
	}
	return id, nil
}

func dateQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}, badRequestf("date is required")
	}
	day, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequestf("date must match %s", domain.DateLayout)
	}
	return day, nil
}
