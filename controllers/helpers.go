package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"wedmatch_server/logger"
	"wedmatch_server/models"
	"wedmatch_server/services"
)

const defaultTimeout = 5 * time.Second

var validate = validator.New(validator.WithRequiredStructEnabled())

// Base carries what every controller needs.
type Base struct {
	Log     *logger.Logger
	Timeout time.Duration
}

func (b Base) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(r.Context(), timeout)
}

// WriteJSONResponse writes v as JSON with the given status.
func WriteJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StatusFor maps engine error kinds onto HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (b Base) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		b.Log.Error("❌ request failed", "op", op, "error", err)
		msg = "internal error"
	} else {
		b.Log.Debug("⚠️ request rejected", "op", op, "status", status, "error", err)
	}
	WriteJSONResponse(w, status, errorResponse{Error: msg, Kind: services.Kind(err)})
}

func badRequest(w http.ResponseWriter, format string, args ...interface{}) {
	WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf(format, args...), Kind: "validation"})
}

// decode reads a JSON body into dst and runs struct validation.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid request payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			badRequest(w, "invalid field %s (%s)", verrs[0].Field(), verrs[0].Tag())
			return false
		}
		badRequest(w, "invalid request payload")
		return false
	}
	return true
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || v <= 0 {
		badRequest(w, "invalid %s", name)
		return 0, false
	}
	return v, true
}

func queryInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || v <= 0 {
		badRequest(w, "invalid %s", name)
		return 0, false
	}
	return v, true
}

// limit reads ?limit=; the services clamp it into range.
func limit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return models.DefaultListLimit
	}
	return n
}

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeLookupError reports a missing record on a read as 404 rather than a conflict.
func (b Base) writeLookupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, services.ErrConflict) {
		WriteJSONResponse(w, http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "not_found"})
		return
	}
	b.writeError(w, op, err)
}
