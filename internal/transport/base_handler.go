package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// SchemaValidator checks a raw request body against a named API schema.
type SchemaValidator interface {
	ValidateBody(schema string, body []byte) error
}

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger  *slog.Logger
	Schemas SchemaValidator
}

// NewBaseHandler creates a base handler with logger. schemas may be nil, in
// which case bodies are only decoded.
func NewBaseHandler(lg *slog.Logger, schemas SchemaValidator) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, Schemas: schemas}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteData wraps a read result as {"data": ...}.
func (h *BaseHandler) WriteData(w http.ResponseWriter, status int, data interface{}) {
	h.WriteJSON(w, status, map[string]interface{}{"data": data})
}

// WriteMutation is the envelope of every write: the changed record plus the
// cache keys the client should drop.
func (h *BaseHandler) WriteMutation(w http.ResponseWriter, status int, data interface{}, invalidate []string) {
	if invalidate == nil {
		invalidate = []string{}
	}
	h.WriteJSON(w, status, map[string]interface{}{
		"data":       data,
		"invalidate": invalidate,
	})
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"code":    status,
		"message": message,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// WriteAppError renders err in the {"error": {...}} envelope. Anything that
// is not an *internal.AppError is reported as an internal error.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError("Internal server error", err)
	}
	status, body := appErr.ToHTTPResponse()

	lg := logger.From(r.Context())
	if status >= http.StatusInternalServerError {
		lg.ErrorContext(r.Context(), "request failed",
			"status", status,
			"code", appErr.Code,
			"error", appErr.GetDetailedMessage())
	} else {
		lg.WarnContext(r.Context(), "request rejected",
			"status", status,
			"code", appErr.Code,
			"message", appErr.Message)
	}
	h.WriteJSON(w, status, body)
}

// DecodeBody reads the request body, validates it against schema and decodes
// it into dst.
func (h *BaseHandler) DecodeBody(r *http.Request, schema string, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return internal.NewValidationError("Could not read request body", internal.ErrCodeInvalidBody).WithCause(err)
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if h.Schemas != nil && schema != "" {
		if err := h.Schemas.ValidateBody(schema, body); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return internal.NewValidationError("Invalid request body", internal.ErrCodeInvalidBody).WithCause(err)
	}
	return nil
}

// PathID returns a uuid path parameter.
func (h *BaseHandler) PathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		return "", internal.NewValidationFieldError(name, name+" must be a valid id", internal.ErrCodeInvalidID)
	}
	return id, nil
}

// Pagination reads limit and offset, ignoring malformed values.
func (h *BaseHandler) Pagination(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= maxLimit {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
