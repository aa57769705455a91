package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING
// ══════════════════════════════════════════════════════════════════════════════

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads the body into dst and validates it. An empty body
// decodes to the zero value when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return shared.WrapError("http", "Decode", shared.ErrInvalidFormat, "request body must be a JSON object", err)
		}
	}
	return validate.Struct(dst)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// validation -> 400, unauthenticated -> 401, forbidden -> 403,
// not found -> 404, conflict -> 409, anything else -> 500.
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		writeAPIError(w, r, http.StatusBadRequest, &APIError{
			Code:    "validation_error",
			Message: "request validation failed",
			Fields:  fields,
		})
		return
	}

	switch {
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "validation_error", domainMessage(err))
	case shared.IsUnauthorized(err):
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", domainMessage(err))
	case shared.IsForbidden(err):
		writeJSONError(w, r, http.StatusForbidden, "forbidden", domainMessage(err))
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", domainMessage(err))
	case shared.IsConflict(err):
		writeJSONError(w, r, http.StatusConflict, "conflict", domainMessage(err))
	default:
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// domainMessage returns the outermost domain message, never the wrapped
// storage error.
func domainMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "request failed"
}
