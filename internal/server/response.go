package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matsen/pubfrac/internal/registry"
)

// APIError is the body of every error response.
type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Error codes returned in APIError.Code.
const (
	CodeBadRequest  = "bad_request"
	CodeSchema      = "schema_error"
	CodeEmptyInput  = "empty_input"
	CodeUnavailable = "source_unavailable"
	CodeInternal    = "internal"
)

// badRequest marks errors caused by query parameters.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

// RespondError writes an error envelope with the given status.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body := APIError{Message: msg, Code: code}
	var schemaErr *registry.SchemaError
	if errors.As(err, &schemaErr) {
		body.Missing = schemaErr.Missing
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}

// RespondOK writes payload as JSON with status 200.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondFailure maps a pipeline error to its HTTP status.
func respondFailure(c *gin.Context, err error) {
	status, code := statusFor(err)
	RespondError(c, status, code, err)
}

func statusFor(err error) (int, string) {
	var (
		br         badRequest
		schemaErr  *registry.SchemaError
		emptyInput *registry.EmptyInputError
	)
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, CodeBadRequest
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity, CodeSchema
	case errors.As(err, &emptyInput):
		return http.StatusConflict, CodeEmptyInput
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeUnavailable
	}
	return http.StatusInternalServerError, CodeInternal
}
