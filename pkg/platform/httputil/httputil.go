package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	id "creditgate/pkg/domain"
	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/requestcontext"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// Only the domain error message is written; wrapped causes never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		msg := domainErr.Message
		if msg == "" {
			msg = http.StatusText(DomainCodeToHTTPStatus(domainErr.Code))
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error: msg,
			Code:  DomainCodeToHTTPCode(domainErr.Code),
		})
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeFCRAViolation:
		return http.StatusForbidden
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeInternal, dErrors.CodeServiceError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "code" field of the JSON body.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "NOT_FOUND"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "BAD_REQUEST"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "VALIDATION_ERROR"
	case dErrors.CodeConflict:
		return "CONFLICT"
	case dErrors.CodeUnauthorized:
		return "UNAUTHORIZED"
	case dErrors.CodeForbidden:
		return "FORBIDDEN"
	case dErrors.CodeFCRAViolation:
		return "FCRA_VIOLATION"
	case dErrors.CodeServiceError:
		return "SERVICE_ERROR"
	case dErrors.CodeTimeout:
		return "TIMEOUT"
	default:
		return "INTERNAL_ERROR"
	}
}

// RequireActor extracts the authenticated actor from context.
// A missing actor behind RequireAuth is a wiring bug, so it maps to an internal error.
func RequireActor(ctx context.Context, logger *slog.Logger, requestID string) (id.Actor, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		if logger != nil {
			logger.ErrorContext(ctx, "actor missing from context despite auth middleware",
				"request_id", requestID)
		}
		return id.Actor{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return actor, nil
}
