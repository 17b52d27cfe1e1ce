package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/requestcontext"
)

// Validatable request types check themselves after decoding.
type Validatable interface {
	Validate() error
}

// Sanitizable request types trim or normalize fields before validation.
type Sanitizable interface {
	Sanitize()
}

// Decode reads exactly one JSON value from r's body into a new T. Unknown
// fields and trailing data are rejected. Failures are bad_request domain
// errors whose message names the problem without echoing body content, except
// an oversized body, which is returned as the *http.MaxBytesError itself.
func Decode[T any](r *http.Request) (*T, error) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var v T
	if err := dec.Decode(&v); err != nil {
		return nil, classifyDecodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body must contain a single JSON object")
	}
	return &v, nil
}

func classifyDecodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxErr):
		return maxErr
	case errors.Is(err, io.EOF):
		return dErrors.New(dErrors.CodeBadRequest, "request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return dErrors.New(dErrors.CodeBadRequest, "request body is truncated")
	case errors.As(err, &syntaxErr):
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("field %q must be %s", typeErr.Field, typeErr.Type))
		}
		return dErrors.New(dErrors.CodeBadRequest, "request body has the wrong shape")
	default:
		// DisallowUnknownFields reports `json: unknown field "x"`, which names a
		// field from our own schema space and is safe to return.
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body: "+err.Error())
	}
}

// Prepare sanitizes then validates req. Plain validation errors become
// validation_failed; errors that already carry a domain code keep it.
func Prepare(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	v, ok := req.(Validatable)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil || dErrors.CodeOf(err) != "" {
		return err
	}
	return dErrors.New(dErrors.CodeValidation, err.Error())
}

// DecodeAndPrepare decodes and prepares a T, writing the error response and
// returning false on failure.
//
//	req, ok := httputil.DecodeAndPrepare[models.CalculationRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	ctx := r.Context()
	req, err := Decode[T](r)
	if err == nil {
		err = Prepare(req)
	}
	if err == nil {
		return req, true
	}

	logger.WarnContext(ctx, "rejected request body",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
			Code:  "PAYLOAD_TOO_LARGE",
		})
		return nil, false
	}
	WriteError(w, err)
	return nil, false
}
