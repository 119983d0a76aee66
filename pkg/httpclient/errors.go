package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/grocify/pkg/errors"
)

// errorEnvelope mirrors httputil.Response for decoding error bodies.
type errorEnvelope struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// turns it into an AppError. Bodies that are not the standard envelope become
// a plain error carrying status and body.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		return mapRemoteError(resp.StatusCode, env.Error.Code, env.Error.Message, env.Error.Fields)
	}

	return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, string(body))
}

func mapRemoteError(status int, code, message string, fields map[string]string) error {
	if len(fields) > 0 {
		message = fmt.Sprintf("%s %v", message, fields)
	}

	var sentinel error
	switch {
	case code == "EMPTY_CART":
		sentinel = apperrors.ErrEmptyCart
	case code == "INVALID_QUANTITY":
		sentinel = apperrors.ErrInvalidQuantity
	case code == "PERSISTENCE_ERROR":
		sentinel = apperrors.ErrPersistence
	case code == "REPORT_GENERATION_ERROR":
		sentinel = apperrors.ErrReportGeneration
	case status == http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case status == http.StatusConflict:
		sentinel = apperrors.ErrConflict
	case status == http.StatusServiceUnavailable:
		sentinel = apperrors.ErrServiceUnavail
	case IsClientError(status):
		sentinel = apperrors.ErrInvalidInput
	default:
		sentinel = apperrors.ErrInternal
	}

	return &apperrors.AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     sentinel,
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
