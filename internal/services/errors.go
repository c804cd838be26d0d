package services

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Sentinel errors shared by the platform clients
var (
	ErrAuth                  = errors.New("authentication failed")
	ErrHTTPStatus            = errors.New("unexpected HTTP status")
	ErrEmptyResult           = errors.New("no results returned")
	ErrNotFound              = errors.New("not found")
	ErrAutomationUnavailable = errors.New("browser automation unavailable")
	ErrPageTimeout           = errors.New("page loading timed out")
)

// HTTPError carries the status and body of a non-2xx response
type HTTPError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match ErrHTTPStatus
func (e *HTTPError) Unwrap() error {
	return ErrHTTPStatus
}

// CheckResponse returns an *HTTPError for non-2xx responses
func CheckResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &HTTPError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
}

// IsAutomationError reports whether err is a browser automation failure
// that callers may downgrade to a warning
func IsAutomationError(err error) bool {
	return errors.Is(err, ErrAutomationUnavailable) ||
		errors.Is(err, ErrPageTimeout) ||
		errors.Is(err, ErrEmptyResult)
}
