package easee

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
)

var (
	ErrRequestFailed      = errors.New("request failed")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrForbidden          = errors.New("access denied to charger")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMalformedTokenPair = errors.New("cached token pair is malformed")
)

// Error codes the login endpoint returns for a bad user name or password.
var invalidCredentialsErrorCodes = []int{100, 727}

// RequestError is returned by every failed API call. Use errors.Is with one of
// the Err* sentinels to find out which kind of failure occurred.
type RequestError struct {
	Message string
	// Response is the original response, nil on connection failures.
	Response *Response

	kind  error
	cause error
}

func (e *RequestError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("easee: %s: %s", e.Message, e.cause.Error())
	}
	return "easee: " + e.Message
}

// Unwrap exposes the kind sentinel and the underlying transport error. A rate
// limit error also unwraps to ErrRequestFailed.
func (e *RequestError) Unwrap() []error {
	errs := []error{e.kind}
	if e.kind == ErrRateLimitExceeded {
		errs = append(errs, ErrRequestFailed)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// StatusCode returns the HTTP status of the failed response or 0.
func (e *RequestError) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Retryable reports whether the caller may retry after backing off.
func (e *RequestError) Retryable() bool {
	return e.kind == ErrRateLimitExceeded
}

// IsRetryable reports whether err is a RequestError that may be retried.
func IsRetryable(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Retryable()
}

func requestFailed(message string, resp *Response, cause error) *RequestError {
	return &RequestError{Message: message, Response: resp, kind: ErrRequestFailed, cause: cause}
}

// classify maps a transport outcome onto the error taxonomy. Login failures
// additionally recognize the bad credentials error codes.
func classify(err error, login bool) error {
	if err == nil {
		return nil
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		return requestFailed("request could not be sent", nil, err)
	}
	if transportErr.Response == nil {
		return requestFailed("request could not be sent", nil, transportErr.Err)
	}

	resp := transportErr.Response
	switch {
	case transportErr.Forbidden || transportErr.StatusCode == http.StatusForbidden:
		return &RequestError{Message: "Access denied to charger", Response: resp, kind: ErrForbidden}
	case transportErr.StatusCode == http.StatusTooManyRequests:
		return &RequestError{Message: "Rate limit exceeded", Response: resp, kind: ErrRateLimitExceeded}
	case login && transportErr.StatusCode == http.StatusBadRequest && hasInvalidCredentialsCode(resp):
		return &RequestError{Message: "Invalid username or password", Response: resp, kind: ErrInvalidCredentials}
	}
	return requestFailed(fmt.Sprintf("Request returned status %d", transportErr.StatusCode), resp, nil)
}

func hasInvalidCredentialsCode(resp *Response) bool {
	code, ok := resp.ErrorCode()
	return ok && slices.Contains(invalidCredentialsErrorCodes, code)
}
