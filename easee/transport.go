package easee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Header set by the AWS API gateway in front of the Easee API when it rejects
// a request, regardless of the status code it reports.
const (
	amazonErrorTypeHeader = "X-Amzn-Errortype"
	amazonForbiddenError  = "ForbiddenException"
)

// Transport performs HTTP requests against the remote API. Implementations
// return a *TransportError for non-2xx responses and connection failures.
type Transport interface {
	Get(ctx context.Context, target string, query url.Values, bearer string) (*Response, error)
	Post(ctx context.Context, target string, body interface{}, query url.Values, bearer string) (*Response, error)
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsJSON reports whether the response declares a JSON media type.
func (r *Response) IsJSON() bool {
	if r == nil || r.Header == nil {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return strings.HasSuffix(mediaType, "json")
}

// Decode unmarshals a JSON response body into v.
func (r *Response) Decode(v interface{}) error {
	if !r.IsJSON() {
		return fmt.Errorf("response is not json (content type %q)", r.Header.Get("Content-Type"))
	}
	return json.Unmarshal(r.Body, v)
}

// ErrorCode returns the vendor error code of a JSON error body.
func (r *Response) ErrorCode() (int, bool) {
	var m struct {
		ErrorCode *int `json:"errorCode"`
	}
	if err := r.Decode(&m); err != nil || m.ErrorCode == nil {
		return 0, false
	}
	return *m.ErrorCode, true
}

type TransportError struct {
	StatusCode int
	Response   *Response
	// Forbidden is set when the gateway signalled an access denial.
	Forbidden bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Response == nil {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	return fmt.Sprintf("request returned status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPTransport is the default Transport on top of net/http.
type HTTPTransport struct {
	Client *http.Client
}

func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &HTTPTransport{Client: client}
}

func (t *HTTPTransport) Get(ctx context.Context, target string, query url.Values, bearer string) (*Response, error) {
	return t.do(ctx, http.MethodGet, target, nil, query, bearer)
}

func (t *HTTPTransport) Post(ctx context.Context, target string, body interface{}, query url.Values, bearer string) (*Response, error) {
	return t.do(ctx, http.MethodPost, target, body, query, bearer)
}

func (t *HTTPTransport) do(ctx context.Context, method, target string, body interface{}, query url.Values, bearer string) (*Response, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Err: fmt.Errorf("could not encode request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("could not read response body: %w", err)}
	}

	res := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}
	if resp.Header.Get(amazonErrorTypeHeader) == amazonForbiddenError {
		return nil, &TransportError{StatusCode: resp.StatusCode, Response: res, Forbidden: true, Err: errors.New(amazonForbiddenError)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Response: res}
	}
	return res, nil
}
