package easee

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// do runs an authenticated request. A 401 triggers one token refresh and one
// retry; the outcome of the retry is final.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*Response, error) {
	resp, err := c.attempt(ctx, method, path, query, body)
	if !isUnauthorized(err) {
		return resp, classify(err, false)
	}

	c.logger.Printf("easee: %s %s unauthorized, refreshing access token", method, path)
	if err := c.auth.ForceRefresh(ctx); err != nil {
		return nil, err
	}

	resp, err = c.attempt(ctx, method, path, query, body)
	return resp, classify(err, false)
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, body interface{}) (*Response, error) {
	token, err := c.auth.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	target := c.baseURL + path
	if method == http.MethodGet {
		return c.transport.Get(ctx, target, query, token)
	}
	return c.transport.Post(ctx, target, body, query, token)
}

func isUnauthorized(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) &&
		!transportErr.Forbidden &&
		transportErr.StatusCode == http.StatusUnauthorized
}
