package easee

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPTransport_headers(t *testing.T) {
	f := newFakeAPI(t)
	var mutex sync.Mutex
	var lastHeader http.Header
	header := func() http.Header {
		mutex.Lock()
		defer mutex.Unlock()
		return lastHeader
	}
	f.Router.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		lastHeader = r.Header.Clone()
		mutex.Unlock()
		sendJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})
	transport := NewHTTPTransport(nil)

	resp, err := transport.Get(context.Background(), f.BaseURL()+"/echo", url.Values{"a": {"1 2"}}, "T1")
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsJSON())
	assert.Equal(t, "application/json", header().Get("Accept"))
	assert.Equal(t, "", header().Get("Content-Type"))
	assert.Equal(t, "Bearer T1", header().Get("Authorization"))
	assert.Equal(t, "a=1+2", f.Calls("/api/echo")[0].Query)

	_, err = transport.Post(context.Background(), f.BaseURL()+"/echo", map[string]string{"k": "v"}, nil, "")
	assert.Nil(t, err)
	assert.Equal(t, "application/json", header().Get("Content-Type"))
	assert.Equal(t, "", header().Get("Authorization"))
	assert.JSONEq(t, `{"k":"v"}`, f.Calls("/api/echo")[1].Body)
}

func TestHTTPTransport_errorStatus(t *testing.T) {
	f := newFakeAPI(t)
	f.Router.HandleFunc("/api/fail", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusBadGateway, map[string]int{"errorCode": 5})
	})
	transport := NewHTTPTransport(nil)

	_, err := transport.Get(context.Background(), f.BaseURL()+"/fail", nil, "")
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.False(t, transportErr.Forbidden)
	code, ok := transportErr.Response.ErrorCode()
	assert.True(t, ok)
	assert.Equal(t, 5, code)
}

func TestResponse_isJSON(t *testing.T) {
	assert.True(t, (&Response{Header: http.Header{"Content-Type": {"application/json; charset=utf-8"}}}).IsJSON())
	assert.True(t, (&Response{Header: http.Header{"Content-Type": {"application/problem+json"}}}).IsJSON())
	assert.False(t, (&Response{Header: http.Header{"Content-Type": {"text/html"}}}).IsJSON())
	assert.False(t, (&Response{}).IsJSON())

	var m map[string]string
	err := (&Response{Header: http.Header{"Content-Type": {"text/plain"}}, Body: []byte(`{}`)}).Decode(&m)
	assert.NotNil(t, err)
	_, ok := (&Response{Header: http.Header{"Content-Type": {"application/json"}}, Body: []byte(`{"title":"x"}`)}).ErrorCode()
	assert.False(t, ok)
}
