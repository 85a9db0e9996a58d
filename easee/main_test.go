package easee

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

type MockTime struct {
	CurTime time.Time
}

func (m *MockTime) UTCNow() time.Time {
	return m.CurTime
}

type recordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	Body          string
}

// fakeAPI is a stand-in for the Easee cloud. Tests register the routes they
// need on Router, all requests are recorded.
type fakeAPI struct {
	Router   *mux.Router
	Server   *httptest.Server
	mutex    sync.Mutex
	requests []recordedRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{
		Router: mux.NewRouter(),
	}
	f.Router.Use(f.recordMiddleware)
	f.Server = httptest.NewServer(f.Router)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *fakeAPI) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		f.mutex.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		f.mutex.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeAPI) Calls(path string) []recordedRequest {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var res []recordedRequest
	for _, r := range f.requests {
		if r.Path == path {
			res = append(res, r)
		}
	}
	return res
}

func (f *fakeAPI) BaseURL() string {
	return f.Server.URL + "/api"
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T) *BigCacheTokenStore {
	store, err := NewBigCacheTokenStore(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestClient(t *testing.T, f *fakeAPI, opts ...Option) (*Client, *BigCacheTokenStore) {
	store := newTestStore(t)
	opts = append([]Option{WithBaseURL(f.BaseURL()), WithTokenStore(store)}, opts...)
	client, err := NewClient("user@example.com", "secret", opts...)
	if err != nil {
		t.Fatal(err)
	}
	return client, store
}

func seedTokens(t *testing.T, store TokenStore, tokens string) {
	if err := store.Write(context.Background(), DefaultTokensCacheKey, []byte(tokens), 0); err != nil {
		t.Fatal(err)
	}
}

func cachedTokens(t *testing.T, store *BigCacheTokenStore) string {
	blob, ok := store.Get(DefaultTokensCacheKey)
	if !ok {
		t.Fatal("no tokens cached")
	}
	return string(blob)
}
