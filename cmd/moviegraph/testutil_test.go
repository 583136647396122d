package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockServer builds an httptest.Server that checks the incoming request and
// answers with a canned response.
type mockServer struct {
	t       *testing.T
	method  string
	path    string
	query   map[string]string
	handler http.HandlerFunc
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	return &mockServer{t: t, query: make(map[string]string)}
}

// ExpectPath checks the request path.
func (m *mockServer) ExpectPath(path string) *mockServer {
	m.path = path
	return m
}

func (m *mockServer) ExpectGET() *mockServer    { return m.expectMethod(http.MethodGet) }
func (m *mockServer) ExpectPOST() *mockServer   { return m.expectMethod(http.MethodPost) }
func (m *mockServer) ExpectDELETE() *mockServer { return m.expectMethod(http.MethodDelete) }

func (m *mockServer) expectMethod(method string) *mockServer {
	m.method = method
	return m
}

// ExpectQuery checks one query parameter. An empty value asserts the
// parameter is absent.
func (m *mockServer) ExpectQuery(key, value string) *mockServer {
	m.query[key] = value
	return m
}

// Handler answers with h after the request checks.
func (m *mockServer) Handler(h func(w http.ResponseWriter, r *http.Request)) *mockServer {
	m.handler = h
	return m
}

// RespondJSON answers 200 with v encoded as JSON.
func (m *mockServer) RespondJSON(v any) *mockServer {
	return m.Handler(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(m.t, w, v)
	})
}

// RespondStatus answers with an empty body.
func (m *mockServer) RespondStatus(code int) *mockServer {
	return m.Handler(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

// RespondAPIError answers with the daemon's {"error","code"} body.
func (m *mockServer) RespondAPIError(status int, code, message string) *mockServer {
	return m.Handler(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
	})
}

// RespondText answers with a non-JSON body, as a proxy in front of the
// daemon would.
func (m *mockServer) RespondText(status int, body string) *mockServer {
	return m.Handler(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// Build starts the server. Close it with defer srv.Close().
func (m *mockServer) Build() *httptest.Server {
	m.t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.path != "" {
			assert.Equal(m.t, m.path, r.URL.Path, "unexpected request path")
		}
		if m.method != "" {
			assert.Equal(m.t, m.method, r.Method, "unexpected request method")
		}
		q := r.URL.Query()
		for key, want := range m.query {
			assert.Equal(m.t, want, q.Get(key), "query parameter %q", key)
		}
		if m.handler != nil {
			m.handler(w, r)
		}
	}))
}

func respondJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("failed to encode JSON response: %v", err)
	}
}

// withServerURL points the commands at url until the returned func runs.
func withServerURL(url string) func() {
	old := serverURL
	serverURL = url
	return func() { serverURL = old }
}
