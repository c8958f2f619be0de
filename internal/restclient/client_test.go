package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(base string) Config {
	return Config{
		BaseURL:       base,
		Username:      "admin",
		AppSecret:     "s3cret",
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		Timeout:       time.Second,
	}
}

func TestNewRejectsMissingConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing base url", Config{Username: "admin", AppSecret: "x"}},
		{"missing scheme", Config{BaseURL: "example.com", Username: "admin", AppSecret: "x"}},
		{"missing username", Config{BaseURL: "https://example.com", AppSecret: "x"}},
		{"missing secret", Config{BaseURL: "https://example.com", Username: "admin"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestGetSendsBasicAuthAndPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/pages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("slug"); got != "home" {
			t.Errorf("unexpected slug param %q", got)
		}
		// admin:s3cret
		if got := r.Header.Get("Authorization"); got != "Basic YWRtaW46czNjcmV0" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{{"id": 1}})
	}))
	defer srv.Close()

	cli, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	var out []struct {
		ID int `json:"id"`
	}
	params := url.Values{"slug": {"home"}}
	if err := cli.Get(context.Background(), "/wp/v2/pages", params, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("unexpected payload %+v", out)
	}
}

func TestQueryRoutingMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("rest_route"); got != "/wp/v2/pages" {
			t.Errorf("unexpected rest_route %q", got)
		}
		if got := q.Get("per_page"); got != "100" {
			t.Errorf("unexpected per_page %q", got)
		}
		json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.QueryRouting = true
	cli, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	var out []any
	if err := cli.Get(context.Background(), "/wp/v2/pages", url.Values{"per_page": {"100"}}, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestServerErrorRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"code":"internal_error","message":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryAttempts = 2
	cli, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = cli.Post(context.Background(), "/wp/v2/pages", map[string]string{"title": "x"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Kind != KindServer || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if apiErr.Code != "internal_error" || apiErr.Message != "boom" {
		t.Fatalf("remote error not propagated: %+v", apiErr)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

func TestServerErrorRecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"id": 7})
	}))
	defer srv.Close()

	cli, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	var out struct {
		ID int `json:"id"`
	}
	if err := cli.Post(context.Background(), "/wp/v2/pages", map[string]string{"title": "x"}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if out.ID != 7 {
		t.Fatalf("unexpected id %d", out.ID)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"code": "rest_invalid_param", "message": "bad slug"})
	}))
	defer srv.Close()

	cli, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = cli.Get(context.Background(), "/wp/v2/pages", nil, &[]any{})
	if !IsClientError(err) {
		t.Fatalf("expected client error, got %v", err)
	}
	var apiErr *APIError
	errors.As(err, &apiErr)
	if apiErr.Code != "rest_invalid_param" || apiErr.Message != "bad slug" {
		t.Fatalf("remote error not propagated: %+v", apiErr)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", got)
	}
}

func TestMalformedResponseIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	cli, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	var out map[string]any
	err = cli.Get(context.Background(), "/wp/v2/pages", nil, &out)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("decode failure should not be an APIError: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", got)
	}
}

func TestTransportErrorSurfacesAsTransportKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	cfg := testConfig(base)
	cfg.RetryAttempts = 1
	cli, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = cli.Delete(context.Background(), "/wp/v2/pages/1", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestDeleteSendsForceParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if got := r.URL.Query().Get("force"); got != "true" {
			t.Errorf("unexpected force param %q", got)
		}
		json.NewEncoder(w).Encode(map[string]bool{"deleted": true})
	}))
	defer srv.Close()

	cli, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := cli.Delete(context.Background(), "/wp/v2/pages/5", url.Values{"force": {"true"}}); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
