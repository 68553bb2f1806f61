package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/crmx/internal/shared"
	tu "github.com/desertthunder/crmx/internal/testing"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientDo(t *testing.T) {
	ctx := context.Background()

	t.Run("JSON Success", func(t *testing.T) {
		srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/items" {
				t.Errorf("expected path /api/items, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("page") != "2" {
				t.Errorf("expected page=2, got %s", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Write([]byte(`{"id":"1","name":"one"}`))
		})

		var out item
		err := New(Options{BaseURL: srv.URL}).Do(ctx, Request{Path: "/api/items", Query: url.Values{"page": {"2"}}}, &out)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Name != "one" {
			t.Errorf("expected name 'one', got %q", out.Name)
		}
	})

	t.Run("Empty Bodies Are Treated As Empty Objects", func(t *testing.T) {
		tests := []struct {
			name    string
			status  int
			ctype   string
			body    string
		}{
			{name: "No Content", status: http.StatusNoContent, ctype: "application/json"},
			{name: "Text Content Type", status: http.StatusOK, ctype: "text/plain", body: "deleted"},
			{name: "Blank JSON Body", status: http.StatusOK, ctype: "application/json", body: "   \n"},
			{name: "Zero Length", status: http.StatusOK, ctype: "application/json"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", tt.ctype)
					w.WriteHeader(tt.status)
					io.WriteString(w, tt.body)
				})

				out := item{ID: "untouched"}
				if err := New(Options{BaseURL: srv.URL}).Do(ctx, Request{Method: http.MethodDelete, Path: "/x"}, &out); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if out.ID != "untouched" {
					t.Errorf("expected output to be left alone, got %+v", out)
				}
			})
		}
	})

	t.Run("HTTP Errors", func(t *testing.T) {
		t.Run("With Server Message", func(t *testing.T) {
			srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"Contact not found"}`))
			})

			err := New(Options{BaseURL: srv.URL}).Do(ctx, Request{Path: "/x"}, nil)
			f, ok := AsFailure(err)
			if !ok {
				t.Fatalf("expected *Failure, got %T", err)
			}
			if f.Kind != KindHTTP || f.Status != http.StatusNotFound {
				t.Errorf("expected http 404, got %s %d", f.Kind, f.Status)
			}
			if f.Message != "Contact not found" {
				t.Errorf("expected server message, got %q", f.Message)
			}
		})

		t.Run("Without Message", func(t *testing.T) {
			srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			})

			err := New(Options{BaseURL: srv.URL}).Do(ctx, Request{Path: "/x"}, nil)
			f, _ := AsFailure(err)
			if f == nil || f.Message != "HTTP 500" {
				t.Errorf("expected generic 'HTTP 500', got %v", err)
			}
		})

		t.Run("Validation Details", func(t *testing.T) {
			srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"Validation failed","details":{"_errors":[],"title":{"_errors":["Title is required"]},"email":"Invalid email","phone":["too short","digits only"]}}`))
			})

			err := New(Options{BaseURL: srv.URL}).Do(ctx, Request{Method: http.MethodPost, Path: "/x", Body: item{}}, nil)
			f, _ := AsFailure(err)
			if f == nil || f.Kind != KindValidation {
				t.Fatalf("expected validation failure, got %v", err)
			}
			if got := strings.Join(f.FieldNames(), ","); got != "email,phone,title" {
				t.Errorf("expected fields email,phone,title, got %s", got)
			}
			if f.Fields["title"] != "Title is required" {
				t.Errorf("unexpected title message %q", f.Fields["title"])
			}
			if f.Fields["phone"] != "too short; digits only" {
				t.Errorf("unexpected phone message %q", f.Fields["phone"])
			}
		})
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":`))
		})

		var out item
		err := New(Options{BaseURL: srv.URL}).Do(ctx, Request{Path: "/x"}, &out)
		if KindOf(err) != KindParse {
			t.Fatalf("expected parse failure, got %v", err)
		}
		if errors.Unwrap(err) == nil {
			t.Error("expected parse failure to wrap the decode error")
		}
	})

	t.Run("Cancelled Context Is Aborted", func(t *testing.T) {
		release := make(chan struct{})
		srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
			<-release
		})
		defer close(release)

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- New(Options{BaseURL: srv.URL}).Do(cctx, Request{Path: "/slow"}, nil) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		if err := <-done; !IsAborted(err) {
			t.Errorf("expected aborted, got %v", err)
		}
	})

	t.Run("Already Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := New(Options{}).Do(cctx, Request{Path: "/x"}, nil); !IsAborted(err) {
			t.Errorf("expected aborted, got %v", err)
		}
	})

	t.Run("Timeout Is A Network Failure", func(t *testing.T) {
		release := make(chan struct{})
		srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)

		err := New(Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}).Do(ctx, Request{Path: "/slow"}, nil)
		f, _ := AsFailure(err)
		if f == nil || f.Kind != KindNetwork {
			t.Fatalf("expected network failure, got %v", err)
		}
		if !strings.Contains(f.Message, "timed out") {
			t.Errorf("expected timed out message, got %q", f.Message)
		}
	})

	t.Run("Transport Error Is A Network Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		err := New(Options{BaseURL: "http://example.test", HTTPClient: client}).Do(ctx, Request{Path: "/x"}, nil)
		if KindOf(err) != KindNetwork {
			t.Errorf("expected network failure, got %v", err)
		}
	})

	t.Run("Body Read Failure Is A Network Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		err := New(Options{BaseURL: "http://example.test", HTTPClient: client}).Do(ctx, Request{Path: "/x"}, nil)
		if KindOf(err) != KindNetwork {
			t.Errorf("expected network failure, got %v", err)
		}
	})
}

func TestCacheBypass(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int32
	var last atomic.Pointer[http.Request]
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		last.Store(r.Clone(context.Background()))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1"}`))
	})

	client := New(Options{BaseURL: srv.URL, CacheTTL: time.Minute})
	read := func(bypass bool) {
		t.Helper()
		var out item
		if err := client.Do(ctx, Request{Path: "/api/items", Query: url.Values{"page": {"1"}}, BypassCache: bypass}, &out); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	t.Run("Repeated Reads Are Served From Cache", func(t *testing.T) {
		read(false)
		read(false)
		if hits.Load() != 1 {
			t.Errorf("expected 1 server hit, got %d", hits.Load())
		}
		if client.Cache().Len() != 1 {
			t.Errorf("expected 1 cache entry, got %d", client.Cache().Len())
		}
	})

	t.Run("Bypass Adds Unique Token And No-Store", func(t *testing.T) {
		read(true)
		if hits.Load() != 2 {
			t.Fatalf("expected bypass to reach the server, got %d hits", hits.Load())
		}

		r := last.Load()
		token := r.URL.Query().Get(CacheBustParam)
		if token == "" {
			t.Error("expected cache-bust token in query")
		}
		if !strings.Contains(r.Header.Get("Cache-Control"), "no-store") {
			t.Errorf("expected no-store, got %q", r.Header.Get("Cache-Control"))
		}
		if r.Header.Get("Pragma") != "no-cache" {
			t.Errorf("expected Pragma no-cache, got %q", r.Header.Get("Pragma"))
		}

		read(true)
		if next := last.Load().URL.Query().Get(CacheBustParam); next == token {
			t.Error("expected a fresh token per bypassing request")
		}
	})

	t.Run("Writes Invalidate Cached Reads", func(t *testing.T) {
		before := hits.Load()
		if err := client.Do(ctx, Request{Method: http.MethodPost, Path: "/api/items", Body: item{Name: "new"}, BypassCache: true}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if client.Cache().Len() != 0 {
			t.Errorf("expected cache to be cleared, got %d entries", client.Cache().Len())
		}

		read(false)
		if hits.Load() != before+2 {
			t.Errorf("expected read after write to reach the server, got %d hits", hits.Load()-before)
		}
	})
}

func TestCache(t *testing.T) {
	c := NewCache(time.Second)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Put("http://h/api/tasks?page=1", []byte("a"))
	c.Put("http://h/api/contacts", []byte("b"))

	t.Run("Expiry", func(t *testing.T) {
		if _, ok := c.Get("http://h/api/tasks?page=1"); !ok {
			t.Fatal("expected fresh entry")
		}
		now = now.Add(2 * time.Second)
		if _, ok := c.Get("http://h/api/tasks?page=1"); ok {
			t.Error("expected entry to expire")
		}
	})

	t.Run("Invalidate Prefix", func(t *testing.T) {
		c.Put("http://h/api/tasks?page=2", []byte("c"))
		c.Invalidate("http://h/api/tasks")
		if _, ok := c.Get("http://h/api/tasks?page=2"); ok {
			t.Error("expected tasks entry to be dropped")
		}
		if c.Len() != 1 {
			t.Errorf("expected contacts entry to remain, got %d entries", c.Len())
		}
	})
}

func TestAuthentication(t *testing.T) {
	t.Run("Bearer Token And Session Headers", func(t *testing.T) {
		srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer secret" {
				t.Errorf("expected bearer token, got %q", got)
			}
			if got := r.Header.Get("Cookie"); got != "session=abc" {
				t.Errorf("expected session cookie, got %q", got)
			}
			if got := r.Header.Get("X-Requested-With"); got != "crmx" {
				t.Errorf("expected session header, got %q", got)
			}
			w.WriteHeader(http.StatusNoContent)
		})

		session := &shared.SessionHeaders{
			Headers: map[string]string{"X-Requested-With": "crmx"},
			Cookie:  "session=abc",
		}
		client := New(Options{BaseURL: srv.URL, Token: "secret", Session: session})
		if err := client.Do(context.Background(), Request{Path: "/x"}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("FromConfig", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.API.BaseURL = "http://example.test/"
		cfg.API.RateLimit = 5

		client, err := FromConfig(cfg, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if client.baseURL != "http://example.test" {
			t.Errorf("expected trailing slash trimmed, got %s", client.baseURL)
		}
		if client.limiter == nil {
			t.Error("expected limiter when rate_limit > 0")
		}
	})
}
