package listsync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/services"
	"github.com/desertthunder/crmx/internal/transport"
)

type seenRequest struct {
	method       string
	bust         string
	cacheControl string
}

func TestCacheBypassRoundTrip(t *testing.T) {
	var mu sync.Mutex
	var seen []seenRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, seenRequest{
			method:       r.Method,
			bust:         r.URL.Query().Get(transport.CacheBustParam),
			cacheControl: r.Header.Get("Cache-Control"),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"message":"Task created successfully","task":{"id":"t2","title":"Send quote","status":"PENDING"}}`)
			return
		}
		io.WriteString(w, `{"tasks":[{"id":"t1","title":"Call","status":"PENDING"}],"pagination":{"total":1,"pages":1,"page":1,"limit":10}}`)
	}))
	defer srv.Close()

	client := transport.New(transport.Options{BaseURL: srv.URL, CacheTTL: time.Minute})
	v := NewView(context.Background(), "tasks", services.NewTaskService(client), Options{})

	drive(t, v, v.Init())
	drive(t, v, v.Refresh(false))

	mu.Lock()
	if len(seen) != 1 {
		t.Fatalf("expected the second read to be served from cache, got %d requests", len(seen))
	}
	mu.Unlock()

	task := models.Task{
		Title: "Send quote", Description: "Pricing for Q3", Status: models.TaskPending,
		DueDate: time.Now().Add(24 * time.Hour), ContactID: "c1",
	}
	drive(t, v, v.Create(task))

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("expected create and re-sync requests, got %+v", seen)
	}
	for _, r := range seen[1:] {
		if r.bust == "" {
			t.Errorf("expected unique token on %s after a write", r.method)
		}
		if r.cacheControl != "no-store, no-cache" {
			t.Errorf("expected no-store on %s, got %q", r.method, r.cacheControl)
		}
	}
	if seen[2].method != http.MethodGet {
		t.Errorf("expected a read after the write, got %s", seen[2].method)
	}
}
