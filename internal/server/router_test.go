package server

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/setsvm/novi/internal/shared"
)

func text(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Qualified Patterns", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/items/{id}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("item " + req.PathValue("id")))
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
		if rec.Body.String() != "item 42" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/42", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/", text("ok"))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Match", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleNamed("content", http.MethodGet, "/content/{contentId}", text("c"))
		r.HandleNamed("edit", http.MethodGet, "/content/{contentId}/edit", text("e"))
		r.Handle("", "/", text("fallback"))

		tc := []struct {
			path string
			name string
			ok   bool
		}{
			{path: "/content/1", name: "content", ok: true},
			{path: "/content/1/edit", name: "edit", ok: true},
			{path: "/unknown", name: "", ok: false},
		}

		for _, tt := range tc {
			name, _, ok := r.Match(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if name != tt.name || ok != tt.ok {
				t.Errorf("Match(%s) = %q %v, want %q %v", tt.path, name, ok, tt.name, tt.ok)
			}
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("Serves Until Cancelled", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve port: %v", err)
		}
		addr := ln.Addr().String()
		ln.Close()

		srv := New(addr, text("up"))
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- Run(ctx, srv, shared.NewLogger(&bytes.Buffer{})) }()

		var resp *http.Response
		for range 50 {
			resp, err = http.Get("http://" + addr + "/")
			if err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			t.Fatalf("server never came up: %v", err)
		}
		resp.Body.Close()

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})

	t.Run("Listen Failure", func(t *testing.T) {
		srv := New("256.0.0.1:-1", text("x"))
		if err := Run(context.Background(), srv, shared.NewLogger(&bytes.Buffer{})); err == nil {
			t.Error("expected listen error")
		}
	})
}

var _ Router = (*BasicRouter)(nil)
