package availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecompute_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(resyncResponse{Success: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	if err := c.Recompute(context.Background(), 42); err != nil {
		t.Fatalf("Recompute error: %v", err)
	}
	if gotPath != "/api/stalls/42/availability" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestRecompute_ReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(resyncResponse{Success: false, Error: "menu out of sync"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	if err := c.Recompute(context.Background(), 1); err == nil {
		t.Fatalf("expected error on success=false")
	}
}

func TestRecompute_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(resyncResponse{Success: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	if err := c.Recompute(context.Background(), 1); err != nil {
		t.Fatalf("Recompute error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestRecompute_NotConfigured(t *testing.T) {
	c := NewClient("")

	if err := c.Recompute(context.Background(), 1); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}
