package sb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPacedTransportCountsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	m := NewMetrics()
	tr := newPacedTransport(0, m)
	client := &http.Client{Transport: tr}

	for i := 0; i < 3; i++ {
		res, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		res.Body.Close()
	}

	snap := m.Snapshot()
	if snap.TotalRequests != 3 || snap.ReadRequests != 3 {
		t.Fatalf("unexpected request counters: %+v", snap)
	}
	if snap.Status2xx != 3 {
		t.Fatalf("unexpected status counters: %+v", snap)
	}
}

func TestPacedTransportSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	delay := 30 * time.Millisecond
	tr := newPacedTransport(delay, nil)
	client := &http.Client{Transport: tr}

	start := time.Now()
	for i := 0; i < 3; i++ {
		res, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		res.Body.Close()
	}
	elapsed := time.Since(start)

	// First request is free; the next two wait one interval each.
	if elapsed < 2*delay {
		t.Fatalf("requests not paced: 3 requests in %v, want >= %v", elapsed, 2*delay)
	}
}

func TestPacedTransportHonorsContext(t *testing.T) {
	tr := newPacedTransport(time.Hour, nil)
	client := &http.Client{Transport: tr}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1:0/never", nil)
	// burn the initial free token
	tr.lim.Allow()
	if _, err := client.Do(req); err == nil {
		t.Fatal("expected context error while waiting on limiter")
	}
}
