package upstream

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaxxstorm/loansync/internal/config"
)

func newTestUpstream(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping upstream test server: %v", err)
	}
	server := httptest.NewUnstartedServer(handler)
	server.Listener = ln
	server.Start()
	t.Cleanup(server.Close)
	return server
}

func testUpstreamConfig() *config.UpstreamConfig {
	return &config.UpstreamConfig{
		RequestTimeout: 2 * time.Second,
		HeadTimeout:    2 * time.Second,
		MaxRetries:     0,
	}
}

func TestProbeVersion_PresentHeader(t *testing.T) {
	server := newTestUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.Header().Set(DataVersionHeader, "42")
		w.WriteHeader(http.StatusOK)
	}))

	c := New(testUpstreamConfig(), server.URL, "token")
	version, ok := c.ProbeVersion(context.Background(), "acme", FileTypeFor("commercial", true))
	if !ok {
		t.Fatal("expected version to be present")
	}
	if version != 42 {
		t.Fatalf("expected version 42, got %d", version)
	}
}

func TestProbeVersion_MissingHeader(t *testing.T) {
	server := newTestUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	c := New(testUpstreamConfig(), server.URL, "token")
	_, ok := c.ProbeVersion(context.Background(), "acme", FileTypeFor("commercial", true))
	if ok {
		t.Fatal("expected version to be absent when header is missing")
	}
}

func TestProbeVersion_NonOKStatus(t *testing.T) {
	server := newTestUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	c := New(testUpstreamConfig(), server.URL, "token")
	_, ok := c.ProbeVersion(context.Background(), "acme", FileTypeFor("commercial", true))
	if ok {
		t.Fatal("expected version to be absent on non-200 status")
	}
}

func TestProbeVersion_UnparseableHeader(t *testing.T) {
	server := newTestUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(DataVersionHeader, "not-a-number")
		w.WriteHeader(http.StatusOK)
	}))

	c := New(testUpstreamConfig(), server.URL, "token")
	_, ok := c.ProbeVersion(context.Background(), "acme", FileTypeFor("commercial", true))
	if ok {
		t.Fatal("expected version to be absent when header is unparseable")
	}
}
