package main

import (
	"testing"
	"time"

	appconfig "github.com/rishimehra/portfolio-api/internal/config"
)

func TestNewServerTimeouts(t *testing.T) {
	cfg := &appconfig.Config{Port: "9090", OutboundTimeout: 15 * time.Second}
	srv := newServer(cfg, nil)

	if srv.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %q", srv.Addr)
	}
	if srv.WriteTimeout != 35*time.Second {
		t.Fatalf("expected write timeout to cover two outbound calls, got %s", srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Fatal("expected a read header timeout")
	}
}
