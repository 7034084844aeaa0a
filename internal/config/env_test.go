package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":8080" || c.GRPCAddr != ":9090" || c.ConfigDir != "configs" {
		t.Fatalf("addresses = %+v", c)
	}
	if c.ReloadInterval != 2*time.Second || c.MaxRepetitions != 100000 {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GACHAPLAN_HTTP_ADDR", "127.0.0.1:1")
	t.Setenv("GACHAPLAN_WORKERS", "3")
	t.Setenv("GACHAPLAN_RELOAD_INTERVAL", "500ms")
	t.Setenv("GACHAPLAN_OTEL_ENDPOINT", "http://collector:4318")
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != "127.0.0.1:1" || c.Workers != 3 || c.ReloadInterval != 500*time.Millisecond {
		t.Fatalf("config = %+v", c)
	}
	if c.OTelEndpoint != "http://collector:4318" {
		t.Fatalf("endpoint = %q", c.OTelEndpoint)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("GACHAPLAN_WORKERS", "many")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadRejectsZeroRepetitions(t *testing.T) {
	t.Setenv("GACHAPLAN_MAX_REPETITIONS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero max repetitions")
	}
}
