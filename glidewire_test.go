package glidewire_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/avandyck/glidewire"
	"github.com/avandyck/glidewire/client"
	"github.com/avandyck/glidewire/config"
	"github.com/avandyck/glidewire/tools"
)

func testSettings() *config.Config {
	return &config.Config{
		InstanceURL:  "https://dev0001.service-now.com",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "admin",
		Password:     "secret",
		Scope:        config.DefaultScope,
		TimeoutMS:    config.DefaultTimeoutMS,
	}
}

func TestNewWithSettings(t *testing.T) {
	core, err := glidewire.New(glidewire.Config{Settings: testSettings()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if core == nil {
		t.Fatal("New() returned nil core")
	}
	if core.API == nil || core.Resolver == nil {
		t.Fatal("core missing transport or resolver")
	}
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("GLIDEWIRE_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("SERVICENOW_INSTANCE_URL", "dev0001.service-now.com")
	t.Setenv("SERVICENOW_CLIENT_ID", "client-id")
	t.Setenv("SERVICENOW_CLIENT_SECRET", "client-secret")
	t.Setenv("SERVICENOW_USERNAME", "admin")
	t.Setenv("SERVICENOW_PASSWORD", "secret")

	core, err := glidewire.New(glidewire.Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if core == nil {
		t.Fatal("New() returned nil core")
	}
}

func TestNewMissingConfigFails(t *testing.T) {
	t.Setenv("GLIDEWIRE_CONFIG", "/nonexistent/config.yaml")
	for _, key := range []string{
		"SERVICENOW_INSTANCE_URL", "SERVICENOW_CLIENT_ID",
		"SERVICENOW_CLIENT_SECRET", "SERVICENOW_USERNAME", "SERVICENOW_PASSWORD",
	} {
		t.Setenv(key, "")
	}

	if _, err := glidewire.New(glidewire.Config{}); err == nil {
		t.Fatal("New() with no credentials should fail")
	}
}

type stubAPI struct{ tools.API }

func (stubAPI) GetRecord(context.Context, string, string, []string) (client.Record, error) {
	return client.Record{"sys_id": "stub"}, nil
}

func TestNewWithInjectedAPI(t *testing.T) {
	api := stubAPI{}
	core, err := glidewire.New(glidewire.Config{Settings: testSettings(), API: api})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	record, err := core.API.GetRecord(context.Background(), "incident", "x", nil)
	if err != nil {
		t.Fatalf("injected API not used: %v", err)
	}
	if record["sys_id"] != "stub" {
		t.Fatalf("record = %v", record)
	}
}

func TestNewWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	core, err := glidewire.New(glidewire.Config{Settings: testSettings(), Logger: logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if core.Logger == nil {
		t.Fatal("logger not carried into core")
	}
}
