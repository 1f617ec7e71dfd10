package server

import (
	"testing"

	"github.com/avandyck/glidewire/resource"
	"github.com/avandyck/glidewire/tools"
)

func testCore() *tools.Core {
	// Registration never touches the transport, so a nil API is fine.
	return tools.NewCore(nil, resource.NewResolver(nil, nil), nil, 0)
}

func TestNewMCPServer(t *testing.T) {
	srv := NewMCPServer(testCore(), nil)
	if srv == nil {
		t.Fatal("NewMCPServer() returned nil")
	}
}

func TestNewMCPServerOptions(t *testing.T) {
	srv := NewMCPServer(testCore(), nil, ServerOptions{Name: "custom", Version: "9.9.9"})
	if srv == nil {
		t.Fatal("NewMCPServer() returned nil")
	}
}

func TestNewHTTPHandler(t *testing.T) {
	h := NewHTTPHandler(testCore(), nil)
	if h == nil {
		t.Fatal("NewHTTPHandler() returned nil")
	}
}
