// Command glidewire runs the MCP server as a stdio subprocess.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avandyck/glidewire"
	"github.com/avandyck/glidewire/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("glidewire failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return runStdio(ctx)
	}

	switch args[0] {
	case "help", "-h", "--help":
		printHelp(os.Stdout)
		return nil
	case "version", "-v", "--version":
		fmt.Printf("glidewire %s\n", version)
		return nil
	default:
		printHelp(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runStdio(ctx context.Context) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	err = glidewire.RunStdio(ctx, glidewire.Config{
		Settings: &settings,
		Logger:   logger,
		Version:  version,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, "glidewire - MCP server for ServiceNow table, attachment, and process data")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  glidewire            Start MCP server over stdio (default)")
	_, _ = fmt.Fprintln(w, "  glidewire help       Show this help")
	_, _ = fmt.Fprintln(w, "  glidewire version    Show version")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Required environment: SERVICENOW_INSTANCE_URL, SERVICENOW_CLIENT_ID,")
	_, _ = fmt.Fprintln(w, "SERVICENOW_CLIENT_SECRET, SERVICENOW_USERNAME, SERVICENOW_PASSWORD")
}
