// Package main runs the sqlgate MCP server: read-only SQL tools for agents
// (e.g. Cursor) without exposing credentials.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SedlarDavid/sqlgate/internal/config"
	"github.com/SedlarDavid/sqlgate/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// stdout carries MCP frames.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		slog.Error("server", "error", err)
		stop()
		os.Exit(1)
	}
}
