package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"GuardChat/internal/config"
	"GuardChat/internal/conversation"
	"GuardChat/internal/gateway"
	"GuardChat/internal/monitor"
	"GuardChat/internal/session"
	"GuardChat/internal/telemetry"
	"GuardChat/internal/ui"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.GatewayURL, "gateway", cfg.GatewayURL, "PromptGuard gateway base URL")
	flag.StringVar(&cfg.Tenant, "tenant", cfg.Tenant, "Tenant scope for chat and monitoring")
	flag.StringVar(&cfg.SessionID, "session-id", cfg.SessionID, "Resume an existing session by ID")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.InitLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	tracer, meter, cleanup, err := telemetry.InitTelemetry(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize telemetry: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	client, err := gateway.NewClient(cfg.GatewayURL, logger, tracer, meter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gateway client: %v\n", err)
		os.Exit(1)
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = session.NewID()
	}
	conv := conversation.New(client, logger, cfg.Tenant, sessionID)
	mgr := session.NewManager(client, logger, conv)

	// Resuming an existing session loads its transcript up front. A
	// failure falls back to an empty conversation under the same ID.
	if cfg.SessionID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := mgr.Select(ctx, cfg.SessionID); err != nil {
			logger.Warn("could not resume session", "session_id", cfg.SessionID, "error", err)
		}
		cancel()
	}

	poller := monitor.NewPoller(client, logger, cfg.Tenant)
	poller.Start(context.Background())
	defer poller.Stop()

	app := ui.New(cfg, mgr, poller, logger)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
