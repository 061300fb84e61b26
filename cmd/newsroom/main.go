// ABOUTME: Entry point for the newsroom gateway server.
// ABOUTME: Wires config, store, tools, agents, approvals, webhooks, and HTTP.

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/ledekit/newsroom/internal/agents"
	"github.com/ledekit/newsroom/internal/api"
	"github.com/ledekit/newsroom/internal/approval"
	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/config"
	"github.com/ledekit/newsroom/internal/obs"
	"github.com/ledekit/newsroom/internal/router"
	"github.com/ledekit/newsroom/internal/store"
	"github.com/ledekit/newsroom/internal/tools"
	"github.com/ledekit/newsroom/internal/webhook"
	"github.com/ledekit/newsroom/internal/workflow"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _ __   _____      _____ _ __ ___   ___  _ __ ___
| '_ \ / _ \ \ /\ / / __| '__/ _ \ / _ \| '_ ' _ \
| | | |  __/\ V  V /\__ \ | | (_) | (_) | | | | | |
|_| |_|\___| \_/\_/ |___/_|  \___/ \___/|_| |_| |_|
`

// getConfigPath returns the path to the gateway config file.
// Priority: NEWSROOM_CONFIG env var > XDG_CONFIG_HOME/newsroom/gateway.yaml > ~/.config/newsroom/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("NEWSROOM_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "newsroom", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: newsroom <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve      Start the gateway server")
		fmt.Println("  init       Write a starter config file")
		fmt.Println("  health     Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := obs.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Metrics.Enabled {
		obs.Init()
	}

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	logger.Info("starting newsroom gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	dispatcher := webhook.NewDispatcher(webhook.DispatcherConfig{
		Webhooks:  s,
		Logger:    logger,
		QueueSize: cfg.Webhooks.QueueSize,
		Workers:   cfg.Webhooks.Workers,
	})
	defer dispatcher.Close()

	machine := workflow.NewMachine(s, s, logger)
	coord := approval.NewCoordinator(approval.CoordinatorConfig{
		Store:      s,
		Machine:    machine,
		Dispatcher: dispatcher,
		Logger:     logger,
		BaseURL:    baseURL(cfg),
		TTL:        cfg.Approvals.TTL,
	})

	registry := tools.NewRegistry(logger)
	if err := tools.RegisterDeskTools(registry, s, machine, coord); err != nil {
		return fmt.Errorf("registering desk tools: %w", err)
	}

	runner := agents.NewRunner(placeholderGenerator(), registry, s, logger)

	server := api.NewServer(api.ServerConfig{
		Logger:         logger,
		Store:          s,
		Registry:       registry,
		Router:         router.NewRouter(),
		Runner:         runner,
		Coord:          coord,
		Verifier:       auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// baseURL is the external URL embedded in approval callbacks. Falls back to
// the listen address when the config does not name one.
func baseURL(cfg *config.Config) string {
	if cfg.Server.BaseURL != "" {
		return cfg.Server.BaseURL
	}
	return "http://" + cfg.Server.HTTPAddr
}

// placeholderGenerator stands in until a model runtime is wired to the
// gateway. Agents still route, authorize, and surface tools; only the free
// text reply is canned.
func placeholderGenerator() agents.Generator {
	return agents.GeneratorFunc(func(ctx context.Context, systemPrompt, query string) (string, error) {
		return "No generation backend is configured. Use the tool routes under /api/tools to work the desk directly.", nil
	})
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists: %s", configPath)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

	dataDir := filepath.Join(filepath.Dir(configPath), "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	configContent := fmt.Sprintf(`# newsroom gateway configuration
# Generated by newsroom init

server:
  http_addr: "localhost:8080"
  base_url: "http://localhost:8080"

database:
  path: "%s"

auth:
  jwt_secret: "%s"

approvals:
  ttl: "72h"

webhooks:
  queue_size: 256
  workers: 4

logging:
  level: "info"
  format: "text"

metrics:
  enabled: false
  path: "/metrics"
`, filepath.Join(dataDir, "newsroom.db"), jwtSecret)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created config: %s\n", configPath)
	fmt.Println("\nTo start the server:")
	fmt.Println("  newsroom serve")
	return nil
}
