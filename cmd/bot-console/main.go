// ABOUTME: Entry point for the bot-console admin server
// ABOUTME: Provides serve, init, health, hash and users subcommands

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/bot-console/internal/auth"
	"github.com/2389/bot-console/internal/config"
	"github.com/2389/bot-console/internal/server"
	"github.com/2389/bot-console/internal/webhook"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _           _                                   _
| |__   ___ | |_       ___ ___  _ __  ___  ___ | | ___
| '_ \ / _ \| __|____ / __/ _ \| '_ \/ __|/ _ \| |/ _ \
| |_) | (_) | ||_____| (_| (_) | | | \__ \ (_) | |  __/
|_.__/ \___/ \__|     \___\___/|_| |_|___/\___/|_|\___|
`

// getConfigPath returns the path to the config file.
// Priority: BOT_CONSOLE_CONFIG env var > XDG_CONFIG_HOME/bot-console/config.yaml > ~/.config/bot-console/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("BOT_CONSOLE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "bot-console", "config.yaml")
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bot-console <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve             Start the admin console")
	fmt.Fprintln(w, "  init              Create a new config file interactively")
	fmt.Fprintln(w, "  health            Check console health")
	fmt.Fprintln(w, "  hash <password>   Print the backend digest and an admin bcrypt hash")
	fmt.Fprintln(w, "  users             List bot users known to the backend")
	fmt.Fprintln(w, "  version           Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(os.Stdin, os.Stdout)
	case "health":
		err = runHealth(ctx, os.Stdout)
	case "hash":
		err = runHash(os.Args[2:], os.Stdout)
	case "users":
		err = runUsers(ctx, os.Stdout)
	case "version":
		fmt.Println(version)
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

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// A missing file runs on defaults
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Backend:   %s\n", cfg.Webhook.ListURL)

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.HTTPS {
			yellow.Print(" [https]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()

	logger.Info("starting bot-console",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"version", version,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

// healthURL returns the health endpoint of a running console.
func healthURL(cfg *config.Config) string {
	if cfg.WebAdmin.BaseURL != "" {
		return strings.TrimRight(cfg.WebAdmin.BaseURL, "/") + "/health"
	}
	return fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
}

func runHealth(ctx context.Context, out io.Writer) error {
	cfg, err := config.LoadOrDefault(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(cfg), nil)
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

	fmt.Fprintln(out, "healthy")
	return nil
}

// runHash prints the digest the backend stores for a bot password and a
// bcrypt hash suitable for auth.admin_password_hash.
func runHash(args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bot-console hash <password>")
	}
	password := args[0]
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	adminHash, err := auth.HashAdminPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	fmt.Fprintf(out, "backend sha256:      %s\n", webhook.HashPassword(password))
	fmt.Fprintf(out, "admin_password_hash: %s\n", adminHash)
	return nil
}

func runUsers(ctx context.Context, out io.Writer) error {
	cfg, err := config.LoadOrDefault(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := webhook.NewClient(cfg.Endpoints(), webhook.WithTimeout(cfg.Webhook.Timeout))
	items, err := client.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No users found.")
		return nil
	}
	for _, item := range items {
		fmt.Fprintln(out, item.User)
	}
	return nil
}
