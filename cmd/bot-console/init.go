// ABOUTME: Interactive init subcommand that writes a YAML config file
// ABOUTME: Prompts on the given reader and renders answers into config text

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389/bot-console/internal/auth"
	"github.com/2389/bot-console/internal/config"
)

// initAnswers are the values collected by runInit.
type initAnswers struct {
	HTTPAddr          string
	DBPath            string
	AdminPasswordHash string
	ListURL           string
	DataURL           string
	UpdateURL         string

	TailscaleEnabled bool
	TSHostname       string
	TSAuthKey        string
	TSEphemeral      bool
	TSHTTPS          bool

	LogLevel  string
	LogFormat string
}

func runInit(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	defaults := config.Defaults()

	fmt.Fprintln(out, "bot-console configuration setup")
	fmt.Fprintln(out, "===============================")
	fmt.Fprintln(out)

	outputFile := prompt(reader, out, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		if !yes(prompt(reader, out, "File exists. Overwrite?", "no")) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, out, "HTTP address", defaults.Server.HTTPAddr)

	fmt.Fprintln(out, "\n--- Database Configuration ---")
	a.DBPath = prompt(reader, out, "SQLite database path", defaults.Database.Path)

	fmt.Fprintln(out, "\n--- Admin Login ---")
	password := prompt(reader, out, "Admin password (leave empty for the built-in default)", "")
	if password != "" {
		hash, err := auth.HashAdminPassword(password)
		if err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
		a.AdminPasswordHash = hash
	}

	fmt.Fprintln(out, "\n--- Webhook Backend ---")
	a.ListURL = prompt(reader, out, "List users URL", defaults.Webhook.ListURL)
	a.DataURL = prompt(reader, out, "User data URL", defaults.Webhook.DataURL)
	a.UpdateURL = prompt(reader, out, "Update user URL", defaults.Webhook.UpdateURL)

	fmt.Fprintln(out, "\n--- Tailscale Configuration ---")
	a.TailscaleEnabled = yes(prompt(reader, out, "Enable Tailscale?", "no"))
	if a.TailscaleEnabled {
		a.TSHostname = prompt(reader, out, "Tailscale hostname", defaults.Tailscale.Hostname)
		a.TSAuthKey = prompt(reader, out, "Tailscale auth key (leave empty to use TS_AUTHKEY)", "")
		a.TSEphemeral = yes(prompt(reader, out, "Ephemeral node?", "no"))
		a.TSHTTPS = yes(prompt(reader, out, "Serve HTTPS with Tailscale certs?", "no"))
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, out, "Log format (text/json)", "text")

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file may hold a password hash
	if err := os.WriteFile(outputFile, []byte(renderInitConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(a.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintf(out, "Data directory: %s\n", dataDir)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintln(out, "  bot-console serve")

	return nil
}

// renderInitConfig renders answers as a YAML config file.
func renderInitConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# bot-console configuration\n")
	cfg.WriteString("# Generated by bot-console init\n\n")

	cfg.WriteString("server:\n")
	fmt.Fprintf(&cfg, "  http_addr: %q\n", a.HTTPAddr)
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	fmt.Fprintf(&cfg, "  path: %q\n", a.DBPath)
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	if a.AdminPasswordHash != "" {
		fmt.Fprintf(&cfg, "  admin_password_hash: %q\n", a.AdminPasswordHash)
	}
	cfg.WriteString("  session_ttl: \"12h\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("webhook:\n")
	fmt.Fprintf(&cfg, "  list_url: %q\n", a.ListURL)
	fmt.Fprintf(&cfg, "  data_url: %q\n", a.DataURL)
	fmt.Fprintf(&cfg, "  update_url: %q\n", a.UpdateURL)
	cfg.WriteString("  timeout: \"30s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("tailscale:\n")
	fmt.Fprintf(&cfg, "  enabled: %t\n", a.TailscaleEnabled)
	if a.TailscaleEnabled {
		fmt.Fprintf(&cfg, "  hostname: %q\n", a.TSHostname)
		if a.TSAuthKey != "" {
			fmt.Fprintf(&cfg, "  auth_key: %q\n", a.TSAuthKey)
		}
		fmt.Fprintf(&cfg, "  ephemeral: %t\n", a.TSEphemeral)
		fmt.Fprintf(&cfg, "  https: %t\n", a.TSHTTPS)
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	fmt.Fprintf(&cfg, "  level: %q\n", a.LogLevel)
	fmt.Fprintf(&cfg, "  format: %q\n", a.LogFormat)
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString("  enabled: true\n")
	cfg.WriteString("  path: \"/metrics\"\n")

	return cfg.String()
}

func yes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
