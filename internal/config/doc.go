// Package config handles configuration loading for bot-console.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file (chosen by extension)
// with environment variable expansion, layered over compiled-in defaults.
// A missing file is not an error for `serve`: the defaults point at the
// hosted webhook backend and listen on 127.0.0.1:8080.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from BOT_CONSOLE_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/bot-console/config.yaml
//  3. ~/.config/bot-console/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  admin_password_hash: "${BOT_CONSOLE_ADMIN_HASH}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
// BOT_CONSOLE_DB_PATH overrides database.path.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  session_ttl: "12h"
//	webhook:
//	  timeout: "30s"
//
// # Example
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	database:
//	  path: "~/.local/share/bot-console/console.db"
//	auth:
//	  admin_password: "admin123"
//	webhook:
//	  list_url: "https://n8n.instantassist.cloud/webhook/admin/list"
//	  data_url: "https://n8n.instantassist.cloud/webhook/admin/data"
//	  update_url: "https://n8n.instantassist.cloud/webhook/update"
//	logging:
//	  level: "info"
//	  format: "text"
package config
