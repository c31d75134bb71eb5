// Package server assembles the bot-console process.
//
// # Overview
//
// New opens the SQLite store, builds the admin authenticator and session
// signer, creates the webhook client and mounts the web console together with
// /health and, when enabled, the Prometheus endpoint. Every request passes
// through RequestID, Recover and the metrics middleware.
//
// # Listeners
//
// Run listens on server.http_addr, or joins a tailnet through tsnet when
// tailscale.enabled is set. With tailscale.https the node serves TLS on :443
// using certificates issued by Tailscale.
//
// # Lifecycle
//
// Expired admin sessions are swept in the background. Canceling the context
// passed to Run shuts the server down; Shutdown is safe to call more than once.
package server
