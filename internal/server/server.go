// ABOUTME: Server wires the store, webhook client and web console into one HTTP server
// ABOUTME: Handles TCP or Tailscale listeners, the session sweep and graceful shutdown

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/bot-console/internal/auth"
	"github.com/2389/bot-console/internal/config"
	"github.com/2389/bot-console/internal/metrics"
	"github.com/2389/bot-console/internal/store"
	"github.com/2389/bot-console/internal/webadmin"
	"github.com/2389/bot-console/internal/webhook"
)

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = 10 * time.Minute

// Server is the bot-console process.
type Server struct {
	config      *config.Config
	store       store.Store
	admin       *webadmin.Admin
	metrics     *metrics.Metrics
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	sweepInterval time.Duration
	shutdownOnce  sync.Once
	shutdownErr   error
}

// New creates a Server from configuration. Nothing listens until Run.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	authn, err := newAuthenticator(cfg.Auth, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	secret, err := sessionSecret(cfg.Auth, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	m := metrics.New()
	client := webhook.NewClient(cfg.Endpoints(),
		webhook.WithTimeout(cfg.Webhook.Timeout),
		webhook.WithMetrics(m),
		webhook.WithLogger(logger.With("component", "webhook")),
	)

	admin := webadmin.New(st, client, authn, auth.NewSessionSigner(secret),
		webadmin.Config{
			SessionTTL: cfg.Auth.SessionTTL,
			Defaults:   cfg.PromptDefaults(),
		},
		webadmin.WithMetrics(m),
		webadmin.WithLogger(logger.With("component", "admin")),
	)

	s := &Server{
		config:        cfg,
		store:         st,
		admin:         admin,
		metrics:       m,
		logger:        logger.With("component", "server"),
		sweepInterval: DefaultSweepInterval,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/", http.StatusSeeOther)
	})
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, m.Handler())
	}
	admin.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           RequestID(Recover(m.Middleware(mux), logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("admin web UI enabled at /admin/", "base_url", determineBaseURL(cfg))
	return s, nil
}

func initStore(cfg *config.Config) (store.Store, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// newAuthenticator prefers the bcrypt hash, then the plaintext password, then
// the built-in default.
func newAuthenticator(cfg config.AuthConfig, logger *slog.Logger) (auth.Authenticator, error) {
	if cfg.AdminPasswordHash != "" {
		a, err := auth.NewBcryptPassword(cfg.AdminPasswordHash)
		if err != nil {
			return nil, fmt.Errorf("auth.admin_password_hash: %w", err)
		}
		return a, nil
	}
	if cfg.AdminPassword != "" {
		return auth.NewStaticPassword(cfg.AdminPassword), nil
	}
	logger.Warn("no admin password configured, using the built-in default; set auth.admin_password_hash")
	return auth.NewStaticPassword(auth.DefaultAdminPassword), nil
}

func sessionSecret(cfg config.AuthConfig, logger *slog.Logger) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	logger.Info("no session secret configured, sessions will not survive a restart")
	secret, err := auth.RandomSecret()
	if err != nil {
		return nil, fmt.Errorf("generating session secret: %w", err)
	}
	return secret, nil
}

// determineBaseURL returns the configured base URL or derives one.
func determineBaseURL(cfg *config.Config) string {
	if cfg.WebAdmin.BaseURL != "" {
		return cfg.WebAdmin.BaseURL
	}
	if cfg.Tailscale.Enabled {
		scheme := "http"
		if cfg.Tailscale.HTTPS {
			scheme = "https"
		}
		return scheme + "://" + cfg.Tailscale.Hostname
	}
	return "http://" + cfg.Server.HTTPAddr
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// setupListener creates the HTTP listener (Tailscale or TCP).
func (s *Server) setupListener(ctx context.Context) (net.Listener, error) {
	if s.config.Tailscale.Enabled {
		if s.config.Server.HTTPAddr != "" {
			s.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", s.config.Server.HTTPAddr)
		}
		return s.setupTailscaleListener(ctx)
	}

	s.logger.Info("starting bot-console", "http_addr", s.config.Server.HTTPAddr)
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// Run starts serving and blocks until the context is canceled or the server
// fails. Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.setupListener(ctx)
	if err != nil {
		// Release the store, the admin and any tsnet node New or setup opened
		if shutdownErr := s.gracefulShutdown(); shutdownErr != nil {
			s.logger.Warn("shutdown after listener failure", "error", shutdownErr)
		}
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		s.sweepSessions(sweepCtx)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	stopSweep()
	<-sweepDone

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// sweepSessions periodically removes expired sessions until ctx is done.
func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.admin.SweepSessions(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("session sweep failed", "error", err)
			}
		}
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "bot-console", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}

// setupTailscaleListener joins the tailnet and listens on :80, or :443 with
// Tailscale certificates when https is enabled.
func (s *Server) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := s.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	s.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	s.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := s.tsnetServer.Up(ctx)
	if err != nil {
		_ = s.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	s.logTailscaleStatus(tsCfg.Hostname, status)

	if !tsCfg.HTTPS {
		ln, err := s.tsnetServer.Listen("tcp", ":80")
		if err != nil {
			_ = s.tsnetServer.Close()
			return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
		}
		return ln, nil
	}

	s.logger.Info("enabling HTTPS with Tailscale certs on :443")
	ln, err := s.tsnetServer.Listen("tcp", ":443")
	if err != nil {
		_ = s.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTPS port: %w", err)
	}
	lc, err := s.tsnetServer.LocalClient()
	if err != nil {
		_ = ln.Close()
		_ = s.tsnetServer.Close()
		return nil, fmt.Errorf("getting tailscale local client: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		GetCertificate: lc.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}), nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (s *Server) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		s.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	s.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the server and releases resources. Calls after
// the first return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.logger.Info("shutting down bot-console")

		var errs []error
		errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
		if s.tsnetServer != nil {
			errs = appendCloseError(errs, "tailscale shutdown", s.tsnetServer.Close())
		}
		s.admin.Close()
		errs = appendCloseError(errs, "store close", s.store.Close())

		if len(errs) > 0 {
			s.shutdownErr = fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
		}
	})
	return s.shutdownErr
}
