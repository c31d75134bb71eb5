// ABOUTME: Admin web console for managing chatbot user profiles
// ABOUTME: Provides authentication, session management, the shell registry and route wiring

package webadmin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/bot-console/internal/auth"
	"github.com/2389/bot-console/internal/console"
	"github.com/2389/bot-console/internal/dedupe"
	"github.com/2389/bot-console/internal/metrics"
	"github.com/2389/bot-console/internal/profile"
	"github.com/2389/bot-console/internal/store"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "bot_console_session"

	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "bot_console_csrf"

	// DefaultSessionTTL is how long sessions last when Config leaves it unset
	DefaultSessionTTL = 12 * time.Hour

	// formTokenTTL bounds how long a rendered form can be submitted
	formTokenTTL = 2 * time.Hour

	formTokenCacheSize = 10000
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const shellContextKey contextKey = "console_shell"
const csrfContextKey contextKey = "csrf_token"

// Config holds admin UI configuration
type Config struct {
	// SessionTTL is the lifetime of a login
	SessionTTL time.Duration
	// Defaults seeds the prompts of new bot users
	Defaults profile.Defaults
}

// Admin handles admin UI routes and authentication
type Admin struct {
	store   store.Store
	backend console.Backend
	authn   auth.Authenticator
	signer  *auth.SessionSigner
	forms   *dedupe.Cache
	metrics *metrics.Metrics
	config  Config
	logger  *slog.Logger

	mu     sync.Mutex
	shells map[string]*console.Shell
}

// Option configures an Admin.
type Option func(*Admin)

// WithMetrics records login attempts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Admin) { a.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Admin) { a.logger = l }
}

// New creates a new Admin handler
func New(st store.Store, backend console.Backend, authn auth.Authenticator, signer *auth.SessionSigner, cfg Config, opts ...Option) *Admin {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Defaults == (profile.Defaults{}) {
		cfg.Defaults = profile.BuiltinDefaults()
	}

	a := &Admin{
		store:   st,
		backend: backend,
		authn:   authn,
		signer:  signer,
		forms:   dedupe.New(formTokenTTL, formTokenCacheSize),
		config:  cfg,
		logger:  slog.Default().With("component", "admin"),
		shells:  make(map[string]*console.Shell),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.metrics.WatchConsole(a.ActiveShells, a.forms.Len); err != nil {
		a.logger.Warn("console gauges not registered", "error", err)
	}
	return a
}

// Close cleans up admin resources
func (a *Admin) Close() {
	if a.forms != nil {
		a.forms.Close()
	}
}

// RegisterRoutes registers all admin routes on the given mux
func (a *Admin) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /admin/login", a.handleLoginPage)
	mux.HandleFunc("POST /admin/login", a.handleLogin)

	// Protected routes (auth required)
	mux.HandleFunc("GET /admin/", a.requireAuth(a.handleShell))
	mux.HandleFunc("GET /admin", a.requireAuth(a.handleShell))
	mux.HandleFunc("POST /admin/logout", a.requireAuth(a.handleLogout))

	// Dashboard navigation
	mux.HandleFunc("POST /admin/users/new", a.requireAuth(a.requireCSRF(a.handleOpenAdd)))
	mux.HandleFunc("POST /admin/users/{user}/edit", a.requireAuth(a.requireCSRF(a.handleOpenEdit)))
	mux.HandleFunc("POST /admin/cancel", a.requireAuth(a.requireCSRF(a.handleCancel)))
	mux.HandleFunc("POST /admin/refresh", a.requireAuth(a.requireCSRF(a.handleRefresh)))
	mux.HandleFunc("POST /admin/dismiss", a.requireAuth(a.requireCSRF(a.handleDismiss)))

	// User form
	mux.HandleFunc("POST /admin/form/field", a.requireAuth(a.requireCSRF(a.handleFieldChange)))
	mux.HandleFunc("POST /admin/form/submit", a.requireAuth(a.requireCSRF(a.handleSubmit)))
	mux.HandleFunc("POST /admin/preview", a.requireAuth(a.requireCSRF(a.handlePreview)))

	// Activity and help
	mux.HandleFunc("GET /admin/activity", a.requireAuth(a.handleActivity))
	mux.HandleFunc("GET /admin/help", a.requireAuth(a.handleHelp))
	mux.HandleFunc("GET /admin/help/{topic}", a.requireAuth(a.handleHelp))

	a.logger.Info("admin routes registered")
}

// requireAuth wraps a handler to require authentication
func (a *Admin) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := a.getSession(r)
		if err != nil {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		if err := a.store.TouchAdminSession(r.Context(), session.ID); err != nil {
			a.logger.Warn("failed to touch session", "error", err)
		}

		shell := a.shellFor(r.Context(), session.ID)

		ctx := auth.WithSession(r.Context(), &auth.SessionContext{
			SessionID: session.ID,
			ExpiresAt: session.ExpiresAt,
		})
		ctx = context.WithValue(ctx, shellContextKey, shell)
		r, _ = a.ensureCSRFToken(w, r.WithContext(ctx))
		next(w, r)
	}
}

// requireCSRF rejects POSTs whose CSRF token does not match the cookie
func (a *Admin) requireCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if !a.validateCSRF(r) {
			a.logger.Warn("request with invalid CSRF token", "path", r.URL.Path)
			http.Error(w, "Invalid request, please try again", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// getSession resolves the session cookie to a live session row
func (a *Admin) getSession(r *http.Request) (*store.AdminSession, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, err
	}

	sessionID, err := a.signer.Verify(cookie.Value)
	if err != nil {
		return nil, err
	}

	return a.store.GetAdminSession(r.Context(), sessionID)
}

// shellFor returns the shell of a session, creating one on the dashboard for
// sessions that outlived a restart.
func (a *Admin) shellFor(ctx context.Context, sessionID string) *console.Shell {
	a.mu.Lock()
	shell, ok := a.shells[sessionID]
	if !ok {
		shell = a.newShell()
		a.shells[sessionID] = shell
	}
	a.mu.Unlock()

	if !ok {
		a.logger.Debug("resuming session", "session_id", sessionID)
		if err := shell.Resume(ctx); err != nil {
			a.logger.Warn("failed to resume session", "session_id", sessionID, "error", err)
		}
	}
	return shell
}

func (a *Admin) newShell() *console.Shell {
	return console.NewShell(a.backend, a.authn,
		console.WithDefaults(a.config.Defaults),
		console.WithLogger(a.logger.With("component", "console")),
	)
}

func (a *Admin) dropShell(sessionID string) {
	a.mu.Lock()
	delete(a.shells, sessionID)
	a.mu.Unlock()
}

// getShell retrieves the session's shell from the request context
func getShell(r *http.Request) *console.Shell {
	shell, _ := r.Context().Value(shellContextKey).(*console.Shell)
	return shell
}

// getCSRFToken retrieves the CSRF token from the request context
func getCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey).(string)
	return token
}

// ensureCSRFToken generates a CSRF token if not present and adds it to context
func (a *Admin) ensureCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	// Try to get existing token from cookie
	cookie, err := r.Cookie(CSRFCookieName)
	if err == nil && cookie.Value != "" {
		ctx := context.WithValue(r.Context(), csrfContextKey, cookie.Value)
		return r.WithContext(ctx), cookie.Value
	}

	// Generate new token
	token, err := generateSecureToken(32)
	if err != nil {
		a.logger.Error("failed to generate CSRF token", "error", err)
		token = "" // Will fail validation, but won't crash
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	ctx := context.WithValue(r.Context(), csrfContextKey, token)
	return r.WithContext(ctx), token
}

// validateCSRF checks the CSRF token from form against cookie
func (a *Admin) validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		// Also check header for htmx requests
		formToken = r.Header.Get("X-CSRF-Token")
	}

	return formToken != "" && formToken == cookie.Value
}

// createSession stores a session row and sets the signed session cookie
func (a *Admin) createSession(w http.ResponseWriter, r *http.Request) (*store.AdminSession, error) {
	now := time.Now().UTC()
	session := &store.AdminSession{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(a.config.SessionTTL),
		LastSeenAt: now,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
	}

	token, err := a.signer.Generate(session.ID, a.config.SessionTTL)
	if err != nil {
		return nil, err
	}

	if err := a.store.CreateAdminSession(r.Context(), session); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/admin",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return session, nil
}

// handleLoginPage renders the login page
func (a *Admin) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to dashboard
	if _, err := a.getSession(r); err == nil {
		http.Redirect(w, r, "/admin/", http.StatusSeeOther)
		return
	}

	_, csrfToken := a.ensureCSRFToken(w, r)
	a.renderLoginPage(w, http.StatusOK, "", csrfToken)
}

// handleLogin processes login form submission
func (a *Admin) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, http.StatusBadRequest, "Invalid form data", csrfToken)
		return
	}

	if !a.validateCSRF(r) {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, http.StatusForbidden, "Invalid request, please try again", csrfToken)
		return
	}

	shell := a.newShell()
	if err := shell.Login(r.Context(), r.FormValue("password")); err != nil {
		a.metrics.ObserveLogin(false)
		a.audit(r.Context(), "", store.AuditLoginFailed, "", map[string]any{"remote_addr": r.RemoteAddr})
		a.logger.Warn("admin login failed", "remote_addr", r.RemoteAddr)

		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, http.StatusUnauthorized, shell.Snapshot().Error, csrfToken)
		return
	}

	session, err := a.createSession(w, r)
	if err != nil {
		a.logger.Error("failed to create session", "error", err)
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, http.StatusInternalServerError, "An error occurred", csrfToken)
		return
	}

	a.mu.Lock()
	a.shells[session.ID] = shell
	a.mu.Unlock()

	a.metrics.ObserveLogin(true)
	a.audit(r.Context(), session.ID, store.AuditLogin, "", nil)
	a.logger.Info("admin login successful", "session_id", session.ID)
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

// handleLogout logs out the current session
func (a *Admin) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		// Validate CSRF - but don't block logout if invalid
		if !a.validateCSRF(r) {
			a.logger.Warn("logout request with invalid CSRF token")
		}
	}

	sess := auth.MustFromContext(r.Context())
	getShell(r).Logout()
	a.dropShell(sess.SessionID)

	if err := a.store.DeleteAdminSession(r.Context(), sess.SessionID); err != nil {
		a.logger.Warn("failed to delete session", "error", err)
	}
	a.audit(r.Context(), sess.SessionID, store.AuditLogout, "", nil)

	// Clear session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
	})

	// Clear CSRF cookie
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// SweepSessions deletes expired session rows and forgets shells whose
// session is gone.
func (a *Admin) SweepSessions(ctx context.Context) (int64, error) {
	n, err := a.store.DeleteExpiredAdminSessions(ctx)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	ids := make([]string, 0, len(a.shells))
	for id := range a.shells {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	for _, id := range ids {
		_, err := a.store.GetAdminSession(ctx, id)
		if errors.Is(err, store.ErrAdminSessionNotFound) {
			a.dropShell(id)
		}
	}

	if n > 0 {
		a.logger.Info("expired sessions removed", "count", n)
	}
	return n, nil
}

// ActiveShells reports how many sessions have a shell in memory.
func (a *Admin) ActiveShells() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.shells)
}

// audit records an action; failures are logged, never returned.
func (a *Admin) audit(ctx context.Context, sessionID string, action store.AuditAction, target string, detail map[string]any) {
	entry := &store.AuditEntry{
		SessionID:  sessionID,
		Action:     action,
		TargetUser: target,
		Detail:     detail,
	}
	if err := a.store.AppendAuditLog(ctx, entry); err != nil {
		a.logger.Error("failed to write audit log", "action", action, "error", err)
	}
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
