// ABOUTME: Application shell enforcing the console's view transitions
// ABOUTME: Coordinates the authenticator, the webhook backend and the user form

package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/bot-console/internal/auth"
	"github.com/2389/bot-console/internal/profile"
)

// Backend is the remote store of bot users.
type Backend interface {
	ListUsers(ctx context.Context) ([]profile.UserListItem, error)
	GetUser(ctx context.Context, username string) (*profile.UserRecord, error)
	SaveUser(ctx context.Context, rec profile.UserRecord) error
}

// Shell owns the view state of one admin session. The mutex guards state
// only and is never held across a call to the backend or authenticator, so
// overlapping requests are not serialized: the last response wins.
type Shell struct {
	backend  Backend
	authn    auth.Authenticator
	defaults profile.Defaults
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	form  *profile.Form
	// epoch changes on logout so responses from an earlier login are dropped.
	epoch uint64
	// pending counts backend calls in flight; Loading is pending > 0.
	pending int
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// WithDefaults sets the prompts new users start with.
func WithDefaults(d profile.Defaults) Option {
	return func(s *Shell) { s.defaults = d }
}

// NewShell creates a shell in the login view.
func NewShell(backend Backend, authn auth.Authenticator, opts ...Option) *Shell {
	s := &Shell{
		backend:  backend,
		authn:    authn,
		defaults: profile.BuiltinDefaults(),
		logger:   slog.Default().With("component", "console"),
		state:    State{View: ViewLogin},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Shell) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Shell) snapshotLocked() State {
	st := s.state
	st.Users = append([]profile.UserListItem(nil), s.state.Users...)
	return st
}

// Form returns a copy of the active form, or nil outside add/edit.
func (s *Shell) Form() *FormView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotForm(s.form, s.state.Loading)
}

// Login checks the admin password. On success the shell moves to the
// dashboard and loads the user list; a list failure is reported in the
// state but does not fail the login.
func (s *Shell) Login(ctx context.Context, password string) error {
	s.mu.Lock()
	if s.state.View != ViewLogin {
		s.mu.Unlock()
		return fmt.Errorf("login from %s: %w", s.state.View, ErrInvalidTransition)
	}
	s.mu.Unlock()

	if err := s.authn.Authenticate(ctx, password); err != nil {
		s.mu.Lock()
		s.state.Error = MsgInvalidPassword
		s.mu.Unlock()
		return &AuthError{Err: err}
	}

	s.mu.Lock()
	s.state.Error = ""
	s.state.View = ViewDashboard
	s.mu.Unlock()

	s.logger.Info("admin logged in")
	_ = s.loadUsers(ctx)
	return nil
}

// Resume moves a fresh shell straight to the dashboard for a browser that
// already holds a valid session.
func (s *Shell) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.state.View != ViewLogin {
		s.mu.Unlock()
		return fmt.Errorf("resume from %s: %w", s.state.View, ErrInvalidTransition)
	}
	s.state.View = ViewDashboard
	s.mu.Unlock()

	_ = s.loadUsers(ctx)
	return nil
}

// Reload refreshes the user list from the dashboard.
func (s *Shell) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.state.View != ViewDashboard {
		s.mu.Unlock()
		return fmt.Errorf("reload from %s: %w", s.state.View, ErrInvalidTransition)
	}
	s.mu.Unlock()

	return s.loadUsers(ctx)
}

// OpenAdd opens an empty create form seeded with the default prompts.
func (s *Shell) OpenAdd() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.View != ViewDashboard {
		return fmt.Errorf("add from %s: %w", s.state.View, ErrInvalidTransition)
	}

	s.state.Selected = ""
	s.state.Notice = ""
	s.form = profile.NewForm(nil, s.defaults, s.state.Usernames())
	s.state.View = ViewAdd
	return nil
}

// OpenEdit fetches a user's record and opens it for editing. On failure the
// shell stays on the dashboard with an error.
func (s *Shell) OpenEdit(ctx context.Context, username string) error {
	s.mu.Lock()
	if s.state.View != ViewDashboard {
		s.mu.Unlock()
		return fmt.Errorf("edit from %s: %w", s.state.View, ErrInvalidTransition)
	}
	s.state.Error = ""
	s.state.Notice = ""
	s.beginLoadingLocked()
	epoch := s.epoch
	s.mu.Unlock()
	defer s.clearLoading()

	rec, err := s.backend.GetUser(ctx, username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return err
	}
	if err != nil {
		s.logger.Error("failed to load user", "user", username, "error", err)
		s.state.Error = MsgLoadFailed(username)
		return err
	}

	s.state.Selected = username
	s.form = profile.NewForm(rec, s.defaults, s.state.Usernames())
	s.state.View = ViewEdit
	return nil
}

// Cancel abandons the form and returns to the dashboard.
func (s *Shell) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.View != ViewAdd && s.state.View != ViewEdit {
		return fmt.Errorf("cancel from %s: %w", s.state.View, ErrInvalidTransition)
	}

	s.form = nil
	s.state.Selected = ""
	s.state.Notice = ""
	s.state.View = ViewDashboard
	return nil
}

// Input forwards a field change (or blur) to the active form.
func (s *Shell) Input(field profile.Field, value string, blur bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.form == nil {
		return fmt.Errorf("input from %s: %w", s.state.View, ErrInvalidTransition)
	}

	s.form.Change(field, value)
	if blur {
		s.form.Blur(field)
	}
	return nil
}

// SubmitForm validates the active form and, if valid, saves it. A
// validation failure returns *profile.ValidationError and makes no network
// call.
func (s *Shell) SubmitForm(ctx context.Context) error {
	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return fmt.Errorf("submit from %s: %w", s.state.View, ErrInvalidTransition)
	}
	rec, err := s.form.Submit()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.Save(ctx, rec)
}

// Save persists a record. On failure the shell stays on the form with the
// draft intact. On success a newly created user triggers a list reload and
// the shell returns to the dashboard with a notice.
func (s *Shell) Save(ctx context.Context, rec profile.UserRecord) error {
	s.mu.Lock()
	from := s.state.View
	if from != ViewAdd && from != ViewEdit {
		s.mu.Unlock()
		return fmt.Errorf("save from %s: %w", from, ErrInvalidTransition)
	}
	s.state.Error = ""
	s.beginLoadingLocked()
	epoch := s.epoch
	s.mu.Unlock()
	defer s.clearLoading()

	err := s.backend.SaveUser(ctx, rec)
	if err != nil {
		s.logger.Error("failed to save user", "user", rec.User, "error", err)
		s.mu.Lock()
		if epoch == s.epoch {
			s.state.Error = MsgSaveFailed
		}
		s.mu.Unlock()
		return err
	}

	s.logger.Info("user saved", "user", rec.User, "mode", from.String())

	if from == ViewAdd {
		_ = s.loadUsers(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return nil
	}
	s.form = nil
	s.state.Selected = ""
	s.state.View = ViewDashboard
	s.state.Notice = MsgSaved
	return nil
}

// Logout returns to the login view and forgets everything loaded.
func (s *Shell) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.form = nil
	s.state = State{View: ViewLogin}
}

// DismissError clears the error banner.
func (s *Shell) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

// DismissNotice clears the success notice.
func (s *Shell) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Notice = ""
}

// loadUsers fetches the list. Failures set the list error but leave the
// current view alone.
func (s *Shell) loadUsers(ctx context.Context) error {
	s.mu.Lock()
	s.beginLoadingLocked()
	epoch := s.epoch
	s.mu.Unlock()
	defer s.clearLoading()

	users, err := s.backend.ListUsers(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return err
	}
	if err != nil {
		s.logger.Error("failed to load user list", "error", err)
		s.state.Error = MsgListFailed
		return err
	}
	s.state.Users = users
	return nil
}

// beginLoadingLocked marks one more backend call in flight. s.mu must be held.
func (s *Shell) beginLoadingLocked() {
	s.pending++
	s.state.Loading = true
}

func (s *Shell) clearLoading() {
	s.mu.Lock()
	s.pending--
	s.state.Loading = s.pending > 0
	s.mu.Unlock()
}

// IsValidationError reports whether err is a client-side validation failure.
func IsValidationError(err error) bool {
	var verr *profile.ValidationError
	return errors.As(err, &verr)
}
