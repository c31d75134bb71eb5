// ABOUTME: Tests for the console shell transition table
// ABOUTME: Uses a fake backend to check network calls, errors and state after each action

package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/bot-console/internal/auth"
	"github.com/2389/bot-console/internal/profile"
	"github.com/2389/bot-console/internal/webhook"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	mu      sync.Mutex
	users   []profile.UserListItem
	records map[string]*profile.UserRecord

	listErr error
	getErr  error
	saveErr error

	listCalls int
	getCalls  int
	saved     []profile.UserRecord

	// When set, ListUsers blocks until released.
	listGate chan struct{}
}

func newFakeBackend(names ...string) *fakeBackend {
	fb := &fakeBackend{records: make(map[string]*profile.UserRecord)}
	for _, n := range names {
		fb.users = append(fb.users, profile.UserListItem{User: n})
		fb.records[n] = &profile.UserRecord{
			User:        n,
			Pass:        webhook.HashPassword("stored-secret"),
			TextPrompt:  "text prompt for " + n + " padded out",
			ImagePrompt: "image prompt for " + n + " padded out",
			Type:        "1",
		}
	}
	return fb
}

func (f *fakeBackend) ListUsers(ctx context.Context) ([]profile.UserListItem, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.listGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]profile.UserListItem(nil), f.users...), nil
}

func (f *fakeBackend) GetUser(ctx context.Context, username string) (*profile.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[username]
	if !ok {
		return nil, &webhook.NetworkError{Op: webhook.OpGet, Err: webhook.ErrEmptyPayload}
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeBackend) SaveUser(ctx context.Context, rec profile.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, rec)
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.records[rec.User]; !ok {
		f.users = append(f.users, profile.UserListItem{User: rec.User})
	}
	cp := rec
	f.records[rec.User] = &cp
	return nil
}

func (f *fakeBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newTestShell(fb *fakeBackend) *Shell {
	return NewShell(fb, auth.NewStaticPassword(auth.DefaultAdminPassword),
		WithDefaults(profile.Defaults{
			TextPrompt:  "default text prompt, long enough",
			ImagePrompt: "default image prompt, long enough",
		}))
}

func loggedInShell(t *testing.T, fb *fakeBackend) *Shell {
	t.Helper()
	s := newTestShell(fb)
	require.NoError(t, s.Login(context.Background(), "admin123"))
	require.Equal(t, ViewDashboard, s.Snapshot().View)
	return s
}

var errBackend500 = &webhook.NetworkError{Op: webhook.OpSave, StatusCode: 500, Err: errors.New("unexpected status 500")}

func TestLogin_WrongPassword(t *testing.T) {
	fb := newFakeBackend("alice")
	s := newTestShell(fb)

	err := s.Login(context.Background(), "wrong")
	require.Error(t, err)

	var aerr *AuthError
	require.True(t, errors.As(err, &aerr))
	assert.ErrorIs(t, err, auth.ErrInvalidPassword)

	st := s.Snapshot()
	assert.Equal(t, ViewLogin, st.View)
	assert.Equal(t, "Invalid admin password", st.Error)
	assert.Zero(t, fb.listCalls, "no network call on failed login")
}

func TestLogin_Success(t *testing.T) {
	fb := newFakeBackend("alice", "bob")
	s := newTestShell(fb)

	// A previous failure leaves an error that success clears.
	_ = s.Login(context.Background(), "nope")
	require.NoError(t, s.Login(context.Background(), "admin123"))

	st := s.Snapshot()
	assert.Equal(t, ViewDashboard, st.View)
	assert.Empty(t, st.Error)
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"alice", "bob"}, st.Usernames())
	assert.Equal(t, 1, fb.listCalls)
}

func TestLogin_ListFailureStaysOnDashboard(t *testing.T) {
	fb := newFakeBackend()
	fb.listErr = &webhook.NetworkError{Op: webhook.OpList, StatusCode: 502, Err: errors.New("bad gateway")}
	s := newTestShell(fb)

	require.NoError(t, s.Login(context.Background(), "admin123"))

	st := s.Snapshot()
	assert.Equal(t, ViewDashboard, st.View)
	assert.Equal(t, "Failed to load user list. Please try again.", st.Error)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Users)
}

func TestLogin_FromDashboardIsInvalid(t *testing.T) {
	s := loggedInShell(t, newFakeBackend())
	assert.ErrorIs(t, s.Login(context.Background(), "admin123"), ErrInvalidTransition)
}

func TestResume(t *testing.T) {
	fb := newFakeBackend("alice")
	s := newTestShell(fb)

	require.NoError(t, s.Resume(context.Background()))
	assert.Equal(t, ViewDashboard, s.Snapshot().View)
	assert.Equal(t, 1, fb.listCalls)

	assert.ErrorIs(t, s.Resume(context.Background()), ErrInvalidTransition)
}

func TestInvalidTransitionsFromLogin(t *testing.T) {
	s := newTestShell(newFakeBackend("alice"))
	ctx := context.Background()

	assert.ErrorIs(t, s.OpenAdd(), ErrInvalidTransition)
	assert.ErrorIs(t, s.OpenEdit(ctx, "alice"), ErrInvalidTransition)
	assert.ErrorIs(t, s.Cancel(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Reload(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, s.SubmitForm(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, s.Save(ctx, profile.UserRecord{User: "x"}), ErrInvalidTransition)
	assert.ErrorIs(t, s.Input(profile.FieldUser, "x", true), ErrInvalidTransition)
	assert.Equal(t, ViewLogin, s.Snapshot().View)
}

func TestOpenAdd_SeedsDefaults(t *testing.T) {
	s := loggedInShell(t, newFakeBackend("alice"))

	require.NoError(t, s.OpenAdd())
	st := s.Snapshot()
	assert.Equal(t, ViewAdd, st.View)
	assert.Empty(t, st.Selected)

	form := s.Form()
	require.NotNil(t, form)
	assert.Equal(t, profile.ModeCreate, form.Mode)
	assert.False(t, form.UsernameLocked)
	assert.Equal(t, "default text prompt, long enough", form.Field(profile.FieldTextPrompt).Value)
	assert.Empty(t, form.Field(profile.FieldPass).Value)
}

func TestOpenEdit_Success(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)

	require.NoError(t, s.OpenEdit(context.Background(), "alice"))

	st := s.Snapshot()
	assert.Equal(t, ViewEdit, st.View)
	assert.Equal(t, "alice", st.Selected)
	assert.False(t, st.Loading)

	form := s.Form()
	require.NotNil(t, form)
	assert.True(t, form.UsernameLocked)
	assert.Empty(t, form.Field(profile.FieldPass).Value, "stored digest is never exposed")
	assert.Equal(t, "alice", form.Field(profile.FieldUser).Value)
}

func TestOpenEdit_FailureStaysOnDashboard(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)

	err := s.OpenEdit(context.Background(), "ghost")
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, ViewDashboard, st.View)
	assert.Equal(t, "Failed to load data for ghost", st.Error)
	assert.False(t, st.Loading)
	assert.Nil(t, s.Form())
}

func TestCancel_DiscardsForm(t *testing.T) {
	s := loggedInShell(t, newFakeBackend())
	require.NoError(t, s.OpenAdd())
	require.NoError(t, s.Input(profile.FieldUser, "draft_user", false))

	require.NoError(t, s.Cancel())
	assert.Equal(t, ViewDashboard, s.Snapshot().View)
	assert.Nil(t, s.Form())

	// Reopening starts fresh.
	require.NoError(t, s.OpenAdd())
	assert.Empty(t, s.Form().Field(profile.FieldUser).Value)
}

func TestSubmitForm_DuplicateUsernameMakesNoNetworkCall(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)
	require.NoError(t, s.OpenAdd())

	require.NoError(t, s.Input(profile.FieldUser, "alice", false))
	require.NoError(t, s.Input(profile.FieldPass, "secret1", false))

	err := s.SubmitForm(context.Background())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Zero(t, fb.saveCount())

	assert.Equal(t, ViewAdd, s.Snapshot().View)
	form := s.Form()
	assert.Equal(t, "This username is already taken", form.Field(profile.FieldUser).Error)
	assert.True(t, form.SubmitDisabled)
}

func TestSubmitForm_CreateSuccess(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)
	require.NoError(t, s.OpenAdd())

	require.NoError(t, s.Input(profile.FieldUser, "new_bot", true))
	require.NoError(t, s.Input(profile.FieldPass, "secret1", true))

	require.NoError(t, s.SubmitForm(context.Background()))

	require.Equal(t, 1, fb.saveCount())
	assert.Equal(t, "new_bot", fb.saved[0].User)
	assert.Equal(t, "secret1", fb.saved[0].Pass, "shell passes plaintext; the client hashes")
	assert.Equal(t, "1", fb.saved[0].Type)

	st := s.Snapshot()
	assert.Equal(t, ViewDashboard, st.View)
	assert.Equal(t, "User updated successfully!", st.Notice)
	assert.Equal(t, 2, fb.listCalls, "list reloaded after create")
	assert.Contains(t, st.Usernames(), "new_bot")
	assert.Nil(t, s.Form())
}

func TestNotice_ClearedOnNavigation(t *testing.T) {
	saved := func(t *testing.T) (*Shell, *fakeBackend) {
		fb := newFakeBackend("alice")
		s := loggedInShell(t, fb)
		require.NoError(t, s.OpenEdit(context.Background(), "alice"))
		require.NoError(t, s.SubmitForm(context.Background()))
		require.Equal(t, MsgSaved, s.Snapshot().Notice)
		return s, fb
	}

	t.Run("add", func(t *testing.T) {
		s, _ := saved(t)
		require.NoError(t, s.OpenAdd())
		assert.Empty(t, s.Snapshot().Notice)
	})

	t.Run("edit", func(t *testing.T) {
		s, _ := saved(t)
		require.NoError(t, s.OpenEdit(context.Background(), "alice"))
		assert.Empty(t, s.Snapshot().Notice)
	})

	t.Run("cancel", func(t *testing.T) {
		s, _ := saved(t)
		require.NoError(t, s.OpenAdd())
		s.mu.Lock()
		s.state.Notice = MsgSaved
		s.mu.Unlock()
		require.NoError(t, s.Cancel())
		assert.Empty(t, s.Snapshot().Notice)
	})
}

func TestLoading_StaysSetWhileAnyCallIsInFlight(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)

	fb.mu.Lock()
	fb.listGate = make(chan struct{})
	gate := fb.listGate
	fb.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Reload(context.Background()) }()

	require.Eventually(t, func() bool {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return fb.listCalls == 2
	}, time.Second, time.Millisecond)

	// A second call finishing first must not clear the flag
	require.NoError(t, s.OpenEdit(context.Background(), "alice"))
	assert.True(t, s.Snapshot().Loading, "list reload still in flight")

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().Loading)
}

func TestSave_CreateClearsLoadingOnlyAtTheEnd(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)
	require.NoError(t, s.OpenAdd())
	require.NoError(t, s.Input(profile.FieldUser, "new_bot", true))
	require.NoError(t, s.Input(profile.FieldPass, "secret1", true))

	require.NoError(t, s.SubmitForm(context.Background()))

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Zero(t, s.pending)
	assert.False(t, s.state.Loading)
}

func TestSubmitForm_EditDoesNotReload(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)
	require.NoError(t, s.OpenEdit(context.Background(), "alice"))

	require.NoError(t, s.Input(profile.FieldTextPrompt, strings.Repeat("updated ", 4), true))
	require.NoError(t, s.SubmitForm(context.Background()))

	require.Equal(t, 1, fb.saveCount())
	assert.Equal(t, "alice", fb.saved[0].User)
	assert.Empty(t, fb.saved[0].Pass, "empty password keeps the stored one")
	assert.Equal(t, 1, fb.listCalls)
	assert.Equal(t, ViewDashboard, s.Snapshot().View)
}

func TestSave_ServerErrorKeepsDraft(t *testing.T) {
	for _, view := range []View{ViewAdd, ViewEdit} {
		t.Run(view.String(), func(t *testing.T) {
			fb := newFakeBackend("alice")
			s := loggedInShell(t, fb)

			if view == ViewAdd {
				require.NoError(t, s.OpenAdd())
				require.NoError(t, s.Input(profile.FieldUser, "new_bot", false))
				require.NoError(t, s.Input(profile.FieldPass, "secret1", false))
			} else {
				require.NoError(t, s.OpenEdit(context.Background(), "alice"))
			}
			require.NoError(t, s.Input(profile.FieldTextPrompt, "draft text prompt kept after failure", false))

			fb.saveErr = errBackend500
			err := s.SubmitForm(context.Background())
			require.Error(t, err)

			var nerr *webhook.NetworkError
			require.True(t, errors.As(err, &nerr))
			assert.Equal(t, 500, nerr.StatusCode)

			st := s.Snapshot()
			assert.Equal(t, view, st.View)
			assert.Equal(t, "Failed to save user data.", st.Error)
			assert.False(t, st.Loading)
			assert.Empty(t, st.Notice)
			assert.Equal(t, "draft text prompt kept after failure", s.Form().Field(profile.FieldTextPrompt).Value)
		})
	}
}

func TestSave_ClearsPreviousError(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)
	require.NoError(t, s.OpenEdit(context.Background(), "alice"))

	fb.saveErr = errBackend500
	require.Error(t, s.SubmitForm(context.Background()))
	require.NotEmpty(t, s.Snapshot().Error)

	fb.saveErr = nil
	require.NoError(t, s.SubmitForm(context.Background()))
	assert.Empty(t, s.Snapshot().Error)
}

func TestReload(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)

	fb.mu.Lock()
	fb.users = append(fb.users, profile.UserListItem{User: "zed"})
	fb.mu.Unlock()

	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, []string{"alice", "zed"}, s.Snapshot().Usernames())
}

func TestLogout_ClearsEverything(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)
	require.NoError(t, s.OpenEdit(context.Background(), "alice"))
	fb.saveErr = errBackend500
	_ = s.SubmitForm(context.Background())

	s.Logout()

	st := s.Snapshot()
	assert.Equal(t, ViewLogin, st.View)
	assert.Empty(t, st.Users)
	assert.Empty(t, st.Selected)
	assert.Empty(t, st.Error)
	assert.Empty(t, st.Notice)
	assert.Nil(t, s.Form())
}

func TestLogout_DropsLateListResponse(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)

	fb.mu.Lock()
	fb.listGate = make(chan struct{})
	gate := fb.listGate
	fb.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Reload(context.Background()) }()

	// Wait until the reload is in flight.
	require.Eventually(t, func() bool {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return fb.listCalls == 2
	}, time.Second, time.Millisecond)

	assert.True(t, s.Snapshot().Loading)
	s.Logout()
	close(gate)
	require.NoError(t, <-done)

	st := s.Snapshot()
	assert.Equal(t, ViewLogin, st.View)
	assert.Empty(t, st.Users)
}

func TestDismiss(t *testing.T) {
	fb := newFakeBackend("alice")
	s := loggedInShell(t, fb)
	require.NoError(t, s.OpenAdd())
	require.NoError(t, s.Input(profile.FieldUser, "new_bot", false))
	require.NoError(t, s.Input(profile.FieldPass, "secret1", false))
	require.NoError(t, s.SubmitForm(context.Background()))
	require.NotEmpty(t, s.Snapshot().Notice)

	s.DismissNotice()
	assert.Empty(t, s.Snapshot().Notice)

	_ = s.OpenEdit(context.Background(), "ghost")
	require.NotEmpty(t, s.Snapshot().Error)
	s.DismissError()
	assert.Empty(t, s.Snapshot().Error)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := loggedInShell(t, newFakeBackend("alice"))

	st := s.Snapshot()
	st.Users[0].User = "mutated"
	assert.Equal(t, "alice", s.Snapshot().Users[0].User)
}
