// ABOUTME: View state of one admin console session
// ABOUTME: Defines View, State and the read-only form snapshot used for rendering

package console

import (
	"errors"
	"fmt"

	"github.com/2389/bot-console/internal/profile"
)

// View is the screen the admin is looking at.
type View int

const (
	ViewLogin View = iota
	ViewDashboard
	ViewAdd
	ViewEdit
)

func (v View) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewAdd:
		return "add"
	case ViewEdit:
		return "edit"
	default:
		return "login"
	}
}

// User-facing messages.
const (
	MsgInvalidPassword = "Invalid admin password"
	MsgListFailed      = "Failed to load user list. Please try again."
	MsgSaveFailed      = "Failed to save user data."
	MsgSaved           = "User updated successfully!"
)

// MsgLoadFailed is shown when one user's record cannot be fetched.
func MsgLoadFailed(username string) string {
	return "Failed to load data for " + username
}

// ErrInvalidTransition is returned when an action is not allowed from the
// current view.
var ErrInvalidTransition = errors.New("invalid transition")

// AuthError reports a rejected login.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// State is a copy of a session's view state.
type State struct {
	View     View
	Users    []profile.UserListItem
	Selected string // username being edited, empty otherwise
	Loading  bool
	Error    string
	Notice   string
}

// Usernames returns the loaded usernames in list order.
func (s State) Usernames() []string {
	return profile.Usernames(s.Users)
}

// FieldView is the render state of one form field.
type FieldView struct {
	Value   string
	Error   string
	Touched bool
	Valid   bool
}

// FormView is a copy of the active form, safe to render.
type FormView struct {
	Mode           profile.Mode
	State          profile.FormState
	Fields         map[profile.Field]FieldView
	UsernameLocked bool
	SubmitDisabled bool
}

// Field returns the view of one field.
func (f FormView) Field(name profile.Field) FieldView {
	return f.Fields[name]
}

func snapshotForm(form *profile.Form, submitting bool) *FormView {
	if form == nil {
		return nil
	}
	fv := &FormView{
		Mode:           form.Mode(),
		State:          form.State(),
		Fields:         make(map[profile.Field]FieldView, len(profile.Fields)),
		UsernameLocked: form.UsernameLocked(),
		SubmitDisabled: form.SubmitDisabled(submitting),
	}
	for _, field := range profile.Fields {
		fv.Fields[field] = FieldView{
			Value:   form.Value(field),
			Error:   form.Error(field),
			Touched: form.Touched(field),
			Valid:   form.Valid(field),
		}
	}
	return fv
}
