// ABOUTME: Handlers for the dashboard and the bot user form
// ABOUTME: Drives the session's console shell and renders its current view

package webadmin

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/2389/bot-console/internal/auth"
	"github.com/2389/bot-console/internal/console"
	"github.com/2389/bot-console/internal/dedupe"
	"github.com/2389/bot-console/internal/profile"
	"github.com/2389/bot-console/internal/store"
)

// maxPreviewBytes caps the markdown accepted by the preview endpoint
const maxPreviewBytes = 64 << 10

// handleShell renders whichever view the session's shell is on
func (a *Admin) handleShell(w http.ResponseWriter, r *http.Request) {
	a.renderShell(w, r, http.StatusOK)
}

func (a *Admin) renderShell(w http.ResponseWriter, r *http.Request, status int) {
	shell := getShell(r)
	state := shell.Snapshot()

	switch state.View {
	case console.ViewAdd, console.ViewEdit:
		form := shell.Form()
		if form == nil {
			http.Redirect(w, r, "/admin/", http.StatusSeeOther)
			return
		}
		a.renderUserForm(w, status, state, form, a.forms.Issue(), getCSRFToken(r))
	case console.ViewDashboard:
		a.renderDashboard(w, status, state, getCSRFToken(r))
	default:
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
	}
}

// redirectHome finishes a navigation POST
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

// handleOpenAdd opens the create form
func (a *Admin) handleOpenAdd(w http.ResponseWriter, r *http.Request) {
	if err := getShell(r).OpenAdd(); err != nil {
		a.logger.Debug("open add ignored", "error", err)
	}
	redirectHome(w, r)
}

// handleOpenEdit loads a user's record into the edit form
func (a *Admin) handleOpenEdit(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("user")
	if username == "" {
		http.Error(w, "Missing user", http.StatusBadRequest)
		return
	}

	// Fetch failures are shown on the dashboard banner
	if err := getShell(r).OpenEdit(r.Context(), username); errors.Is(err, console.ErrInvalidTransition) {
		a.logger.Debug("open edit ignored", "error", err)
	}
	redirectHome(w, r)
}

// handleCancel abandons the form
func (a *Admin) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := getShell(r).Cancel(); err != nil {
		a.logger.Debug("cancel ignored", "error", err)
	}
	redirectHome(w, r)
}

// handleRefresh reloads the user list
func (a *Admin) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := getShell(r).Reload(r.Context()); errors.Is(err, console.ErrInvalidTransition) {
		a.logger.Debug("refresh ignored", "error", err)
	}
	redirectHome(w, r)
}

// handleDismiss clears the error banner or the success notice
func (a *Admin) handleDismiss(w http.ResponseWriter, r *http.Request) {
	shell := getShell(r)
	switch r.FormValue("what") {
	case "notice":
		shell.DismissNotice()
	default:
		shell.DismissError()
	}

	if isHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	redirectHome(w, r)
}

// handleFieldChange applies one field edit and returns its status partial
// plus the submit button, which follows the form's error state (HTMX)
func (a *Admin) handleFieldChange(w http.ResponseWriter, r *http.Request) {
	field, ok := profile.ParseField(r.FormValue("field"))
	if !ok {
		http.Error(w, "Unknown field", http.StatusBadRequest)
		return
	}

	shell := getShell(r)
	blur := r.FormValue("event") == "blur"
	if err := shell.Input(field, r.FormValue(string(field)), blur); err != nil {
		http.Error(w, "No form is open", http.StatusConflict)
		return
	}

	form := shell.Form()
	if form == nil {
		http.Error(w, "No form is open", http.StatusConflict)
		return
	}
	a.renderFieldUpdate(w, field, form)
}

// handleSubmit applies every posted field and submits the form
func (a *Admin) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := a.forms.Consume(r.FormValue("form_token")); err != nil {
		msg := "This form was already submitted."
		if errors.Is(err, dedupe.ErrUnknownToken) {
			msg = "This form has expired. Please reload the page."
		}
		http.Error(w, msg, http.StatusConflict)
		return
	}

	shell := getShell(r)
	before := shell.Form()
	if before == nil {
		redirectHome(w, r)
		return
	}

	for _, field := range profile.Fields {
		if _, posted := r.PostForm[string(field)]; !posted {
			continue
		}
		if err := shell.Input(field, r.PostFormValue(string(field)), true); err != nil {
			redirectHome(w, r)
			return
		}
	}

	after := shell.Form()
	if after == nil {
		redirectHome(w, r)
		return
	}
	target := after.Fields[profile.FieldUser].Value
	sess := auth.MustFromContext(r.Context())

	err := shell.SubmitForm(r.Context())
	switch {
	case err == nil:
		action := store.AuditUpdateUser
		if before.Mode == profile.ModeCreate {
			action = store.AuditCreateUser
		}
		a.audit(r.Context(), sess.SessionID, action, target, nil)
		redirectHome(w, r)
	case console.IsValidationError(err):
		a.renderShell(w, r, http.StatusUnprocessableEntity)
	case errors.Is(err, console.ErrInvalidTransition):
		redirectHome(w, r)
	default:
		a.audit(r.Context(), sess.SessionID, store.AuditSaveFailed, target, map[string]any{"error": err.Error()})
		a.renderShell(w, r, http.StatusBadGateway)
	}
}

// handlePreview renders a prompt as markdown (HTMX)
func (a *Admin) handlePreview(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("text")
	if len(text) > maxPreviewBytes {
		http.Error(w, "Prompt too large to preview", http.StatusRequestEntityTooLarge)
		return
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &htmlBuf); err != nil {
		a.logger.Error("failed to convert markdown", "error", err)
		htmlBuf.Reset()
		htmlBuf.WriteString("<p>Failed to render preview.</p>")
	}
	a.renderPreview(w, htmlBuf.String())
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
