// ABOUTME: Template rendering functions for admin UI
// ABOUTME: Loads templates from embedded filesystem and renders them

package webadmin

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"

	"github.com/2389/bot-console/internal/console"
	"github.com/2389/bot-console/internal/profile"
	"github.com/2389/bot-console/internal/store"
)

// Template data types
type loginData struct {
	Title     string
	Error     string
	CSRFToken string
}

type userRow struct {
	Name     string
	EditPath string
}

type dashboardData struct {
	Title     string
	CSRFToken string
	Users     []userRow
	Loading   bool
	Error     string
	Notice    string
}

type fieldData struct {
	Name      string
	Value     string
	Error     string
	Touched   bool
	Valid     bool
	Available bool
}

type userFormData struct {
	Title               string
	CSRFToken           string
	FormToken           string
	Error               string
	Notice              string
	Edit                bool
	SubmitLabel         string
	PasswordPlaceholder string
	SubmitDisabled      bool
	User                fieldData
	Pass                fieldData
	TextPrompt          fieldData
	ImagePrompt         fieldData
}

// submitButtonData renders the form's submit control. OOB marks the copy sent
// with field updates so htmx swaps it in place.
type submitButtonData struct {
	Label    string
	Disabled bool
	OOB      bool
}

// fieldUpdateData is the response to a single field edit.
type fieldUpdateData struct {
	Field  fieldData
	Submit submitButtonData
}

// SubmitButton returns the submit control for the full page.
func (d userFormData) SubmitButton() submitButtonData {
	return submitButtonData{Label: d.SubmitLabel, Disabled: d.SubmitDisabled}
}

func submitLabel(form *console.FormView) string {
	if form.Mode == profile.ModeEdit {
		return "Save Changes"
	}
	return "Create User"
}

type activityRow struct {
	Time       string
	Action     store.AuditAction
	TargetUser string
	SessionID  string
	Detail     string
}

type activityData struct {
	Title     string
	CSRFToken string
	Entries   []activityRow
	Actions   []store.AuditAction
	Selected  string
}

type helpData struct {
	Title     string
	CSRFToken string
	Topics    []helpTopic
	Content   template.HTML
}

type previewData struct {
	Content template.HTML
}

// newFieldData builds the render state of one form field. Passwords are
// never echoed back.
func newFieldData(field profile.Field, form *console.FormView) fieldData {
	fv := form.Field(field)
	fd := fieldData{
		Name:    string(field),
		Value:   fv.Value,
		Error:   fv.Error,
		Touched: fv.Touched,
		Valid:   fv.Valid,
	}
	if field == profile.FieldPass {
		fd.Value = ""
	}
	if field == profile.FieldUser && !form.UsernameLocked {
		fd.Available = fv.Touched && fv.Valid
	}
	return fd
}

func newActivityRow(e store.AuditEntry) activityRow {
	row := activityRow{
		Time:       e.Timestamp.Local().Format("2006-01-02 15:04:05"),
		Action:     e.Action,
		TargetUser: e.TargetUser,
		SessionID:  e.SessionID,
	}
	if len(row.SessionID) > 8 {
		row.SessionID = row.SessionID[:8]
	}
	if len(e.Detail) > 0 {
		if b, err := json.Marshal(e.Detail); err == nil {
			row.Detail = string(b)
		}
	}
	return row
}

// renderPage renders a full page inside the base layout
func (a *Admin) renderPage(w http.ResponseWriter, status int, page string, data any) {
	tmpl := template.Must(template.ParseFS(templateFS,
		"templates/base.html",
		"templates/partials/*.html",
		"templates/"+page,
	))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render page", "page", page, "error", err)
	}
}

// renderPartial renders an htmx fragment
func (a *Admin) renderPartial(w http.ResponseWriter, partial string, data any) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/partials/*.html"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, partial, data); err != nil {
		a.logger.Error("failed to render partial", "partial", partial, "error", err)
	}
}

// renderLoginPage renders the login page
func (a *Admin) renderLoginPage(w http.ResponseWriter, status int, errorMsg, csrfToken string) {
	a.renderPage(w, status, "login.html", loginData{
		Title:     "Admin Login",
		Error:     errorMsg,
		CSRFToken: csrfToken,
	})
}

// renderDashboard renders the user list
func (a *Admin) renderDashboard(w http.ResponseWriter, status int, state console.State, csrfToken string) {
	rows := make([]userRow, 0, len(state.Users))
	for _, name := range state.Usernames() {
		rows = append(rows, userRow{
			Name:     name,
			EditPath: "/admin/users/" + url.PathEscape(name) + "/edit",
		})
	}

	a.renderPage(w, status, "dashboard.html", dashboardData{
		Title:     "Bot Users",
		CSRFToken: csrfToken,
		Users:     rows,
		Loading:   state.Loading,
		Error:     state.Error,
		Notice:    state.Notice,
	})
}

// renderUserForm renders the add or edit form
func (a *Admin) renderUserForm(w http.ResponseWriter, status int, state console.State, form *console.FormView, formToken, csrfToken string) {
	data := userFormData{
		Title:               "New Bot User Configuration",
		CSRFToken:           csrfToken,
		FormToken:           formToken,
		Error:               state.Error,
		Notice:              state.Notice,
		SubmitLabel:         submitLabel(form),
		PasswordPlaceholder: "Minimum 6 characters",
		SubmitDisabled:      form.SubmitDisabled,
		User:                newFieldData(profile.FieldUser, form),
		Pass:                newFieldData(profile.FieldPass, form),
		TextPrompt:          newFieldData(profile.FieldTextPrompt, form),
		ImagePrompt:         newFieldData(profile.FieldImagePrompt, form),
	}
	if form.Mode == profile.ModeEdit {
		data.Edit = true
		data.Title = "Edit Configuration: " + state.Selected
		data.PasswordPlaceholder = "Leave empty to keep current"
	}

	a.renderPage(w, status, "user_form.html", data)
}

// renderFieldUpdate renders the inline status of one field and an
// out-of-band copy of the submit button (htmx response)
func (a *Admin) renderFieldUpdate(w http.ResponseWriter, field profile.Field, form *console.FormView) {
	a.renderPartial(w, "field_update.html", fieldUpdateData{
		Field: newFieldData(field, form),
		Submit: submitButtonData{
			Label:    submitLabel(form),
			Disabled: form.SubmitDisabled,
			OOB:      true,
		},
	})
}

// renderPreview renders converted markdown (htmx response)
func (a *Admin) renderPreview(w http.ResponseWriter, html string) {
	a.renderPartial(w, "preview.html", previewData{Content: template.HTML(html)})
}
