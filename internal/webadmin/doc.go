// Package webadmin provides the web-based administration console.
//
// # Overview
//
// The console lets an operator manage chatbot user profiles stored behind
// the webhook backend:
//
//   - Dashboard: list bot users, refresh, open one for editing
//   - User form: create or edit a profile with inline validation
//   - Activity: the audit log of logins and saves
//   - Help Documentation: embedded help pages
//
// # Architecture
//
// Components:
//
//   - Admin: Main struct coordinating handlers and templates
//   - Shells: one console.Shell per session, kept in memory
//   - Templates: HTML templates embedded in the binary
//   - Store: session rows and the audit log
//
// Every page is rendered from the session's shell. Navigation is a POST that
// runs one shell transition and redirects back to /admin/, so a reload never
// repeats an action.
//
// # Authentication
//
// Login checks the admin password through an auth.Authenticator. A
// successful login stores a session row and sets the bot_console_session
// cookie to a signed JWT naming it. A session that outlives a restart gets a
// fresh shell on the dashboard.
//
// # Form Submission
//
// Each rendered form carries a one-time form_token. A second POST with the
// same token is rejected with 409. Submit outcomes:
//
//   - 303 to /admin/ after a successful save
//   - 422 with inline errors when validation fails
//   - 502 with the error banner when the backend fails; the draft is kept
//
// Password inputs are never pre-filled.
//
// # Help Documentation
//
// Embedded help pages in docs/help/:
//
//   - getting-started.md
//   - managing-users.md
//   - validation.md
//   - configuration.md
//   - troubleshooting.md
//
// Help pages and prompt previews are rendered from markdown with goldmark.
//
// # CSRF Protection
//
// All form submissions require CSRF tokens:
//
//	<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
//
// htmx requests send the token in the X-CSRF-Token header.
//
// # Usage
//
//	admin := webadmin.New(st, client, authn, signer, webadmin.Config{SessionTTL: ttl})
//	defer admin.Close()
//	admin.RegisterRoutes(mux)
package webadmin
