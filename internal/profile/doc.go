// Package profile defines bot user records and the rules for editing them.
//
// # Overview
//
// A bot user is a record held by the remote webhook backend: a username,
// a password (write-only from the console's point of view), a text prompt,
// an image prompt and a category code. This package knows nothing about
// HTTP; it owns the data shape, the validation rules and the form state
// machine that the web console drives.
//
// # Validation
//
// Validate checks one field and returns a human-readable message or "".
// The same rules serve incremental validation (on change and blur) and
// whole-form validation (on submit):
//
//	user         create only: required, >= 3 chars, [A-Za-z0-9_]+, not taken
//	pass         required on create; if present, >= 6 chars
//	textprompt   required, >= 20 chars
//	imageprompt  required, >= 20 chars
//
// Lengths are counted in runes.
//
// # Form
//
// A Form moves through three states:
//
//	pristine -> editing -> submit-attempted
//
// Errors are only shown for touched fields. Submit touches every field.
// In edit mode the username is locked and an empty password means the
// stored password is kept.
package profile
