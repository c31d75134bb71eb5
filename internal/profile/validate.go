// ABOUTME: Field-level validation rules for bot user records
// ABOUTME: Shared by incremental (change/blur) and whole-form (submit) validation

package profile

import (
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Field names one editable field of a UserRecord.
type Field string

const (
	FieldUser        Field = "user"
	FieldPass        Field = "pass"
	FieldTextPrompt  Field = "textprompt"
	FieldImagePrompt Field = "imageprompt"
)

// Fields lists the validated fields in form order.
var Fields = []Field{FieldUser, FieldPass, FieldTextPrompt, FieldImagePrompt}

// ParseField maps a form input name to a Field.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	if slices.Contains(Fields, f) {
		return f, true
	}
	return "", false
}

// Mode distinguishes creating a new record from editing an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

const (
	minUsernameLen = 3
	minPasswordLen = 6
	minPromptLen   = 20
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Context carries what a rule needs beyond the value itself.
// Existing is the set of usernames in the currently loaded list; it is a
// convenience check only, the backend stays authoritative.
type Context struct {
	Mode     Mode
	Existing []string
}

// Validate checks one field and returns an error message, or "" if valid.
func Validate(field Field, value string, vc Context) string {
	switch field {
	case FieldUser:
		if vc.Mode == ModeEdit {
			return ""
		}
		if value == "" {
			return "Username is required"
		}
		if utf8.RuneCountInString(value) < minUsernameLen {
			return "Username must be at least 3 characters"
		}
		if !usernameRegex.MatchString(value) {
			return "Only letters, numbers, and underscores allowed"
		}
		if slices.Contains(vc.Existing, value) {
			return "This username is already taken"
		}
	case FieldPass:
		if vc.Mode == ModeCreate && value == "" {
			return "Password is required for new users"
		}
		if value != "" && utf8.RuneCountInString(value) < minPasswordLen {
			return "Password must be at least 6 characters"
		}
	case FieldTextPrompt:
		if value == "" {
			return "Text prompt is required"
		}
		if utf8.RuneCountInString(value) < minPromptLen {
			return "Prompt is too short (min 20 chars)"
		}
	case FieldImagePrompt:
		if value == "" {
			return "Image prompt is required"
		}
		if utf8.RuneCountInString(value) < minPromptLen {
			return "Prompt is too short (min 20 chars)"
		}
	}
	return ""
}

// FieldErrors maps offending fields to their messages.
type FieldErrors map[Field]string

// Empty reports whether no field has an error.
func (fe FieldErrors) Empty() bool {
	for _, msg := range fe {
		if msg != "" {
			return false
		}
	}
	return true
}

// ValidateRecord runs every field rule against a record.
func ValidateRecord(rec UserRecord, vc Context) FieldErrors {
	errs := FieldErrors{}
	for _, f := range Fields {
		if msg := Validate(f, rec.value(f), vc); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}

// ValidationError reports client-side field violations. It is recovered
// locally and never sent to the network.
type ValidationError struct {
	Errors FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for f, msg := range e.Errors {
		if msg != "" {
			keys = append(keys, string(f))
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed")
	for i, k := range keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(k + ": " + e.Errors[Field(k)])
	}
	return b.String()
}

func (r UserRecord) value(f Field) string {
	switch f {
	case FieldUser:
		return r.User
	case FieldPass:
		return r.Pass
	case FieldTextPrompt:
		return r.TextPrompt
	case FieldImagePrompt:
		return r.ImagePrompt
	}
	return ""
}

func (r *UserRecord) set(f Field, v string) {
	switch f {
	case FieldUser:
		r.User = v
	case FieldPass:
		r.Pass = v
	case FieldTextPrompt:
		r.TextPrompt = v
	case FieldImagePrompt:
		r.ImagePrompt = v
	}
}
