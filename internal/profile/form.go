// ABOUTME: Form state machine for one create or edit session of a bot user
// ABOUTME: Tracks the draft record, touched fields and per-field errors

package profile

// FormState is where an editing session stands.
type FormState int

const (
	StatePristine FormState = iota
	StateEditing
	StateSubmitAttempted
)

func (s FormState) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitAttempted:
		return "submit-attempted"
	default:
		return "pristine"
	}
}

// Form owns a mutable draft of one UserRecord. It never performs I/O; a
// successful Submit hands the record back to the caller.
// Form is not safe for concurrent use.
type Form struct {
	draft   UserRecord
	mode    Mode
	vc      Context
	errors  FieldErrors
	touched map[Field]bool
	state   FormState
}

// NewForm starts an editing session. A nil initial record opens a create
// form seeded with the default prompts; otherwise the form edits a copy of
// initial with the password cleared.
func NewForm(initial *UserRecord, defaults Defaults, existing []string) *Form {
	f := &Form{
		errors:  FieldErrors{},
		touched: make(map[Field]bool),
	}

	if initial == nil {
		f.mode = ModeCreate
		f.draft = UserRecord{
			TextPrompt:  defaults.TextPrompt,
			ImagePrompt: defaults.ImagePrompt,
			Type:        DefaultType,
		}
	} else {
		f.mode = ModeEdit
		f.draft = *initial
		f.draft.Pass = ""
	}

	f.vc = Context{Mode: f.mode, Existing: append([]string(nil), existing...)}
	return f
}

// Mode reports whether the form creates or edits.
func (f *Form) Mode() Mode { return f.mode }

// State reports the current session state.
func (f *Form) State() FormState { return f.state }

// Record returns a copy of the draft.
func (f *Form) Record() UserRecord { return f.draft }

// Value returns the draft value of a field.
func (f *Form) Value(field Field) string { return f.draft.value(field) }

// UsernameLocked reports whether the username is immutable.
func (f *Form) UsernameLocked() bool { return f.mode == ModeEdit }

// Change updates a field. Touched fields are re-validated immediately.
func (f *Form) Change(field Field, value string) {
	if field == FieldUser && f.UsernameLocked() {
		return
	}
	f.draft.set(field, value)
	f.markEditing()

	if f.touched[field] {
		f.validateField(field)
	}
}

// Blur marks a field touched and validates it.
func (f *Form) Blur(field Field) {
	f.touched[field] = true
	f.markEditing()
	f.validateField(field)
}

// Submit validates every field and marks all of them touched. On success it
// returns a copy of the draft; otherwise a *ValidationError and the draft is
// kept for correction.
func (f *Form) Submit() (UserRecord, error) {
	f.errors = ValidateRecord(f.draft, f.vc)
	for _, field := range Fields {
		f.touched[field] = true
	}
	f.state = StateSubmitAttempted

	if !f.errors.Empty() {
		errs := make(FieldErrors, len(f.errors))
		for k, v := range f.errors {
			errs[k] = v
		}
		return UserRecord{}, &ValidationError{Errors: errs}
	}
	return f.draft, nil
}

// Error returns the message to show next to a field. Errors on untouched
// fields stay hidden.
func (f *Form) Error(field Field) string {
	if !f.touched[field] {
		return ""
	}
	return f.errors[field]
}

// Touched reports whether the field has been blurred or submitted.
func (f *Form) Touched(field Field) bool { return f.touched[field] }

// Valid reports a touched field with a value and no error.
func (f *Form) Valid(field Field) bool {
	return f.touched[field] && f.errors[field] == "" && f.draft.value(field) != ""
}

// HasErrors reports whether any known error exists.
func (f *Form) HasErrors() bool { return !f.errors.Empty() }

// SubmitDisabled mirrors the submit control: disabled while submitting, or
// while any known error exists after at least one field was touched.
func (f *Form) SubmitDisabled(submitting bool) bool {
	if submitting {
		return true
	}
	return f.HasErrors() && len(f.touched) > 0
}

func (f *Form) validateField(field Field) {
	if msg := Validate(field, f.draft.value(field), f.vc); msg != "" {
		f.errors[field] = msg
	} else {
		delete(f.errors, field)
	}
}

func (f *Form) markEditing() {
	if f.state == StatePristine {
		f.state = StateEditing
	}
}
