// ABOUTME: Tests for the bot user field validation rules
// ABOUTME: Covers every message, mode-dependent rules and whole-record validation

package profile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Username(t *testing.T) {
	create := Context{Mode: ModeCreate, Existing: []string{"alice", "bob_2"}}

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", "Username is required"},
		{"too short", "ab", "Username must be at least 3 characters"},
		{"exactly three", "abc", ""},
		{"hyphen", "a-b", "Only letters, numbers, and underscores allowed"},
		{"space", "bad name", "Only letters, numbers, and underscores allowed"},
		{"unicode letter", "ñandú", "Only letters, numbers, and underscores allowed"},
		{"taken", "alice", "This username is already taken"},
		{"taken with underscore", "bob_2", "This username is already taken"},
		{"case differs", "Alice", ""},
		{"valid", "new_bot_01", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(FieldUser, tt.value, create))
		})
	}
}

func TestValidate_UsernameIgnoredInEditMode(t *testing.T) {
	edit := Context{Mode: ModeEdit, Existing: []string{"alice"}}

	for _, v := range []string{"", "a", "bad name", "alice"} {
		assert.Empty(t, Validate(FieldUser, v, edit), "value %q", v)
	}
}

func TestValidate_Password(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		value string
		want  string
	}{
		{"create empty", ModeCreate, "", "Password is required for new users"},
		{"create short", ModeCreate, "12345", "Password must be at least 6 characters"},
		{"create ok", ModeCreate, "123456", ""},
		{"edit empty keeps current", ModeEdit, "", ""},
		{"edit short", ModeEdit, "abc", "Password must be at least 6 characters"},
		{"edit ok", ModeEdit, "secret99", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(FieldPass, tt.value, Context{Mode: tt.mode}))
		})
	}
}

func TestValidate_Prompts(t *testing.T) {
	vc := Context{Mode: ModeCreate}
	nineteen := strings.Repeat("x", 19)
	twenty := strings.Repeat("x", 20)

	assert.Equal(t, "Text prompt is required", Validate(FieldTextPrompt, "", vc))
	assert.Equal(t, "Prompt is too short (min 20 chars)", Validate(FieldTextPrompt, nineteen, vc))
	assert.Empty(t, Validate(FieldTextPrompt, twenty, vc))

	assert.Equal(t, "Image prompt is required", Validate(FieldImagePrompt, "", vc))
	assert.Equal(t, "Prompt is too short (min 20 chars)", Validate(FieldImagePrompt, nineteen, vc))
	assert.Empty(t, Validate(FieldImagePrompt, twenty, vc))
}

func TestValidate_PromptLengthCountsRunes(t *testing.T) {
	// 20 multi-byte characters is long enough even though it is 40+ bytes.
	prompt := strings.Repeat("é", 20)
	assert.Empty(t, Validate(FieldTextPrompt, prompt, Context{}))
	assert.NotEmpty(t, Validate(FieldTextPrompt, strings.Repeat("é", 19), Context{}))
}

func TestValidateRecord(t *testing.T) {
	rec := UserRecord{
		User:        "x",
		Pass:        "",
		TextPrompt:  "short",
		ImagePrompt: strings.Repeat("i", 25),
	}

	errs := ValidateRecord(rec, Context{Mode: ModeCreate})
	assert.False(t, errs.Empty())
	assert.Equal(t, "Username must be at least 3 characters", errs[FieldUser])
	assert.Equal(t, "Password is required for new users", errs[FieldPass])
	assert.Equal(t, "Prompt is too short (min 20 chars)", errs[FieldTextPrompt])
	_, hasImage := errs[FieldImagePrompt]
	assert.False(t, hasImage)
}

func TestValidateRecord_Valid(t *testing.T) {
	rec := UserRecord{
		User:        "agent_7",
		Pass:        "hunter22",
		TextPrompt:  DefaultTextPrompt,
		ImagePrompt: DefaultImagePrompt,
	}
	assert.True(t, ValidateRecord(rec, Context{Mode: ModeCreate}).Empty())
}

func TestValidationError_Message(t *testing.T) {
	err := error(&ValidationError{Errors: FieldErrors{
		FieldPass: "Password is required for new users",
		FieldUser: "Username is required",
	}})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t,
		"validation failed: pass: Password is required for new users; user: Username is required",
		err.Error())
}

func TestParseField(t *testing.T) {
	f, ok := ParseField("textprompt")
	assert.True(t, ok)
	assert.Equal(t, FieldTextPrompt, f)

	_, ok = ParseField("type")
	assert.False(t, ok)
}
