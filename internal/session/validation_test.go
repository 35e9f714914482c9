package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegistrationAcceptsCompleteDraft(t *testing.T) {
	d := RegistrationDraft{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		Username:        "ada",
		AgreeToTerms:    true,
	}
	assert.Empty(t, ValidateRegistration(d))

	d.Email = " "
	d.Password = ""
	d.ConfirmPassword = ""
	d.Username = ""
	assert.Equal(t, Errors{
		"email":    "Email is required",
		"password": "Password is required",
		"username": "Username is required",
	}, ValidateRegistration(d))
}

func TestValidateLoginEmailShapes(t *testing.T) {
	cases := map[string]bool{
		"ada@example.com":   true,
		" ada@example.com ": true,
		"ada@example":       false,
		"ada example@x.io":  false,
		"@example.com":      false,
	}
	for email, valid := range cases {
		errs := ValidateLogin(email, "pw")
		if valid {
			assert.Empty(t, errs, email)
		} else {
			assert.Equal(t, "Email is invalid", errs["email"], email)
		}
	}
}

func TestValidateProfile(t *testing.T) {
	assert.Empty(t, ValidateProfile(" ada@example.com ", " ada "))
	assert.Equal(t, Errors{
		"email":    "Email is required",
		"username": "Username is required",
	}, ValidateProfile("  ", ""))
	assert.Equal(t, Errors{
		"email":    "Email is invalid",
		"username": "Username must be at least 3 characters",
	}, ValidateProfile("ada@example", " ad "))
	// Length counts characters, not bytes.
	assert.Empty(t, ValidateProfile("ada@example.com", "éèê"))
}

func TestDraftPatchLeavesUnsetFields(t *testing.T) {
	d := RegistrationDraft{FirstName: "Ada", AgreeToTerms: true}
	no := false
	got := DraftPatch{LastName: ptr("Lovelace"), AgreeToTerms: &no}.Apply(d)
	assert.Equal(t, RegistrationDraft{FirstName: "Ada", LastName: "Lovelace"}, got)
}
