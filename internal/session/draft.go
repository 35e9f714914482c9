package session

// RegistrationDraft is the registration form staged across steps.
type RegistrationDraft struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,ecofinds_email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Username        string `json:"username" validate:"required,min=3"`
	AgreeToTerms    bool   `json:"agreeToTerms" validate:"eq=true"`
}

// DraftPatch carries the fields one registration step changes. Nil fields
// are left untouched.
type DraftPatch struct {
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	Email           *string `json:"email,omitempty"`
	Password        *string `json:"password,omitempty"`
	ConfirmPassword *string `json:"confirmPassword,omitempty"`
	Username        *string `json:"username,omitempty"`
	AgreeToTerms    *bool   `json:"agreeToTerms,omitempty"`
}

// Apply returns d with the patch merged in.
func (p DraftPatch) Apply(d RegistrationDraft) RegistrationDraft {
	setString(&d.FirstName, p.FirstName)
	setString(&d.LastName, p.LastName)
	setString(&d.Email, p.Email)
	setString(&d.Password, p.Password)
	setString(&d.ConfirmPassword, p.ConfirmPassword)
	setString(&d.Username, p.Username)
	if p.AgreeToTerms != nil {
		d.AgreeToTerms = *p.AgreeToTerms
	}
	return d
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// LoginForm holds submitted credentials.
type LoginForm struct {
	Email    string `json:"email" validate:"required,ecofinds_email"`
	Password string `json:"password" validate:"required"`
}

// ProfileForm holds the editable parts of an identity.
type ProfileForm struct {
	Email    string `json:"email" validate:"required,ecofinds_email"`
	Username string `json:"username" validate:"required,min=3"`
}
