package session

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field (or "general") to its message.
type Errors map[string]string

// GeneralKey holds messages that belong to no single field.
const GeneralKey = "general"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("ecofinds_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

var fieldMessages = map[string]map[string]string{
	"firstName": {"required": "First name is required"},
	"lastName":  {"required": "Last name is required"},
	"email": {
		"required":       "Email is required",
		"ecofinds_email": "Email is invalid",
	},
	"username": {
		"required": "Username is required",
		"min":      "Username must be at least 3 characters",
	},
	"password": {
		"required": "Password is required",
		"min":      "Password must be at least 8 characters",
	},
	"confirmPassword": {"eqfield": "Passwords do not match"},
	"agreeToTerms":    {"eq": "You must agree to the terms and conditions"},
}

// ValidateRegistration checks a draft and returns field-keyed messages. Text
// fields other than the passwords are judged trimmed.
func ValidateRegistration(d RegistrationDraft) Errors {
	return check(d.normalized())
}

// ValidateLogin checks submitted credentials.
func ValidateLogin(email, password string) Errors {
	return check(LoginForm{Email: strings.TrimSpace(email), Password: password})
}

// ValidateProfile checks an identity edit. Both fields are judged trimmed.
func ValidateProfile(email, username string) Errors {
	return check(ProfileForm{Email: strings.TrimSpace(email), Username: strings.TrimSpace(username)})
}

func (d RegistrationDraft) normalized() RegistrationDraft {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.TrimSpace(d.Email)
	d.Username = strings.TrimSpace(d.Username)
	return d
}

func check(form any) Errors {
	out := Errors{}
	err := validate.Struct(form)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[GeneralKey] = err.Error()
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out[fe.Field()] = msg
	}
	return out
}
