package controllers

import (
	"net/http"

	"github.com/ecofinds/ecofinds-core/api/responses"
	"github.com/ecofinds/ecofinds-core/api/validators"
	"github.com/ecofinds/ecofinds-core/internal/session"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
)

// sessionResult is the answer to login and register: whether the attempt
// succeeded plus the state it left behind.
type sessionResult struct {
	Success bool          `json:"success"`
	Session session.State `json:"session"`
}

// draftView is the registration draft without the password fields.
type draftView struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

func viewDraft(d session.RegistrationDraft) draftView {
	return draftView{
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Username:     d.Username,
		AgreeToTerms: d.AgreeToTerms,
	}
}

// SessionState returns who is signed in. With ?wait=1 it first lets a
// pending restore finish.
func SessionState(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		if waitRequested(r) {
			a.Session.Wait()
		}
		responses.WriteSuccess(w, a.Session.State())
	}
}

// SessionLogin signs in. Rejections are reported in the returned state's
// errors, not as an HTTP error.
func SessionLogin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		var form session.LoginForm
		if err := validators.DecodeJSON(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		success := a.Session.Login(r.Context(), form.Email, form.Password)
		responses.WriteSuccess(w, sessionResult{Success: success, Session: a.Session.State()})
	}
}

func SessionDraft(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		var patch session.DraftPatch
		if err := validators.DecodeJSON(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewDraft(a.Session.UpdateRegistrationDraft(patch)))
	}
}

// SessionRegister merges the body into the draft and submits it.
func SessionRegister(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		var patch session.DraftPatch
		if err := validators.DecodeJSON(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		success := a.Session.Register(r.Context(), patch)
		status := http.StatusOK
		if success {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, sessionResult{Success: success, Session: a.Session.State()})
	}
}

func SessionLogout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		a.Session.Logout(r.Context())
		responses.WriteSuccess(w, a.Session.State())
	}
}

type identityRequest struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
}

// SessionIdentity edits the signed-in profile. The change is visible at once
// and reconciled with the backend in the background.
func SessionIdentity(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		var payload identityRequest
		if err := validators.DecodeJSON(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current := a.Session.Current()
		if current == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in"))
			return
		}
		next := *current
		if payload.Email != nil {
			next.Email = *payload.Email
		}
		if payload.Username != nil {
			next.Username = *payload.Username
		}
		if err := a.Session.UpdateIdentity(r.Context(), next); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, a.Session.State())
	}
}
