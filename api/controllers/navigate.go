package controllers

import (
	"net/http"
	"strings"

	"github.com/ecofinds/ecofinds-core/api/responses"
	"github.com/ecofinds/ecofinds-core/internal/routeguard"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
)

// Navigate decides whether the caller may render path now, should wait for
// the session, or must be redirected.
func Navigate(table *routeguard.Table, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		path := strings.TrimSpace(r.URL.Query().Get("path"))
		if path == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "path is required"))
			return
		}
		st := a.Session.State()
		responses.WriteSuccess(w, table.Evaluate(path, st.Loading, st.Authenticated()))
	}
}

type navigationResponse struct {
	Links []routeguard.Policy `json:"links"`
}

// Navigation lists the links to show for the caller's session.
func Navigation(table *routeguard.Table, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, navigationResponse{Links: table.Navigation(a.Session.State().Authenticated())})
	}
}
