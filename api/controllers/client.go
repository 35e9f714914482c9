// Package controllers exposes the per-client stores over HTTP.
package controllers

import (
	"net/http"

	"github.com/ecofinds/ecofinds-core/api/middleware"
	"github.com/ecofinds/ecofinds-core/api/responses"
	"github.com/ecofinds/ecofinds-core/internal/app"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
)

// clientApp returns the caller's App or answers 500 when the client
// middleware did not run.
func clientApp(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*app.App, bool) {
	a := middleware.AppFromContext(r.Context())
	if a == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client context missing"))
		return nil, false
	}
	return a, true
}

// waitRequested reports whether the caller asked to block until the
// store's background work settles.
func waitRequested(r *http.Request) bool {
	switch r.URL.Query().Get("wait") {
	case "1", "true":
		return true
	}
	return false
}
