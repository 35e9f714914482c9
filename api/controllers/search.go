package controllers

import (
	"net/http"

	"github.com/ecofinds/ecofinds-core/api/responses"
	"github.com/ecofinds/ecofinds-core/api/validators"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
)

type setQueryRequest struct {
	Query string `json:"query" validate:"max=200"`
}

// SearchSetQuery stores the query and starts a search for it.
func SearchSetQuery(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		var payload setQueryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		a.Search.SetQuery(payload.Query)
		if waitRequested(r) {
			a.Search.Wait()
		}
		responses.WriteSuccess(w, a.Search.State())
	}
}

// SearchFetch returns the search state. A q parameter runs a search for it
// first without replacing the stored query.
func SearchFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		if q, given := r.URL.Query()["q"]; given {
			a.Search.PerformSearch(q[0])
		}
		if waitRequested(r) {
			a.Search.Wait()
		}
		responses.WriteSuccess(w, a.Search.State())
	}
}

func SearchClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		a.Search.ClearSearch()
		responses.WriteSuccess(w, a.Search.State())
	}
}
