package controllers

import (
	"net/http"

	"github.com/ecofinds/ecofinds-core/api/responses"
	"github.com/ecofinds/ecofinds-core/internal/orders"
	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
)

type historyResponse struct {
	Orders  []models.Purchase `json:"orders"`
	Summary orders.Summary    `json:"summary"`
}

// OrdersHistory lists the signed-in user's purchases, newest first. It is
// empty when nobody is signed in.
func OrdersHistory(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		history, err := a.Orders.History(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, historyResponse{Orders: history, Summary: orders.Summarize(history)})
	}
}
