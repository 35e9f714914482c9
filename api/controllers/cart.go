package controllers

import (
	"net/http"

	"github.com/ecofinds/ecofinds-core/api/responses"
	"github.com/ecofinds/ecofinds-core/api/validators"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/google/uuid"
)

func CartFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		if waitRequested(r) {
			a.Cart.Wait()
		}
		responses.WriteSuccess(w, a.Cart.State())
	}
}

type addToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// CartAdd puts one unit of a product in the cart. Without a signed-in user
// the cart stays empty.
func CartAdd(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		var payload addToCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := a.Catalog.Get(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if product == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		if err := a.Cart.AddToCart(r.Context(), *product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, a.Cart.State())
	}
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// CartUpdate sets a line's quantity. Zero removes the line.
func CartUpdate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := a.Cart.UpdateQuantity(r.Context(), productID, *payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, a.Cart.State())
	}
}

func CartRemove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := a.Cart.RemoveFromCart(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, a.Cart.State())
	}
}

func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		if err := a.Cart.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, a.Cart.State())
	}
}

// CartCheckout records the cart as a purchase. An empty cart answers 200
// with no purchase.
func CartCheckout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		purchase, err := a.Cart.Checkout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if purchase == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}
