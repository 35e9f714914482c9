package controllers

import (
	"net/http"
	"strings"

	"github.com/ecofinds/ecofinds-core/api/responses"
	"github.com/ecofinds/ecofinds-core/api/validators"
	"github.com/ecofinds/ecofinds-core/internal/catalog"
	"github.com/ecofinds/ecofinds-core/pkg/enums"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
)

// CatalogProducts browses products. Query parameters: category (name or
// slug), min_price, max_price, q and sort (newest, price-low, price-high).
func CatalogProducts(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		filter, err := browseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := a.Catalog.Browse(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func browseFilter(r *http.Request) (catalog.BrowseFilter, error) {
	query := r.URL.Query()
	var f catalog.BrowseFilter
	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		category, err := enums.ParseProductCategory(raw)
		if err != nil {
			return f, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		f.Category = category
	}
	var err error
	if f.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return f, err
	}
	f.Term = query.Get("q")
	f.Sort = enums.SortOrder(query.Get("sort"))
	return f, nil
}

// CatalogProduct returns one product with its seller.
func CatalogProduct(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := a.Catalog.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if product == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogCategories(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, a.Catalog.Categories())
	}
}

// SellerProducts lists the signed-in seller's own products.
func SellerProducts(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		if a.Session.Current() == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to manage products"))
			return
		}
		products, err := a.Catalog.Mine(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func SellerCreate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		var draft catalog.ProductDraft
		if err := validators.DecodeJSON(r, &draft); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := a.Catalog.Create(r.Context(), draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func SellerUpdate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var draft catalog.ProductDraft
		if err := validators.DecodeJSON(r, &draft); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := a.Catalog.Update(r.Context(), id, draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func SellerDelete(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := clientApp(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := a.Catalog.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
