package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
)

type quantityRequest struct {
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
	Note     string `json:"note" validate:"max=5"`
}

func jsonRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	var dest quantityRequest
	err := DecodeJSONBody(jsonRequest(`{"note":"too long"}`), &dest)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["quantity"])
	assert.Equal(t, "must be at most 5", details["note"])
}

func TestDecodeJSONBodyAcceptsZero(t *testing.T) {
	var dest quantityRequest
	require.NoError(t, DecodeJSONBody(jsonRequest(`{"quantity":0}`), &dest))
	require.NotNil(t, dest.Quantity)
	assert.Zero(t, *dest.Quantity)
}

func TestDecodeJSONRejectsMalformedBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty":   ``,
		"unknown": `{"quantity":1,"extra":true}`,
		"two":     `{"quantity":1}{"quantity":2}`,
		"broken":  `{"quantity":`,
	} {
		t.Run(name, func(t *testing.T) {
			var dest quantityRequest
			err := DecodeJSON(jsonRequest(body), &dest)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestParseQueryDecimal(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?min_price=12.50&max_price=-1&bad=abc", nil)

	missing, err := ParseQueryDecimal(r, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	value, err := ParseQueryDecimal(r, "min_price")
	require.NoError(t, err)
	assert.Equal(t, "12.5", value.String())

	_, err = ParseQueryDecimal(r, "max_price")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryDecimal(r, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	_, err := ParseUUIDParam(r, "id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
