package catalog

import (
	"errors"
	"reflect"
	"strings"

	"github.com/ecofinds/ecofinds-core/pkg/enums"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ProductDraft is what a seller submits to create or edit a listing.
type ProductDraft struct {
	Title       string                `json:"title" validate:"required,min=3,max=100"`
	Description string                `json:"description" validate:"required,min=10,max=1000"`
	Price       decimal.Decimal       `json:"price" validate:"gt=0,lte=10000"`
	Category    enums.ProductCategory `json:"category" validate:"required,product_category"`
	ImageURL    string                `json:"image_url" validate:"omitempty,image_url"`
}

var productMessages = map[string]map[string]string{
	"title": {
		"required": "Product title is required",
		"min":      "Product title must be at least 3 characters",
		"max":      "Product title must be less than 100 characters",
	},
	"description": {
		"required": "Product description is required",
		"min":      "Product description must be at least 10 characters",
		"max":      "Product description must be less than 1000 characters",
	},
	"price": {
		"gt":  "Price must be greater than 0",
		"lte": "Price must be less than 10,000",
	},
	"category": {
		"required":         "Product category is required",
		"product_category": "Invalid product category",
	},
	"image_url": {"image_url": "Invalid image URL"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	// Prices compare as floats; two-decimal amounts are exact enough for
	// bounds checks.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})
	_ = v.RegisterValidation("product_category", func(fl validator.FieldLevel) bool {
		return enums.ProductCategory(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("image_url", func(fl validator.FieldLevel) bool {
		return IsImageURL(fl.Field().String())
	})
	return v
}

// normalized trims the text fields. Titles and descriptions of only
// whitespace count as missing.
func (d ProductDraft) normalized() ProductDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	if c, err := enums.ParseProductCategory(string(d.Category)); err == nil {
		d.Category = c
	}
	return d
}

// ValidateProduct returns field-keyed messages for d; empty when valid.
func ValidateProduct(d ProductDraft) map[string]string {
	out := map[string]string{}
	err := validate.Struct(d.normalized())
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["general"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg, ok := productMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out[fe.Field()] = msg
	}
	return out
}
