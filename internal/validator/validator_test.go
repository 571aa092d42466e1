package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderForm struct {
	Title    string  `json:"title" validate:"required,max=10"`
	Price    float64 `json:"price" validate:"gte=0"`
	Currency string  `json:"currency" validate:"omitempty,is-currency"`
	Phone    string  `json:"phone" validate:"omitempty,phone"`
}

type statusQuery struct {
	Status string `form:"status" validate:"required,is-order-status"`
	Tier   string `form:"tier" validate:"omitempty,is-tier"`
}

func TestValidate_FieldNames(t *testing.T) {
	v := New()

	err := v.Validate(&orderForm{Price: -1, Currency: "Tenge", Phone: "12"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, map[string]string{
		"title":    "This field is required",
		"price":    "Must be greater than or equal to 0",
		"currency": "Must be one of: Som, Ruble, USD, Euro",
		"phone":    "Must be a valid phone number",
	}, vErr.Errors)

	err = v.Validate(&statusQuery{Status: "Lost", Tier: "None"})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "status", "для query берется form-тег")
	assert.Contains(t, vErr.Errors, "tier", "None не покупается")
}

func TestValidate_OK(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&orderForm{Title: "Шторы", Currency: "Som", Phone: "+996 (555) 12-34-56"}))
	assert.NoError(t, v.Validate(&statusQuery{Status: "Arrived", Tier: "Premium"}))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Errors: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "Validation failed: field 'a': one; field 'b': two", err.Error())
}
