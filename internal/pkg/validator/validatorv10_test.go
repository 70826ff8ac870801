package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	To   string `json:"to" validate:"required,email"`
	Text string `json:"text" validate:"required_without=HTML"`
	HTML string `json:"html"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, v.Validate(sample{To: "a@b.com", HTML: "<p>hi</p>"}))
	})

	t.Run("reports json field names", func(t *testing.T) {
		// Act
		err := v.Validate(sample{To: "not-an-email"})

		// Assert
		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values(), "to")
		assert.Equal(t, "text is required when html is empty", verr.Values()["text"])
	})
}

func TestV10Validator_ValidateVar(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.ValidateVar("noreply@example.com", "required,email"))
	assert.Error(t, v.ValidateVar("noreply", "required,email"))
	assert.Error(t, v.ValidateVar("", "required,email"))
}

func TestV10Validator_UntaggedFieldNames(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	type input struct {
		FromAddress string `validate:"required"`
		HTML        string `validate:"required"`
	}

	err = v.Validate(input{})

	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Values(), "from_address")
	assert.Contains(t, verr.Values(), "html")
}
