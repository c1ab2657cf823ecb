package service_test

import (
	"testing"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressRequest(line1 string, isDefault bool) *dto.AddressRequest {
	return &dto.AddressRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address1:  line1,
		City:      "London",
		Country:   "UK",
		IsDefault: isDefault,
	}
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t, "book@example.com")

	first, err := f.customer.AddAddress(t.Context(), customer.ID, addressRequest("1 First St", false))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := f.customer.AddAddress(t.Context(), customer.ID, addressRequest("2 Second St", false))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
}

func TestNewDefaultDemotesPreviousDefault(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t, "default@example.com")

	_, err := f.customer.AddAddress(t.Context(), customer.ID, addressRequest("1 First St", false))
	require.NoError(t, err)
	_, err = f.customer.AddAddress(t.Context(), customer.ID, addressRequest("2 Second St", true))
	require.NoError(t, err)

	addresses, err := f.customer.ListAddresses(t.Context(), customer.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)

	// exactly one default, listed first
	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
	assert.True(t, addresses[0].IsDefault)
	assert.Equal(t, "2 Second St", addresses[0].Address1)
}

func TestAddAddressValidation(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t, "strict@example.com")

	_, err := f.customer.AddAddress(t.Context(), customer.ID, addressRequest("", false))
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.customer.AddAddress(t.Context(), 999, addressRequest("1 First St", false))
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
