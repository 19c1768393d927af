package service

import (
	"testing"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func TestReserve(t *testing.T) {
	p := model.Product{ProductID: 1, AvailableQuantity: 20}

	reserved, err := Reserve(p, 5)
	require.NoError(t, err)
	require.Equal(t, 15, reserved.AvailableQuantity)
	require.Equal(t, 20, p.AvailableQuantity)

	reserved, err = Reserve(p, 20)
	require.NoError(t, err)
	require.Zero(t, reserved.AvailableQuantity)
}

func TestReserve_Insufficient(t *testing.T) {
	p := model.Product{ProductID: 1, AvailableQuantity: 3}

	_, err := Reserve(p, 5)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 3, stockErr.Available)
	require.Equal(t, "Only 3 items available in stock.", err.Error())
}

func TestReserve_NonPositive(t *testing.T) {
	p := model.Product{AvailableQuantity: 3}
	for _, q := range []int{0, -1} {
		_, err := Reserve(p, q)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "quantity", validationErr.Field)
	}
}

func TestRelease(t *testing.T) {
	p := model.Product{AvailableQuantity: 0}

	released, err := Release(p, 7)
	require.NoError(t, err)
	require.Equal(t, 7, released.AvailableQuantity)

	_, err = Release(p, -1)
	require.Error(t, err)
}

func TestAdjust(t *testing.T) {
	p := model.Product{AvailableQuantity: 15}

	testCases := []struct {
		name     string
		from, to int
		expected int
	}{
		{name: "increase reserves delta", from: 5, to: 12, expected: 8},
		{name: "decrease releases delta", from: 12, to: 2, expected: 25},
		{name: "same quantity is no-op", from: 5, to: 5, expected: 15},
		{name: "increase up to exact stock", from: 5, to: 20, expected: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			adjusted, err := Adjust(p, tc.from, tc.to)
			require.NoError(t, err)
			require.Equal(t, tc.expected, adjusted.AvailableQuantity)
		})
	}

	_, err := Adjust(p, 5, 21)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 15, stockErr.Available)

	_, err = Adjust(p, 5, 0)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}
