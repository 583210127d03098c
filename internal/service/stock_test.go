package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStockChangeOnCreate(t *testing.T) {
	for _, q := range []int{1, 4, 250} {
		require.Equal(t, -q, StockChangeOnCreate(q))
	}
}

func TestStockChangeOnUpdate(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name     string
		previous *int
		next     int
		want     int
	}{
		{"decrease gives stock back", intp(4), 2, 2},
		{"increase takes more", intp(2), 5, -3},
		{"unchanged", intp(3), 3, 0},
		{"no prior state", nil, 7, -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StockChangeOnUpdate(tt.previous, tt.next))
		})
	}
}

func TestStockChangeOnDelete(t *testing.T) {
	require.Equal(t, 4, StockChangeOnDelete(4))
}

func TestStockLifecycleRestoresQuantity(t *testing.T) {
	stock := 100
	prev := 4
	stock += StockChangeOnCreate(prev)
	require.Equal(t, 96, stock)

	stock += StockChangeOnUpdate(&prev, 2)
	require.Equal(t, 98, stock)

	stock += StockChangeOnDelete(2)
	require.Equal(t, 100, stock)
}
