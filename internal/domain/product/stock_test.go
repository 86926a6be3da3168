package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementStock(t *testing.T) {
	p := Product{ID: 1, Name: "Widget", Stock: 10}

	require.NoError(t, p.DecrementStock(3))
	assert.Equal(t, 7, p.Stock)

	require.NoError(t, p.DecrementStock(7))
	assert.Equal(t, 0, p.Stock)
}

func TestDecrementStock_Insufficient(t *testing.T) {
	p := Product{ID: 1, Name: "Widget", Stock: 5}

	err := p.DecrementStock(6)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.ProductID)
	assert.Equal(t, "Widget", stockErr.Name)
	assert.Equal(t, 5, stockErr.Stock)
	assert.Equal(t, 6, stockErr.Requested)

	// Failed decrement must not mutate.
	assert.Equal(t, 5, p.Stock)
}

func TestDecrementStock_ExactStock(t *testing.T) {
	p := Product{ID: 1, Name: "Widget", Stock: 4}

	require.NoError(t, p.DecrementStock(4))
	assert.Equal(t, 0, p.Stock)
}
