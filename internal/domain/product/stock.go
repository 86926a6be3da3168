package product

import "fmt"

// InsufficientStockError indicates a requested quantity exceeds the product's
// available stock. The product is named so the failure can be reported to the
// buyer.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Stock     int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: have %d, want %d", e.Name, e.Stock, e.Requested)
}

// DecrementStock reduces the product's stock by quantity, failing without
// mutation when stock would go negative. Callers that need the decrement to
// hold under concurrent checkouts must invoke this while holding an exclusive
// row lock on the product, inside the surrounding transaction.
func (p *Product) DecrementStock(quantity int) error {
	if p.Stock < quantity {
		return &InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
			Requested: quantity,
		}
	}
	p.Stock -= quantity
	return nil
}
