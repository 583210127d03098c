package service

// The stock adjustment rule. Each function returns the signed change to
// apply to Purchase.quantity. There is no floor: a negative quantity means
// the item has to be reordered.

// StockChangeOnCreate removes the sent quantity from stock.
func StockChangeOnCreate(quantitySent int) int {
	return -quantitySent
}

// StockChangeOnUpdate removes the difference between the new and the
// previously persisted quantity. A nil previous means the item was never
// persisted, so the whole new quantity leaves stock.
func StockChangeOnUpdate(previous *int, next int) int {
	if previous == nil {
		return -next
	}
	return -(next - *previous)
}

// StockChangeOnDelete gives the full sent quantity back. This is the
// recorded quantity, not a delta, so it is deliberately not the mirror of
// StockChangeOnUpdate.
func StockChangeOnDelete(quantitySent int) int {
	return quantitySent
}
