package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	ErrTallyNotFound     = errors.New("final tally not found")
	ErrForbidden         = errors.New("forbidden")
)

// notFound translates gorm.ErrRecordNotFound into the domain sentinel and
// wraps anything else with context.
func notFound(err error, sentinel error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", sentinel.Error(), err)
}
