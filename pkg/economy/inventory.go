// Package economy is the boundary to the host's virtual economy: item
// balances, debits, credits and purchases.
package economy

import (
	"context"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"
)

// Inventory queries and mutates virtual item balances.
//
// Implementations return errors carrying errors.ErrCodeItemNotFound for
// unknown items and errors.ErrCodeInsufficientFunds when a debit or a
// purchase cannot be covered. Implementations are expected to publish
// events.BalanceChanged and events.ItemPurchased on the engine bus; passive
// gates rely on those events.
type Inventory interface {
	// Balance returns the current balance of itemID.
	Balance(ctx context.Context, itemID string) (int, error)

	// Debit removes amount units of itemID.
	Debit(ctx context.Context, itemID string, amount int) error

	// Credit adds amount units of itemID.
	Credit(ctx context.Context, itemID string, amount int) error

	// Purchase buys one unit of itemID at its catalog price. payload is
	// echoed back in events.ItemPurchased so the caller can recognize its
	// own purchase.
	Purchase(ctx context.Context, itemID, payload string) error
}

// IsItemNotFound reports whether err means the item is unknown.
func IsItemNotFound(err error) bool {
	return errors.HasCode(err, errors.ErrCodeItemNotFound)
}

// IsInsufficientFunds reports whether err means a balance could not cover
// the requested amount.
func IsInsufficientFunds(err error) bool {
	return errors.HasCode(err, errors.ErrCodeInsufficientFunds)
}
