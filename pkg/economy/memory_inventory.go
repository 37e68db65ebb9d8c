package economy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

// Price is what one unit of a purchasable item costs.
type Price struct {
	CurrencyID string
	Amount     int
}

// MemoryInventory is an in-process Inventory with a fixed catalog. It
// publishes BalanceChanged after every balance mutation and ItemPurchased
// after every purchase.
//
// Use this for local development and tests that exercise the event cascade.
// For call assertions use MockInventory instead.
type MemoryInventory struct {
	mu       sync.Mutex
	balances map[string]int
	prices   map[string]Price
	bus      *events.Bus
	logger   *slog.Logger
}

// NewMemoryInventory creates an empty inventory publishing on bus.
func NewMemoryInventory(bus *events.Bus, logger *slog.Logger) *MemoryInventory {
	return &MemoryInventory{
		balances: make(map[string]int),
		prices:   make(map[string]Price),
		bus:      bus,
		logger:   logger,
	}
}

// AddCurrency registers a non-purchasable item (a currency) in the catalog.
func (inv *MemoryInventory) AddCurrency(itemID string, initial int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.balances[itemID] = initial
}

// AddItem registers a purchasable item in the catalog.
func (inv *MemoryInventory) AddItem(itemID string, price Price) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.balances[itemID]; !ok {
		inv.balances[itemID] = 0
	}
	inv.prices[itemID] = price
}

// Balance implements Inventory.
func (inv *MemoryInventory) Balance(ctx context.Context, itemID string) (int, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	balance, ok := inv.balances[itemID]
	if !ok {
		return 0, errors.ErrItemNotFound(itemID)
	}
	return balance, nil
}

// Debit implements Inventory.
func (inv *MemoryInventory) Debit(ctx context.Context, itemID string, amount int) error {
	balance, err := inv.apply(itemID, -amount)
	if err != nil {
		return err
	}
	inv.bus.BalanceChanged.Publish(events.BalanceChanged{ItemID: itemID, Balance: balance, Delta: -amount})
	return nil
}

// Credit implements Inventory.
func (inv *MemoryInventory) Credit(ctx context.Context, itemID string, amount int) error {
	balance, err := inv.apply(itemID, amount)
	if err != nil {
		return err
	}
	inv.bus.BalanceChanged.Publish(events.BalanceChanged{ItemID: itemID, Balance: balance, Delta: amount})
	return nil
}

// Purchase implements Inventory. The price is debited first; if the credit
// of the item then fails the price is refunded.
func (inv *MemoryInventory) Purchase(ctx context.Context, itemID, payload string) error {
	inv.mu.Lock()
	price, ok := inv.prices[itemID]
	_, known := inv.balances[itemID]
	inv.mu.Unlock()

	if !known {
		return errors.ErrPurchaseFailed(itemID, errors.ErrItemNotFound(itemID))
	}
	if !ok {
		return errors.ErrPurchaseFailed(itemID, fmt.Errorf("item is not purchasable"))
	}

	if price.Amount > 0 {
		if err := inv.Debit(ctx, price.CurrencyID, price.Amount); err != nil {
			return errors.ErrPurchaseFailed(itemID, err)
		}
	}
	if err := inv.Credit(ctx, itemID, 1); err != nil {
		if price.Amount > 0 {
			if rerr := inv.Credit(ctx, price.CurrencyID, price.Amount); rerr != nil {
				inv.logger.Error("Failed to refund purchase",
					"item_id", itemID,
					"currency_id", price.CurrencyID,
					"error", rerr,
				)
			}
		}
		return errors.ErrPurchaseFailed(itemID, err)
	}

	inv.logger.Debug("Item purchased", "item_id", itemID, "payload", payload)
	inv.bus.ItemPurchased.Publish(events.ItemPurchased{ItemID: itemID, Payload: payload})
	return nil
}

func (inv *MemoryInventory) apply(itemID string, delta int) (int, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	balance, ok := inv.balances[itemID]
	if !ok {
		return 0, errors.ErrItemNotFound(itemID)
	}
	if balance+delta < 0 {
		return balance, errors.ErrInsufficientFunds(itemID, balance, -delta)
	}
	inv.balances[itemID] = balance + delta
	return balance + delta, nil
}
