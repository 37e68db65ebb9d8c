package economy

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockInventory is a mock implementation of Inventory for testing.
// It uses testify/mock to allow test assertions on method calls.
type MockInventory struct {
	mock.Mock
}

// Balance mocks a balance query.
func (m *MockInventory) Balance(ctx context.Context, itemID string) (int, error) {
	args := m.Called(ctx, itemID)
	return args.Int(0), args.Error(1)
}

// Debit mocks a debit.
func (m *MockInventory) Debit(ctx context.Context, itemID string, amount int) error {
	args := m.Called(ctx, itemID, amount)
	return args.Error(0)
}

// Credit mocks a credit.
func (m *MockInventory) Credit(ctx context.Context, itemID string, amount int) error {
	args := m.Called(ctx, itemID, amount)
	return args.Error(0)
}

// Purchase mocks a purchase.
func (m *MockInventory) Purchase(ctx context.Context, itemID, payload string) error {
	args := m.Called(ctx, itemID, payload)
	return args.Error(0)
}

// NewMockInventory creates a new mock inventory.
func NewMockInventory() *MockInventory {
	return &MockInventory{}
}
