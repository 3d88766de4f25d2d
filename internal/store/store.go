// Package store holds the document-store collaborators: the items collection,
// the append-only usage log and the operator accounts. A Mongo implementation
// backs production; the in-memory one serves local runs and tests.
package store

import (
	"context"
	"time"

	"reagent-inventory-api-server/internal/models"
)

// Collection names.
const (
	ItemsCollection     = "items"
	UsageLogsCollection = "usage_logs"
	UsersCollection     = "users"
)

// ItemFilter narrows List. Zero values match everything.
type ItemFilter struct {
	NameContains   string
	ExpiringBefore string // YYYY-MM-DD, inclusive
}

// LogFilter narrows the usage log listing.
type LogFilter struct {
	Barcode string
	Action  models.Action
	Limit   int
}

// DefaultLogLimit caps log listings when the caller does not.
const DefaultLogLimit = 100

// ItemStore is the items collection.
type ItemStore interface {
	// FindByBarcode returns models.ErrNotFound when no item matches.
	FindByBarcode(ctx context.Context, barcode string) (*models.InventoryItem, error)
	// CreateIfAbsent inserts item unless one with the same barcode exists.
	// It returns the stored item and whether this call created it.
	CreateIfAbsent(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, bool, error)
	// Increment adds delta to the quantity and returns the updated item.
	Increment(ctx context.Context, barcode string, delta int, now time.Time) (*models.InventoryItem, error)
	// Decrement subtracts amount, clamping the quantity at zero. It returns the
	// updated item and the number of units actually removed.
	Decrement(ctx context.Context, barcode string, amount int, now time.Time) (*models.InventoryItem, int, error)
	List(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, error)
}

// LogStore is the append-only usage_logs collection.
type LogStore interface {
	Append(ctx context.Context, entry models.UsageLogEntry) (models.UsageLogEntry, error)
	List(ctx context.Context, filter LogFilter) ([]models.UsageLogEntry, error)
}

// UserStore holds operator accounts.
type UserStore interface {
	// FindByEmail returns models.ErrNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Create returns models.ErrDuplicate when the email is taken.
	Create(ctx context.Context, user models.User) (*models.User, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultLogLimit
	}
	return limit
}
