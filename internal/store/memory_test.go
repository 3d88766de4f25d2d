package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reagent-inventory-api-server/internal/models"
)

func seedItem(t *testing.T, items ItemStore, barcode, name string, qty int, exp string) {
	t.Helper()
	_, created, err := items.CreateIfAbsent(context.Background(), models.InventoryItem{
		Barcode: barcode, Name: name, Quantity: qty, Expiration: exp,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestMemoryItems_CreateIfAbsent(t *testing.T) {
	items := NewMemoryStore().Items()
	ctx := context.Background()

	first, created, err := items.CreateIfAbsent(ctx, models.InventoryItem{Barcode: "4912345678904", Name: "Reagent A", Quantity: 3})
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.ID.IsZero())

	second, created, err := items.CreateIfAbsent(ctx, models.InventoryItem{Barcode: "4912345678904", Name: "Other", Quantity: 9})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Reagent A", second.Name)
	assert.Equal(t, 3, second.Quantity)
}

func TestMemoryItems_CreateIfAbsentConcurrent(t *testing.T) {
	items := NewMemoryStore().Items()

	var wg sync.WaitGroup
	var createdCount int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := items.CreateIfAbsent(context.Background(), models.InventoryItem{Barcode: "dup", Quantity: 1})
			if err == nil && created {
				atomic.AddInt32(&createdCount, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), createdCount)
	list, err := items.List(context.Background(), ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryItems_IncrementDecrement(t *testing.T) {
	items := NewMemoryStore().Items()
	ctx := context.Background()
	seedItem(t, items, "b1", "Ethanol", 2, "")
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	item, err := items.Increment(ctx, "b1", 1, now)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, now, item.UpdatedAt)

	item, removed, err := items.Decrement(ctx, "b1", 2, now)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 2, removed)

	item, removed, err = items.Decrement(ctx, "b1", 5, now)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
	assert.Equal(t, 1, removed, "clamped at zero")

	_, err = items.Increment(ctx, "missing", 1, now)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, _, err = items.Decrement(ctx, "missing", 1, now)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryItems_ListFilters(t *testing.T) {
	items := NewMemoryStore().Items()
	seedItem(t, items, "b1", "Methanol", 1, "2026-12-01")
	seedItem(t, items, "b2", "Ethanol", 1, "2027-06-01")
	seedItem(t, items, "b3", "Buffer", 1, "")

	all, err := items.List(context.Background(), ItemFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Buffer", "Ethanol", "Methanol"}, []string{all[0].Name, all[1].Name, all[2].Name})

	byName, err := items.List(context.Background(), ItemFilter{NameContains: "ethANOL"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	expiring, err := items.List(context.Background(), ItemFilter{ExpiringBefore: "2027-01-01"})
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "b1", expiring[0].Barcode)
}

func TestMemoryLogs_NewestFirstWithFilters(t *testing.T) {
	logs := NewMemoryStore().Logs()
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	for i, a := range []models.Action{models.ActionRegister, models.ActionStockIn, models.ActionStockIn, models.ActionStockOut} {
		_, err := logs.Append(ctx, models.UsageLogEntry{Action: a, Barcode: "b1", Timestamp: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	_, err := logs.Append(ctx, models.UsageLogEntry{Action: models.ActionRegister, Barcode: "b2", Timestamp: base.Add(time.Hour)})
	require.NoError(t, err)

	all, err := logs.List(ctx, LogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "b2", all[0].Barcode)

	stockIns, err := logs.List(ctx, LogFilter{Barcode: "b1", Action: models.ActionStockIn})
	require.NoError(t, err)
	assert.Len(t, stockIns, 2)

	limited, err := logs.List(ctx, LogFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemoryUsers(t *testing.T) {
	users := NewMemoryStore().Users()
	ctx := context.Background()

	_, err := users.Create(ctx, models.User{Email: "Lab@Example.com", Role: models.RoleOperator})
	require.NoError(t, err)

	_, err = users.Create(ctx, models.User{Email: "lab@example.com"})
	assert.ErrorIs(t, err, models.ErrDuplicate)

	u, err := users.FindByEmail(ctx, "LAB@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, u.Role)

	_, err = users.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
