package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reagent-inventory-api-server/internal/models"
)

// getTestDB connects to MONGO_URI and returns a throwaway database.
func getTestDB(t *testing.T) *mongo.Database {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	db := client.Database(fmt.Sprintf("reagent_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func TestMongoItems_CreateIncrementDecrement(t *testing.T) {
	db := getTestDB(t)
	items := NewMongoItems(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	item, created, err := items.CreateIfAbsent(ctx, models.InventoryItem{
		Barcode: "4912345678904", Name: "Reagent A", Quantity: 3, Expiration: "2027-03-31", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, item.ID.IsZero())

	again, created, err := items.CreateIfAbsent(ctx, models.InventoryItem{Barcode: "4912345678904", Name: "Other", Quantity: 1})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)

	item, err = items.Increment(ctx, "4912345678904", 1, now)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)

	item, removed, err := items.Decrement(ctx, "4912345678904", 10, now)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
	assert.Equal(t, 4, removed)

	_, err = items.Increment(ctx, "unknown", 1, now)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMongoItems_ConcurrentCreateYieldsOneRecord(t *testing.T) {
	db := getTestDB(t)
	items := NewMongoItems(db)

	var wg sync.WaitGroup
	var createdCount int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := items.CreateIfAbsent(context.Background(), models.InventoryItem{Barcode: "race", Quantity: 1})
			if err == nil && created {
				atomic.AddInt32(&createdCount, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), createdCount)
	n, err := db.Collection(ItemsCollection).CountDocuments(context.Background(), bson.M{"barcode": "race"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMongoLogs_AppendAndList(t *testing.T) {
	db := getTestDB(t)
	logs := NewMongoLogs(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	_, err := logs.Append(ctx, models.UsageLogEntry{Action: models.ActionRegister, Barcode: "b1", Timestamp: base})
	require.NoError(t, err)
	_, err = logs.Append(ctx, models.UsageLogEntry{Action: models.ActionStockIn, Barcode: "b1", Timestamp: base.Add(time.Second)})
	require.NoError(t, err)

	entries, err := logs.List(ctx, LogFilter{Barcode: "b1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionStockIn, entries[0].Action)
}

func TestMongoUsers_DuplicateEmail(t *testing.T) {
	db := getTestDB(t)
	users := NewMongoUsers(db)
	ctx := context.Background()

	_, err := users.Create(ctx, models.User{Email: "op@example.com", Role: models.RoleOperator})
	require.NoError(t, err)
	_, err = users.Create(ctx, models.User{Email: "OP@example.com"})
	assert.ErrorIs(t, err, models.ErrDuplicate)
}
