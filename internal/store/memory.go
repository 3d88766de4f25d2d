package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"reagent-inventory-api-server/internal/models"
)

// MemoryStore keeps items, logs and users in process memory behind one mutex.
// Every method is atomic, so CreateIfAbsent has the same guarantee the unique
// index gives the Mongo store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]models.InventoryItem
	logs  []models.UsageLogEntry
	users map[string]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]models.InventoryItem),
		users: make(map[string]models.User),
	}
}

// Items exposes the item view of the store.
func (s *MemoryStore) Items() ItemStore { return memoryItems{s} }

// Logs exposes the usage log view of the store.
func (s *MemoryStore) Logs() LogStore { return memoryLogs{s} }

// Users exposes the account view of the store.
func (s *MemoryStore) Users() UserStore { return memoryUsers{s} }

type memoryItems struct{ s *MemoryStore }

func (m memoryItems) FindByBarcode(_ context.Context, barcode string) (*models.InventoryItem, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	item, ok := m.s.items[barcode]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &item, nil
}

func (m memoryItems) CreateIfAbsent(_ context.Context, item models.InventoryItem) (*models.InventoryItem, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if existing, ok := m.s.items[item.Barcode]; ok {
		return &existing, false, nil
	}
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	m.s.items[item.Barcode] = item
	return &item, true, nil
}

func (m memoryItems) Increment(_ context.Context, barcode string, delta int, now time.Time) (*models.InventoryItem, error) {
	return m.update(barcode, func(item *models.InventoryItem) {
		item.Quantity += delta
		item.UpdatedAt = now
	})
}

func (m memoryItems) Decrement(_ context.Context, barcode string, amount int, now time.Time) (*models.InventoryItem, int, error) {
	var removed int
	item, err := m.update(barcode, func(item *models.InventoryItem) {
		after := max(item.Quantity-amount, 0)
		removed = item.Quantity - after
		item.Quantity = after
		item.UpdatedAt = now
	})
	return item, removed, err
}

func (m memoryItems) update(barcode string, fn func(*models.InventoryItem)) (*models.InventoryItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	item, ok := m.s.items[barcode]
	if !ok {
		return nil, models.ErrNotFound
	}
	fn(&item)
	m.s.items[barcode] = item
	return &item, nil
}

func (m memoryItems) List(_ context.Context, filter ItemFilter) ([]models.InventoryItem, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	needle := strings.ToLower(filter.NameContains)
	items := []models.InventoryItem{}
	for _, item := range m.s.items {
		if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		if filter.ExpiringBefore != "" && (item.Expiration == "" || item.Expiration > filter.ExpiringBefore) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Barcode < items[j].Barcode
	})
	return items, nil
}

type memoryLogs struct{ s *MemoryStore }

func (m memoryLogs) Append(_ context.Context, entry models.UsageLogEntry) (models.UsageLogEntry, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	m.s.logs = append(m.s.logs, entry)
	return entry, nil
}

func (m memoryLogs) List(_ context.Context, filter LogFilter) ([]models.UsageLogEntry, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	limit := clampLimit(filter.Limit)
	out := []models.UsageLogEntry{}
	// newest first
	for i := len(m.s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.s.logs[i]
		if filter.Barcode != "" && e.Barcode != filter.Barcode {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	u, ok := m.s.users[strings.ToLower(email)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (m memoryUsers) Create(_ context.Context, user models.User) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := m.s.users[key]; ok {
		return nil, models.ErrDuplicate
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.s.users[key] = user
	return &user, nil
}
