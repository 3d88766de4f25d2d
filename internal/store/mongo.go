// server/internal/store/mongo.go
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reagent-inventory-api-server/internal/models"
)

// MongoItems is the items collection.
type MongoItems struct {
	coll *mongo.Collection
}

func NewMongoItems(db *mongo.Database) *MongoItems {
	return &MongoItems{coll: db.Collection(ItemsCollection)}
}

func (s *MongoItems) FindByBarcode(ctx context.Context, barcode string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.coll.FindOne(ctx, bson.M{"barcode": barcode}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find item %s: %w", barcode, err)
	}
	return &item, nil
}

// CreateIfAbsent upserts with $setOnInsert so the existence check and the insert
// are one server-side operation. Two upserts racing on the same barcode can both
// miss the match; the unique index rejects the loser, which then reads the winner.
func (s *MongoItems) CreateIfAbsent(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, bool, error) {
	item.ID = primitive.NilObjectID
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var existing models.InventoryItem
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"barcode": item.Barcode},
		bson.M{"$setOnInsert": item},
		opts,
	).Decode(&existing)

	switch {
	case err == nil:
		return &existing, false, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := s.FindByBarcode(ctx, item.Barcode)
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	case mongo.IsDuplicateKeyError(err):
		winner, err := s.FindByBarcode(ctx, item.Barcode)
		if err != nil {
			return nil, false, err
		}
		return winner, false, nil
	default:
		return nil, false, fmt.Errorf("create item %s: %w", item.Barcode, err)
	}
}

func (s *MongoItems) Increment(ctx context.Context, barcode string, delta int, now time.Time) (*models.InventoryItem, error) {
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updatedAt": now},
	}
	return s.findAndUpdate(ctx, barcode, update, options.After)
}

// Decrement uses an update pipeline so the clamp at zero is evaluated by the
// server against the current value. The pre-image gives the units removed.
func (s *MongoItems) Decrement(ctx context.Context, barcode string, amount int, now time.Time) (*models.InventoryItem, int, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "quantity", Value: bson.D{{Key: "$max", Value: bson.A{
				bson.D{{Key: "$subtract", Value: bson.A{"$quantity", amount}}},
				0,
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
	before, err := s.findAndUpdate(ctx, barcode, update, options.Before)
	if err != nil {
		return nil, 0, err
	}
	after := *before
	after.Quantity = max(before.Quantity-amount, 0)
	after.UpdatedAt = now
	return &after, before.Quantity - after.Quantity, nil
}

func (s *MongoItems) findAndUpdate(ctx context.Context, barcode string, update interface{}, rd options.ReturnDocument) (*models.InventoryItem, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(rd)

	var item models.InventoryItem
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"barcode": barcode}, update, opts).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("update item %s: %w", barcode, err)
	}
	return &item, nil
}

func (s *MongoItems) List(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, error) {
	query := bson.M{}
	if filter.NameContains != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.NameContains), Options: "i"}
	}
	if filter.ExpiringBefore != "" {
		query["expiration"] = bson.M{"$ne": "", "$lte": filter.ExpiringBefore}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "barcode", Value: 1}})
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []models.InventoryItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	return items, nil
}

// MongoLogs is the usage_logs collection. It only ever inserts.
type MongoLogs struct {
	coll *mongo.Collection
}

func NewMongoLogs(db *mongo.Database) *MongoLogs {
	return &MongoLogs{coll: db.Collection(UsageLogsCollection)}
}

func (s *MongoLogs) Append(ctx context.Context, entry models.UsageLogEntry) (models.UsageLogEntry, error) {
	entry.ID = primitive.NilObjectID
	result, err := s.coll.InsertOne(ctx, entry)
	if err != nil {
		return entry, fmt.Errorf("append usage log: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid
	}
	return entry, nil
}

func (s *MongoLogs) List(ctx context.Context, filter LogFilter) ([]models.UsageLogEntry, error) {
	query := bson.M{}
	if filter.Barcode != "" {
		query["barcode"] = filter.Barcode
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(clampLimit(filter.Limit)))
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("query usage logs: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.UsageLogEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode usage logs: %w", err)
	}
	if entries == nil {
		entries = []models.UsageLogEntry{}
	}
	return entries, nil
}

// MongoUsers is the users collection.
type MongoUsers struct {
	coll *mongo.Collection
}

func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{coll: db.Collection(UsersCollection)}
}

func (s *MongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *MongoUsers) Create(ctx context.Context, user models.User) (*models.User, error) {
	user.ID = primitive.NilObjectID
	user.Email = strings.ToLower(user.Email)
	result, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicate
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return &user, nil
}

// EnsureIndexes creates the unique keys the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ItemsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "barcode", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("barcode_unique"),
	})
	if err != nil {
		return fmt.Errorf("create items barcode index: %w", err)
	}

	_, err = db.Collection(UsageLogsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "barcode", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create usage log indexes: %w", err)
	}

	_, err = db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}
