// server/internal/models/item.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryItem is one reagent line in the items collection, keyed by barcode.
type InventoryItem struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Barcode      string             `bson:"barcode" json:"barcode"`
	Name         string             `bson:"name" json:"name"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Expiration   string             `bson:"expiration" json:"expiration"` // YYYY-MM-DD
	LotNumber    string             `bson:"lotNumber,omitempty" json:"lotNumber,omitempty"`
	DeliveryDate string             `bson:"deliveryDate,omitempty" json:"deliveryDate,omitempty"` // YYYY-MM-DD
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName falls back to a placeholder for items registered without a name.
func (i InventoryItem) DisplayName() string {
	if i.Name == "" {
		return UnknownName
	}
	return i.Name
}

// UnknownName labels log entries and reports for unnamed items.
const UnknownName = "(unnamed)"
