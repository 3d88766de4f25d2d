// server/internal/models/usage_log.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is the kind of change recorded in the usage log.
type Action string

const (
	ActionRegister Action = "register"
	ActionStockIn  Action = "stock-in"
	ActionStockOut Action = "stock-out"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionRegister, ActionStockIn, ActionStockOut:
		return true
	}
	return false
}

// UsageLogEntry is written once to usage_logs and never updated.
// It refers to an item only through the barcode value.
type UsageLogEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    Action             `bson:"action" json:"action"`
	Name      string             `bson:"name" json:"name"`
	Barcode   string             `bson:"barcode" json:"barcode"`
	Delta     int                `bson:"delta" json:"delta"`
	Quantity  int                `bson:"quantity" json:"quantity"` // quantity after the action
	Operator  string             `bson:"operator,omitempty" json:"operator,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
