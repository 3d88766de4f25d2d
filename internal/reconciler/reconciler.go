// Package reconciler turns a decoded barcode into an inventory state transition:
// debounce, resolve against the items collection, mutate the quantity and append
// a usage log entry.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"reagent-inventory-api-server/internal/cooldown"
	"reagent-inventory-api-server/internal/models"
	"reagent-inventory-api-server/internal/store"
)

// Direction selects stock-in or stock-out for a scan.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ParseDirection maps request input to a Direction; empty means stock-in.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", DirectionIn:
		return DirectionIn, nil
	case DirectionOut:
		return DirectionOut, nil
	}
	return "", fmt.Errorf("%w: %q", models.ErrInvalidDirection, s)
}

// Status is what a scan did.
type Status string

const (
	StatusStockedIn         Status = "stocked_in"
	StatusStockedOut        Status = "stocked_out"
	StatusNeedsRegistration Status = "needs_registration"
	StatusCoolingDown       Status = "cooling_down"
)

// ScanRequest carries one decoded barcode plus the session it came from.
type ScanRequest struct {
	SessionID string
	Barcode   string
	Direction Direction
	Amount    int // stock-out only; zero means one
	Operator  string
}

// Outcome is the result reported back to the scanning client.
type Outcome struct {
	Status            Status                `json:"status"`
	Barcode           string                `json:"barcode"`
	Item              *models.InventoryItem `json:"item,omitempty"`
	RetryAfter        time.Duration         `json:"-"`
	RetryAfterSeconds int                   `json:"retryAfterSeconds,omitempty"`
}

// Changed reports whether the outcome mutated an item.
func (o Outcome) Changed() bool {
	return o.Status == StatusStockedIn || o.Status == StatusStockedOut
}

// RegisterRequest is the data-entry form submitted for an unseen barcode.
type RegisterRequest struct {
	Barcode      string
	Name         string
	Quantity     int
	Expiration   string
	LotNumber    string
	DeliveryDate string
	Operator     string
}

// Reconciler applies scans against the item and log stores.
type Reconciler struct {
	items store.ItemStore
	logs  store.LogStore
	gate  cooldown.Gate
	now   func() time.Time
	log   zerolog.Logger
}

type Option func(*Reconciler)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) { r.log = l }
}

func New(items store.ItemStore, logs store.LogStore, gate cooldown.Gate, opts ...Option) *Reconciler {
	r := &Reconciler{
		items: items,
		logs:  logs,
		gate:  gate,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.gate == nil {
		r.gate = cooldown.Disabled{}
	}
	return r
}

// Scan runs one scan through the debounce window and applies it.
func (r *Reconciler) Scan(ctx context.Context, req ScanRequest) (Outcome, error) {
	barcode, err := models.NormalizeBarcode(req.Barcode)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Barcode: barcode}

	direction := req.Direction
	if direction == "" {
		direction = DirectionIn
	}
	amount := req.Amount
	switch direction {
	case DirectionIn:
	case DirectionOut:
		if amount == 0 {
			amount = 1
		}
		if amount < 0 {
			return out, models.ErrInvalidQuantity
		}
	default:
		return out, fmt.Errorf("%w: %q", models.ErrInvalidDirection, direction)
	}

	decision, err := r.gate.Allow(ctx, req.SessionID, barcode)
	if err != nil {
		return out, err
	}
	if !decision.Allowed {
		r.log.Debug().Str("barcode", barcode).Str("session", req.SessionID).
			Dur("retryAfter", decision.RetryAfter).Msg("scan ignored during cooldown")
		out.Status = StatusCoolingDown
		out.RetryAfter = decision.RetryAfter
		out.RetryAfterSeconds = int((decision.RetryAfter + time.Second - 1) / time.Second)
		return out, nil
	}

	now := r.now()
	if direction == DirectionOut {
		item, removed, err := r.items.Decrement(ctx, barcode, amount, now)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return out, models.ErrItemNotFound
			}
			return out, err
		}
		out.Status = StatusStockedOut
		out.Item = item
		return out, r.appendLog(ctx, models.ActionStockOut, item, -removed, req.Operator, now)
	}

	item, err := r.items.Increment(ctx, barcode, 1, now)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.log.Info().Str("barcode", barcode).Msg("unknown barcode, registration required")
			out.Status = StatusNeedsRegistration
			return out, nil
		}
		return out, err
	}
	out.Status = StatusStockedIn
	out.Item = item
	return out, r.appendLog(ctx, models.ActionStockIn, item, 1, req.Operator, now)
}

// Register creates the item for a barcode and logs the registration. When the
// barcode is already registered the stored item is returned with
// models.ErrAlreadyRegistered and nothing is written.
func (r *Reconciler) Register(ctx context.Context, req RegisterRequest) (*models.InventoryItem, error) {
	barcode, err := models.NormalizeBarcode(req.Barcode)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, models.ErrInvalidQuantity
	}
	expiration, err := models.NormalizeDate(req.Expiration)
	if err != nil {
		return nil, err
	}
	delivery, err := models.NormalizeDate(req.DeliveryDate)
	if err != nil {
		return nil, err
	}

	now := r.now()
	item, created, err := r.items.CreateIfAbsent(ctx, models.InventoryItem{
		Barcode:      barcode,
		Name:         req.Name,
		Quantity:     req.Quantity,
		Expiration:   expiration,
		LotNumber:    req.LotNumber,
		DeliveryDate: delivery,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		r.log.Warn().Str("barcode", barcode).Msg("registration for an existing barcode rejected")
		return item, models.ErrAlreadyRegistered
	}

	return item, r.appendLog(ctx, models.ActionRegister, item, item.Quantity, req.Operator, now)
}

// StockOut removes amount units outside the scan feed, clamping at zero.
func (r *Reconciler) StockOut(ctx context.Context, barcode string, amount int, operator string) (*models.InventoryItem, error) {
	barcode, err := models.NormalizeBarcode(barcode)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, models.ErrInvalidQuantity
	}

	now := r.now()
	item, removed, err := r.items.Decrement(ctx, barcode, amount, now)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrItemNotFound
		}
		return nil, err
	}
	return item, r.appendLog(ctx, models.ActionStockOut, item, -removed, operator, now)
}

// appendLog records the action. The item write has already happened; a failure
// here is reported but the quantity change stands.
func (r *Reconciler) appendLog(ctx context.Context, action models.Action, item *models.InventoryItem, delta int, operator string, now time.Time) error {
	_, err := r.logs.Append(ctx, models.UsageLogEntry{
		Action:    action,
		Name:      item.DisplayName(),
		Barcode:   item.Barcode,
		Delta:     delta,
		Quantity:  item.Quantity,
		Operator:  operator,
		Timestamp: now,
	})
	if err != nil {
		r.log.Error().Err(err).Str("barcode", item.Barcode).Str("action", string(action)).
			Msg("quantity changed but usage log append failed")
		return fmt.Errorf("%s %s: %w", action, item.Barcode, err)
	}
	r.log.Info().Str("barcode", item.Barcode).Str("action", string(action)).
		Int("quantity", item.Quantity).Str("operator", operator).Msg("inventory updated")
	return nil
}
