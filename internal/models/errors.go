package models

import "errors"

// Domain errors shared by the stores, the reconciler and the HTTP layer.
var (
	ErrNotFound           = errors.New("not found")
	ErrItemNotFound       = errors.New("no item registered for this barcode")
	ErrAlreadyRegistered  = errors.New("an item with this barcode is already registered")
	ErrDuplicate          = errors.New("duplicate record")
	ErrEmptyBarcode       = errors.New("barcode is empty")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidDirection   = errors.New("invalid scan direction")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrNoBarcodeDetected  = errors.New("no barcode detected, please rescan")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
