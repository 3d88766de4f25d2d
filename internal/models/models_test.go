package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBarcode(t *testing.T) {
	got, err := NormalizeBarcode(" 4912345678904\r\n")
	assert.NoError(t, err)
	assert.Equal(t, "4912345678904", got)

	_, err = NormalizeBarcode("  \t")
	assert.ErrorIs(t, err, ErrEmptyBarcode)
}

func TestNormalizeDate(t *testing.T) {
	got, err := NormalizeDate("2027-03-31")
	assert.NoError(t, err)
	assert.Equal(t, "2027-03-31", got)

	got, err = NormalizeDate("")
	assert.NoError(t, err)
	assert.Empty(t, got)

	_, err = NormalizeDate("31/03/2027")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestActionValid(t *testing.T) {
	assert.True(t, ActionStockIn.Valid())
	assert.False(t, Action("consume").Valid())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, UnknownName, InventoryItem{}.DisplayName())
	assert.Equal(t, "Reagent A", InventoryItem{Name: "Reagent A"}.DisplayName())
}
