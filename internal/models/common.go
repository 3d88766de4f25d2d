// server/internal/models/common.go
package models

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format stored for expiration and delivery dates.
const DateLayout = "2006-01-02"

// NormalizeDate validates a YYYY-MM-DD string. Empty input stays empty.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateLayout), nil
}

// NormalizeBarcode trims transport whitespace; scanners often append CR/LF.
func NormalizeBarcode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyBarcode
	}
	return s, nil
}
