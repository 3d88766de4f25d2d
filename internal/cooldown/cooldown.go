// Package cooldown debounces repeated scans of the same barcode within one
// scanning session.
package cooldown

import (
	"context"
	"time"
)

// Decision is the answer to one scan.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // remaining window when not allowed
}

// Gate accepts the first scan of a barcode in a session and rejects repeats
// until the window has passed. An accepted scan restarts the window.
type Gate interface {
	Allow(ctx context.Context, sessionID, barcode string) (Decision, error)
}

// Disabled accepts everything. Used when the window is zero.
type Disabled struct{}

func (Disabled) Allow(context.Context, string, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

func key(sessionID, barcode string) string {
	return sessionID + "\x00" + barcode
}
