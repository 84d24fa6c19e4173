package checkout

import (
	"crypto/rand"
	"fmt"
)

const (
	orderCodeLength  = 10
	orderCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// generateOrderCode returns a random human-readable order code. Uniqueness
// is not pre-checked; the unique index on orders.order_code is the arbiter
// and collisions retry the whole checkout.
func generateOrderCode() (string, error) {
	buf := make([]byte, orderCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order code: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderCodeCharset[int(b)%len(orderCodeCharset)]
	}
	return string(buf), nil
}
