package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderSerial builds a globally unique order serial:
// ORD-YYYYMMDD-HHMMSS-mmm-RRRR. The random suffix keeps concurrent callers
// apart; the orders table still carries a unique index and callers retry a
// bounded number of times on collision.
func GenerateOrderSerial() string {
	return generateSerial("ORD")
}

// GenerateAftersalesSerial builds a serial for aftersales records.
func GenerateAftersalesSerial() string {
	return generateSerial("AS")
}

// GenerateRechargeSerial builds a serial for recharge applications.
func GenerateRechargeSerial() string {
	return generateSerial("RC")
}

func generateSerial(prefix string) string {
	now := time.Now().UTC()

	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	// 4-digit cryptographic random
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf(
		"%s-%s-%03d-%04d",
		prefix,
		datePart,
		millis,
		n.Int64(),
	)
}
