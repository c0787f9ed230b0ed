package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderSerial(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		sn := GenerateOrderSerial()
		// Expected format: ORD-YYYYMMDD-HHMMSS-mmm-RRRR
		// Example: ORD-20231027-103000-123-4567

		assert.True(t, strings.HasPrefix(sn, "ORD-"), "Should start with ORD-")

		parts := strings.Split(sn, "-")
		if assert.Len(t, parts, 5, "Should have 5 parts separated by hyphens") {
			assert.Equal(t, "ORD", parts[0])
			assert.Len(t, parts[1], 8, "Date part YYYYMMDD should be 8 chars")
			assert.Len(t, parts[2], 6, "Time part HHMMSS should be 6 chars")
			assert.Len(t, parts[3], 3, "Milliseconds part should be 3 chars")
			assert.Len(t, parts[4], 4, "Random part should be 4 chars")
		}
	})

	t.Run("Uniqueness", func(t *testing.T) {
		sn1 := GenerateOrderSerial()
		sn2 := GenerateOrderSerial()
		assert.NotEqual(t, sn1, sn2, "Consecutive serials should be different")
	})
}

func TestGenerateAftersalesSerial(t *testing.T) {
	sn := GenerateAftersalesSerial()
	assert.True(t, strings.HasPrefix(sn, "AS-"))
}
