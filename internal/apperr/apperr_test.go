package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("DirectKind", func(t *testing.T) {
		err := Conflict("coupon already used")
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("WrappedKind", func(t *testing.T) {
		inner := NotFound("order not found")
		outer := fmt.Errorf("load order: %w", inner)
		assert.Equal(t, KindNotFound, KindOf(outer))
	})

	t.Run("PlainErrorIsInternal", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(errors.New("db gone")))
	})

	t.Run("NilUnwrap", func(t *testing.T) {
		err := Validation("amount must be positive")
		assert.Nil(t, errors.Unwrap(err))
		assert.Equal(t, "amount must be positive", err.Error())
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("pq: deadlock detected")
	err := Wrap(KindConflict, "claim coupon", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "pq: deadlock detected")
	assert.True(t, Is(err, KindConflict))
}

func TestWithDetails(t *testing.T) {
	type shortLine struct {
		ProductID int64 `json:"product_id"`
		Requested int   `json:"requested"`
		Available int   `json:"available"`
	}
	err := WithDetails(KindConflict, "insufficient stock", []shortLine{{1, 10, 5}})
	assert.Equal(t, KindConflict, err.Kind)
	assert.NotNil(t, err.Details)
}
