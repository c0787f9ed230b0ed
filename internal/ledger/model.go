package ledger

import "time"

// Kind selects which of a user's two accounts an operation touches. The
// currency account and the points account share one schema and one
// operation protocol.
type Kind string

const (
	KindBalance Kind = "balance"
	KindPoints  Kind = "points"
)

func (k Kind) Valid() bool {
	return k == KindBalance || k == KindPoints
}

// Reason codes every ledger entry carries.
type Reason string

const (
	ReasonOrderPay         Reason = "order_pay"
	ReasonOrderCancel      Reason = "order_cancel"
	ReasonRecharge         Reason = "recharge"
	ReasonWithdrawFreeze   Reason = "withdraw_freeze"
	ReasonWithdrawUnfreeze Reason = "withdraw_unfreeze"
	ReasonWithdrawSettle   Reason = "withdraw_settle"
	ReasonRefund           Reason = "aftersales_refund"
	ReasonAdjust           Reason = "adjust"
)

// Account is the materialized running total of a user's ledger entries for
// one kind. available and frozen are both kept non-negative by the
// conditional updates in ops.go; the entries remain the source of truth.
type Account struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Available int64     `json:"available"`
	Frozen    int64     `json:"frozen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is one immutable, signed balance change. Delta is the movement of
// the operation's primary sub-balance: credit +n and debit −n on available,
// freeze −n (available into frozen), unfreeze +n (frozen back to
// available), settle −n (frozen out of the system). Rows are never updated
// or deleted.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Delta     int64     `json:"delta"`
	Reason    Reason    `json:"reason"`
	RefID     string    `json:"ref_id"`
	CreatedAt time.Time `json:"created_at"`
}
