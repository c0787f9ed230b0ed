package withdraw

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusSettled  Status = "settled"
	StatusRejected Status = "rejected"
)

// Apply is one withdrawal application. Amount is what leaves the user's
// balance; Fee is kept by the platform; Actual = Amount − Fee is what the
// user receives. All amounts in cents.
type Apply struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	Fee       int64     `json:"fee"`
	Actual    int64     `json:"actual"`
	Status    Status    `json:"status"`
	Remark    *string   `json:"remark,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RechargeStatus string

const (
	RechargePending RechargeStatus = "pending"
	RechargePaid    RechargeStatus = "paid"
)

// Recharge is one top-up application. The balance is credited only when the
// payment callback confirms it.
type Recharge struct {
	ID        int64          `json:"id"`
	SN        string         `json:"sn"`
	UserID    int64          `json:"user_id"`
	Amount    int64          `json:"amount"`
	Status    RechargeStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
