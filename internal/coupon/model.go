package coupon

import "time"

// Type is a closed set; Discount refuses values outside it rather than
// falling through a default.
type Type string

const (
	TypeFixed      Type = "fixed"
	TypePercentage Type = "percentage"
)

type Status string

const (
	StatusUnused  Status = "unused"
	StatusUsed    Status = "used"
	StatusExpired Status = "expired"
)

type Template struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Type         Type      `json:"type"`
	Value        int64     `json:"value"` // cents for fixed, percent for percentage
	MinAmount    int64     `json:"min_amount"`
	MaxAmount    *int64    `json:"max_amount,omitempty"` // percentage cap, cents
	TotalLimit   int       `json:"total_limit"`          // 0 = unlimited
	ClaimedCount int       `json:"claimed_count"`
	PerUserLimit int       `json:"per_user_limit"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserCoupon struct {
	ID         int64      `json:"id"`
	TemplateID int64      `json:"template_id"`
	UserID     int64      `json:"user_id"`
	Status     Status     `json:"status"`
	UseTime    *time.Time `json:"use_time,omitempty"`
	OrderID    *int64     `json:"order_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	Template *Template `json:"template,omitempty"`
}

// Discount computes the amount a coupon takes off an order. Percentage
// discounts floor (integer division) and honor the template cap; no variant
// ever exceeds the order amount.
func Discount(tpl *Template, orderAmount int64) (int64, error) {
	if orderAmount < 0 {
		return 0, ErrInvalidOrderAmount
	}

	var d int64
	switch tpl.Type {
	case TypeFixed:
		d = tpl.Value
	case TypePercentage:
		d = orderAmount * tpl.Value / 100
		if tpl.MaxAmount != nil && d > *tpl.MaxAmount {
			d = *tpl.MaxAmount
		}
	default:
		return 0, ErrUnknownType
	}

	if d > orderAmount {
		d = orderAmount
	}
	if d < 0 {
		d = 0
	}
	return d, nil
}
