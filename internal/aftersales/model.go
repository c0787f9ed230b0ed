package aftersales

import "time"

type Status string

const (
	StatusInReview  Status = "in_review"
	StatusApproved  Status = "approved"
	StatusSendBack  Status = "send_back"
	StatusReturned  Status = "returned"
	StatusCompleted Status = "completed"
	StatusRefused   Status = "refused"
	StatusCancelled Status = "cancelled"
)

// Open reports whether a record still blocks new aftersales on its order.
func (s Status) Open() bool {
	switch s {
	case StatusInReview, StatusApproved, StatusSendBack, StatusReturned:
		return true
	}
	return false
}

type Type string

const (
	TypeRefund Type = "refund"      // money back, goods kept
	TypeReturn Type = "return_refund" // goods back, then money back
)

func (t Type) Valid() bool {
	return t == TypeRefund || t == TypeReturn
}

type Aftersale struct {
	ID           int64     `json:"id"`
	Serial       string    `json:"serial"`
	OrderID      int64     `json:"order_id"`
	UserID       int64     `json:"user_id"`
	Type         Type      `json:"type"`
	Reason       string    `json:"reason"`
	RefundAmount int64     `json:"refund_amount"`
	Status       Status    `json:"status"`
	Pics         []string  `json:"pics,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Items []*Item `json:"items,omitempty"`
	Logs  []*Log  `json:"logs,omitempty"`
}

type Item struct {
	ID          int64  `json:"id"`
	AftersaleID int64  `json:"aftersale_id"`
	OrderItemID int64  `json:"order_item_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

// Log is one audit row; every state change writes exactly one.
type Log struct {
	ID          int64     `json:"id"`
	AftersaleID int64     `json:"aftersale_id"`
	FromStatus  Status    `json:"from_status"`
	ToStatus    Status    `json:"to_status"`
	Actor       string    `json:"actor"`
	Note        string    `json:"note,omitempty"`
	Pics        []string  `json:"pics,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ItemInput struct {
	OrderItemID int64 `json:"order_item_id"`
	Quantity    int   `json:"quantity"`
}

type CreateInput struct {
	OrderID      int64       `json:"order_id"`
	Type         Type        `json:"type"`
	Reason       string      `json:"reason"`
	RefundAmount int64       `json:"refund_amount"`
	Pics         []string    `json:"pics"`
	Items        []ItemInput `json:"items"`
}

// ApplyLine describes one order line a user may open aftersales for.
type ApplyLine struct {
	OrderItemID int64  `json:"order_item_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}
