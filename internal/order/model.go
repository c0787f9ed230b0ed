package order

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusReceived  Status = "received"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "pending"
	ShippingShipped   ShippingStatus = "shipped"
	ShippingDelivered ShippingStatus = "delivered"
)

// Order rows only move forward: pending → confirmed → shipped → received →
// completed. cancelled is reachable from pending/confirmed while unpaid;
// refunded only through the aftersales workflow.
type Order struct {
	ID             int64          `json:"id"`
	OrderSN        string         `json:"order_sn"`
	UserID         int64          `json:"user_id"`
	Status         Status         `json:"status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	ShippingStatus ShippingStatus `json:"shipping_status"`

	// TotalAmount = Σ(item.price × item.qty) − DiscountAmount + ShippingFee.
	TotalAmount    int64 `json:"total_amount"`
	DiscountAmount int64 `json:"discount_amount"`
	ShippingFee    int64 `json:"shipping_fee"`
	// PayAmount is what remains for the payment gateway after balance and
	// points were applied at creation.
	PayAmount   int64  `json:"pay_amount"`
	CouponID    *int64 `json:"coupon_id,omitempty"` // user_coupons.id
	BalancePaid int64  `json:"balance_paid"`
	PointsPaid  int64  `json:"points_paid"`

	CancelReason *string    `json:"cancel_reason,omitempty"`
	PayTime      *time.Time `json:"pay_time,omitempty"`
	ConfirmTime  *time.Time `json:"confirm_time,omitempty"`
	ShipTime     *time.Time `json:"ship_time,omitempty"`
	ReceiveTime  *time.Time `json:"receive_time,omitempty"`
	CancelTime   *time.Time `json:"cancel_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Items   []*Item  `json:"items,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Item lines are immutable once the order exists.
type Item struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	LineTotal   int64  `json:"line_total"`
}

// Address is the shipping snapshot taken at creation; later edits to the
// user's address book never touch it.
type Address struct {
	OrderID  int64  `json:"order_id"`
	Receiver string `json:"receiver"`
	Phone    string `json:"phone"`
	Province string `json:"province"`
	City     string `json:"city"`
	Detail   string `json:"detail"`
}

type FilterInput struct {
	Status *Status
}

type Line struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type AddressInput struct {
	Receiver string `json:"receiver"`
	Phone    string `json:"phone"`
	Province string `json:"province"`
	City     string `json:"city"`
	Detail   string `json:"detail"`
}

type CreateInput struct {
	Lines        []Line       `json:"items"`
	Address      AddressInput `json:"address"`
	UserCouponID *int64       `json:"user_coupon_id"`
	// UseBalance / UsePoints are explicit amounts (cents / points) the
	// caller wants debited at creation; one point pays one cent.
	UseBalance int64 `json:"use_balance"`
	UsePoints  int64 `json:"use_points"`
}
