package transport

import (
	"strconv"
	"strings"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/order"
	"shopcore-be/internal/payment"
	"shopcore-be/internal/utils"

	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.ToInt64(c.Param(name))
	if err != nil || id <= 0 {
		fail(c, apperr.Validation("invalid id"))
		return 0, false
	}
	return id, true
}

func pageQuery(c *gin.Context) (page, pageSize int32) {
	p, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	ps, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return int32(p), int32(ps)
}

func (d Deps) orderCreate(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	var in order.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	o, err := d.Orders.Create(c.Request.Context(), userID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, o)
}

func (d Deps) orderList(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	var filter *order.FilterInput
	if s := c.Query("status"); s != "" {
		st := order.Status(s)
		filter = &order.FilterInput{Status: &st}
	}

	page, pageSize := pageQuery(c)
	orders, err := d.Orders.List(c.Request.Context(), userID, filter, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, orders)
}

func (d Deps) orderDetail(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	o, err := d.Orders.Detail(c.Request.Context(), userID, utils.IsAdmin(c.Request.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, o)
}

func (d Deps) orderCancel(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := d.Orders.Cancel(c.Request.Context(), userID, id, req.Reason); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"cancelled": true})
}

func (d Deps) orderReceive(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	if err := d.Orders.Receive(c.Request.Context(), userID, id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"received": true})
}

func (d Deps) orderPayParams(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	var req struct {
		Method payment.Method `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	o, err := d.Orders.Detail(c.Request.Context(), userID, false, id)
	if err != nil {
		fail(c, err)
		return
	}
	if o.PaymentStatus != order.PaymentUnpaid {
		fail(c, order.ErrAlreadyPaid)
		return
	}

	params, err := d.Payments.Generate(c.Request.Context(), o.OrderSN, o.PayAmount, req.Method)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, params)
}

func (d Deps) orderConfirm(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}
	if err := d.Orders.Confirm(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"confirmed": true})
}

func (d Deps) orderShip(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}
	if err := d.Orders.Ship(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"shipped": true})
}

func (d Deps) orderComplete(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}
	if err := d.Orders.Complete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"completed": true})
}

// paymentCallback is what the gateway calls once a payment settles. Serial
// prefixes route it: orders are marked paid, recharges credit the balance.
func (d Deps) paymentCallback(c *gin.Context) {
	var req struct {
		SN     string `json:"sn" binding:"required"`
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}
	if req.Status != "success" {
		ok(c, gin.H{"ignored": true})
		return
	}

	var err error
	switch {
	case strings.HasPrefix(req.SN, "ORD-"):
		err = d.Orders.MarkPaid(c.Request.Context(), req.SN)
	case strings.HasPrefix(req.SN, "RC-"):
		err = d.Withdraws.RechargeComplete(c.Request.Context(), req.SN)
	default:
		err = apperr.Validation("unknown serial prefix")
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"processed": true})
}
