package transport

import (
	"strconv"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/coupon"

	"github.com/gin-gonic/gin"
)

func (d Deps) couponCreate(c *gin.Context) {
	if !adminOnly(c) {
		return
	}

	var in coupon.CreateTemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	tpl, err := d.Coupons.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, tpl)
}

func (d Deps) couponList(c *gin.Context) {
	page, pageSize := pageQuery(c)
	onlyActive := c.DefaultQuery("active", "true") == "true"

	tpls, err := d.Coupons.List(c.Request.Context(), onlyActive, pageSize, (page-1)*pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, tpls)
}

func (d Deps) couponDetail(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		return
	}

	tpl, err := d.Coupons.Detail(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, tpl)
}

func (d Deps) couponReceive(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	uc, err := d.Coupons.Claim(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, uc)
}

func (d Deps) couponMine(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	var status *coupon.Status
	if s := c.Query("status"); s != "" {
		st := coupon.Status(s)
		status = &st
	}

	mine, err := d.Coupons.ListMine(c.Request.Context(), userID, status)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, mine)
}

func (d Deps) couponAvailable(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	amount, err := strconv.ParseInt(c.Query("order_amount"), 10, 64)
	if err != nil || amount <= 0 {
		fail(c, apperr.Validation("order_amount must be a positive integer"))
		return
	}

	available, err := d.Coupons.Available(c.Request.Context(), userID, amount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, available)
}

func (d Deps) couponUse(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	var req struct {
		UserCouponID int64 `json:"user_coupon_id" binding:"required"`
		OrderID      int64 `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	if err := d.Coupons.Use(c.Request.Context(), req.UserCouponID, userID, req.OrderID); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"used": true})
}

func (d Deps) couponValidate(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	var req struct {
		UserCouponID int64 `json:"user_coupon_id" binding:"required"`
		OrderAmount  int64 `json:"order_amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	v, err := d.Coupons.Validate(c.Request.Context(), req.UserCouponID, userID, req.OrderAmount)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, v)
}
