package transport

import (
	"shopcore-be/internal/apperr"
	"shopcore-be/internal/ledger"
	"shopcore-be/internal/payment"

	"github.com/gin-gonic/gin"
)

func (d Deps) balanceDetail(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	detail, err := d.Ledger.Detail(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, detail)
}

func (d Deps) balanceLog(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	kind := ledger.Kind(c.DefaultQuery("kind", string(ledger.KindBalance)))
	if !kind.Valid() {
		fail(c, ledger.ErrInvalidKind)
		return
	}

	page, pageSize := pageQuery(c)
	entries, err := d.Ledger.Log(c.Request.Context(), userID, kind, pageSize, (page-1)*pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, entries)
}

func (d Deps) withdrawApply(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	var req struct {
		Amount   int64  `json:"amount" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	a, err := d.Withdraws.Apply(c.Request.Context(), userID, req.Amount, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, a)
}

func (d Deps) withdrawList(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	page, pageSize := pageQuery(c)
	applies, err := d.Withdraws.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, applies)
}

func (d Deps) withdrawPending(c *gin.Context) {
	if !adminOnly(c) {
		return
	}

	page, pageSize := pageQuery(c)
	applies, err := d.Withdraws.ListPending(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, applies)
}

func (d Deps) withdrawApprove(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	if err := d.Withdraws.Approve(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"approved": true})
}

func (d Deps) withdrawReject(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	var req struct {
		Remark string `json:"remark"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := d.Withdraws.Reject(c.Request.Context(), id, req.Remark); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"rejected": true})
}

func (d Deps) rechargeApply(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	var req struct {
		Amount int64          `json:"amount" binding:"required"`
		Method payment.Method `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	out, err := d.Withdraws.RechargeApply(c.Request.Context(), userID, req.Amount, req.Method)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

func (d Deps) rechargeList(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	page, pageSize := pageQuery(c)
	recharges, err := d.Withdraws.RechargeList(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, recharges)
}
