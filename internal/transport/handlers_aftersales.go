package transport

import (
	"shopcore-be/internal/aftersales"
	"shopcore-be/internal/apperr"
	"shopcore-be/internal/utils"

	"github.com/gin-gonic/gin"
)

func (d Deps) aftersalesCreate(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	var in aftersales.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	a, err := d.Aftersales.Create(c.Request.Context(), userID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, a)
}

func (d Deps) aftersalesList(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}

	page, pageSize := pageQuery(c)
	list, err := d.Aftersales.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (d Deps) aftersalesConfig(c *gin.Context) {
	ok(c, gin.H{"reasons": d.Aftersales.Config(c.Request.Context())})
}

func (d Deps) aftersalesApplyData(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	orderID, found := pathID(c, "order_id")
	if !found {
		return
	}

	lines, err := d.Aftersales.ApplyData(c.Request.Context(), userID, orderID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, lines)
}

func (d Deps) aftersalesDetail(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	a, err := d.Aftersales.Detail(c.Request.Context(), userID, utils.IsAdmin(c.Request.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, a)
}

func (d Deps) aftersalesRecord(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	logs, err := d.Aftersales.Record(c.Request.Context(), userID, utils.IsAdmin(c.Request.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, logs)
}

func (d Deps) aftersalesFeedback(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	var req struct {
		TrackingNo string   `json:"tracking_no" binding:"required"`
		Pics       []string `json:"pics"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	if err := d.Aftersales.Feedback(c.Request.Context(), userID, id, req.TrackingNo, req.Pics); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"sent_back": true})
}

func (d Deps) aftersalesCancel(c *gin.Context) {
	userID, found := identity(c)
	if !found {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	if err := d.Aftersales.Cancel(c.Request.Context(), userID, id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"cancelled": true})
}

func (d Deps) aftersalesReviewList(c *gin.Context) {
	if !adminOnly(c) {
		return
	}

	page, pageSize := pageQuery(c)
	list, err := d.Aftersales.ListInReview(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (d Deps) aftersalesReview(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	var req struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	if err := d.Aftersales.Review(c.Request.Context(), id, req.Approve, req.Note); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"reviewed": true})
}

func (d Deps) aftersalesReturned(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	if err := d.Aftersales.MarkReturned(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"returned": true})
}

func (d Deps) aftersalesComplete(c *gin.Context) {
	if !adminOnly(c) {
		return
	}
	id, found := pathID(c, "id")
	if !found {
		return
	}

	if err := d.Aftersales.Complete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"completed": true})
}
