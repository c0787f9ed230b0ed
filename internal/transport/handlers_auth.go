package transport

import (
	"shopcore-be/internal/apperr"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

const purposeRegister = "register"

func (d Deps) register(c *gin.Context) {
	var req struct {
		credentialsRequest
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	if err := d.Verify.Check(c.Request.Context(), req.Email, purposeRegister, req.Code); err != nil {
		fail(c, err)
		return
	}

	token, u, err := d.Users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"token": token, "user": u})
}

func (d Deps) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	token, u, err := d.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"token": token, "user": u})
}

func (d Deps) verifySend(c *gin.Context) {
	var req struct {
		Target  string `json:"target" binding:"required"`
		Purpose string `json:"purpose" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}

	// the code goes out through the delivery channel, never the response
	if _, err := d.Verify.Send(c.Request.Context(), req.Target, req.Purpose); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"sent": true})
}
