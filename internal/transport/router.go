package transport

import (
	"shopcore-be/internal/aftersales"
	"shopcore-be/internal/coupon"
	"shopcore-be/internal/ledger"
	"shopcore-be/internal/metrics"
	"shopcore-be/internal/order"
	"shopcore-be/internal/payment"
	"shopcore-be/internal/user"
	"shopcore-be/internal/verify"
	"shopcore-be/internal/withdraw"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Users      user.Service
	Orders     order.Service
	Ledger     ledger.Service
	Coupons    coupon.Service
	Withdraws  withdraw.Service
	Aftersales aftersales.Service
	Verify     verify.Service
	Payments   payment.Service

	// Stats is optional; when set, /internal/metrics exposes its snapshot.
	Stats *metrics.HTTPStats
}

// NewRouter builds the gin engine. Identity, request ids, logging and rate
// limiting are applied by the net/http middlewares wrapping this engine in
// main; handlers read identity from the request context.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { ok(c, gin.H{"status": "up"}) })
	r.GET("/internal/metrics", d.metricsSnapshot)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", d.register)
		auth.POST("/login", d.login)
	}

	api.POST("/verify/send", d.verifySend)

	orders := api.Group("/order")
	{
		orders.POST("", d.orderCreate)
		orders.GET("", d.orderList)
		orders.GET("/:id", d.orderDetail)
		orders.POST("/:id/cancel", d.orderCancel)
		orders.POST("/:id/receive", d.orderReceive)
		orders.POST("/:id/pay-params", d.orderPayParams)

		orders.POST("/:id/confirm", d.orderConfirm)
		orders.POST("/:id/ship", d.orderShip)
		orders.POST("/:id/complete", d.orderComplete)
	}

	api.POST("/payment/callback", d.paymentCallback)

	balance := api.Group("/balance")
	{
		balance.GET("/detail", d.balanceDetail)
		balance.GET("/log", d.balanceLog)
		balance.POST("/withdraw/apply", d.withdrawApply)
		balance.GET("/withdraw/list", d.withdrawList)
		balance.POST("/withdraw/:id/approve", d.withdrawApprove)
		balance.POST("/withdraw/:id/reject", d.withdrawReject)
		balance.GET("/withdraw/pending", d.withdrawPending)
		balance.POST("/recharge/apply", d.rechargeApply)
		balance.GET("/recharge/list", d.rechargeList)
	}

	coupons := api.Group("/coupon")
	{
		coupons.POST("", d.couponCreate)
		coupons.GET("", d.couponList)
		coupons.GET("/:id", d.couponDetail)
		coupons.POST("/:id/receive", d.couponReceive)
		coupons.GET("/mine", d.couponMine)
		coupons.GET("/available", d.couponAvailable)
		coupons.POST("/validate", d.couponValidate)
		coupons.POST("/use", d.couponUse)
	}

	as := api.Group("/aftersales")
	{
		as.POST("", d.aftersalesCreate)
		as.GET("", d.aftersalesList)
		as.GET("/config", d.aftersalesConfig)
		as.GET("/apply-data/:order_id", d.aftersalesApplyData)
		as.GET("/:id", d.aftersalesDetail)
		as.GET("/:id/record", d.aftersalesRecord)
		as.POST("/:id/feedback", d.aftersalesFeedback)
		as.POST("/:id/cancel", d.aftersalesCancel)

		as.GET("/review", d.aftersalesReviewList)
		as.POST("/:id/review", d.aftersalesReview)
		as.POST("/:id/returned", d.aftersalesReturned)
		as.POST("/:id/complete", d.aftersalesComplete)
	}

	return r
}
