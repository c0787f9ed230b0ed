package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcore-be/internal/aftersales"
	"shopcore-be/internal/config"
	"shopcore-be/internal/coupon"
	"shopcore-be/internal/db"
	"shopcore-be/internal/ledger"
	"shopcore-be/internal/logger"
	"shopcore-be/internal/metrics"
	"shopcore-be/internal/middleware"
	"shopcore-be/internal/notify"
	"shopcore-be/internal/order"
	"shopcore-be/internal/payment"
	"shopcore-be/internal/product"
	"shopcore-be/internal/transport"
	"shopcore-be/internal/user"
	"shopcore-be/internal/verify"
	"shopcore-be/internal/withdraw"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer rdb.Close()

	producer := notify.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	productRepo := product.NewRepository(database)
	ledgerSvc := ledger.NewService(ledger.NewRepository(database))
	couponSvc := coupon.NewService(coupon.NewRepository(database))
	userSvc := user.NewService(user.NewRepository(database))
	paymentSvc := payment.NewService(cfg.PaymentGatewayBase)

	orderRepo := order.NewRepository(database, productRepo)
	orderSvc := order.NewService(orderRepo, productRepo, couponSvc, producer, cfg.SerialMaxRetries)

	withdrawSvc := withdraw.NewService(withdraw.NewRepository(database), userSvc, paymentSvc, cfg.WithdrawFeeRate)
	aftersalesSvc := aftersales.NewService(aftersales.NewRepository(database), orderRepo)
	verifySvc := verify.NewService(rdb, time.Duration(cfg.VerifyCodeTTLSeconds)*time.Second)

	stats := &metrics.HTTPStats{}

	engine := transport.NewRouter(transport.Deps{
		Users:      userSvc,
		Orders:     orderSvc,
		Ledger:     ledgerSvc,
		Coupons:    couponSvc,
		Withdraws:  withdrawSvc,
		Aftersales: aftersalesSvc,
		Verify:     verifySvc,
		Payments:   paymentSvc,
		Stats:      stats,
	})

	// Identity first so the rate limiter can key on the user.
	var handler http.Handler = logger.LoggingMiddleware(engine)
	handler = stats.Middleware(handler)
	handler = middleware.RateLimitMiddleware(handler)
	handler = middleware.AuthMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}
