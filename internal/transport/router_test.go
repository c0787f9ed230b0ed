package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/coupon"
	"shopcore-be/internal/metrics"
	"shopcore-be/internal/order"
	"shopcore-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Auth("who"), http.StatusUnauthorized},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.NotFound("gone"), http.StatusNotFound},
		{apperr.Conflict("raced"), http.StatusConflict},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, statusOf(tc.err))
	}
}

// stubOrders implements order.Service for routing tests; only the methods a
// test exercises are wired.
type stubOrders struct {
	order.Service
	markedPaid []string
	detail     *order.Order
}

func (s *stubOrders) MarkPaid(_ context.Context, sn string) error {
	s.markedPaid = append(s.markedPaid, sn)
	return nil
}

func (s *stubOrders) Detail(_ context.Context, _ int64, _ bool, _ int64) (*order.Order, error) {
	if s.detail == nil {
		return nil, order.ErrOrderNotFound
	}
	return s.detail, nil
}

func asUser(req *http.Request, userID int64, role string) *http.Request {
	ctx := utils.SetUserContext(req.Context(), userID, "ana@example.com", role)
	return req.WithContext(ctx)
}

func TestHealthz(t *testing.T) {
	r := NewRouter(Deps{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "ok", env.Message)
}

func TestAnonymousRequestsRejected(t *testing.T) {
	r := NewRouter(Deps{})

	for _, path := range []string{"/api/order/5", "/api/balance/detail", "/api/aftersales/5"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAdminRoutesRejectPlainUsers(t *testing.T) {
	r := NewRouter(Deps{})

	w := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/order/5/ship", nil), 1, utils.RoleUser)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestErrorEnvelope(t *testing.T) {
	orders := &stubOrders{} // Detail returns not-found
	r := NewRouter(Deps{Orders: orders})

	w := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/order/5", nil), 1, utils.RoleUser)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, http.StatusNotFound, env.Code)
	assert.Equal(t, "order not found", env.Message)
}

func TestPaymentCallbackRoutesBySerialPrefix(t *testing.T) {
	orders := &stubOrders{}
	r := NewRouter(Deps{Orders: orders})

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"sn":"ORD-20260831-1","status":"success"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payment/callback", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ORD-20260831-1"}, orders.markedPaid)
}

type stubCoupons struct {
	coupon.Service
	used [][3]int64
}

func (s *stubCoupons) Use(_ context.Context, userCouponID, userID, orderID int64) error {
	s.used = append(s.used, [3]int64{userCouponID, userID, orderID})
	return nil
}

func TestCouponUseRoute(t *testing.T) {
	coupons := &stubCoupons{}
	r := NewRouter(Deps{Coupons: coupons})

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"user_coupon_id":31,"order_id":11}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/coupon/use", body), 1, utils.RoleUser)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [][3]int64{{31, 1, 11}}, coupons.used)
}

func TestRegisterRequiresVerificationCode(t *testing.T) {
	r := NewRouter(Deps{})

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"email":"ana@example.com","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	stats := &metrics.HTTPStats{}
	stats.Observe(http.StatusOK, time.Millisecond)
	r := NewRouter(Deps{Stats: stats})

	t.Run("AdminReadsSnapshot", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := asUser(httptest.NewRequest(http.MethodGet, "/internal/metrics", nil), 1, utils.RoleAdmin)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var env Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		data, ok := env.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(1), data["requests"])
	})

	t.Run("PlainUserForbidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := asUser(httptest.NewRequest(http.MethodGet, "/internal/metrics", nil), 2, utils.RoleUser)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestPaymentCallbackIgnoresFailures(t *testing.T) {
	orders := &stubOrders{}
	r := NewRouter(Deps{Orders: orders})

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"sn":"ORD-20260831-1","status":"failed"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payment/callback", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, orders.markedPaid)
}
