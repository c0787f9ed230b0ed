package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"shopcore-be/internal/utils"

	"golang.org/x/time/rate"
)

// Rate tiers. Money-moving and credential endpoints get the strict
// bucket; everything else rides the general one.
const (
	limitStrict = rate.Limit(2)
	burstStrict = 5

	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

const bucketIdleTTL = 3 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	buckets   = make(map[string]*bucket)
	bucketsMu sync.Mutex
)

func init() {
	go reapIdleBuckets()
}

func takeBucket(key string, r rate.Limit, b int) *rate.Limiter {
	bucketsMu.Lock()
	defer bucketsMu.Unlock()

	bk, exists := buckets[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		buckets[key] = &bucket{limiter, time.Now()}
		return limiter
	}

	bk.lastSeen = time.Now()
	return bk.limiter
}

func reapIdleBuckets() {
	for {
		time.Sleep(time.Minute)

		bucketsMu.Lock()
		for key, bk := range buckets {
			if time.Since(bk.lastSeen) > bucketIdleTTL {
				delete(buckets, key)
			}
		}
		bucketsMu.Unlock()
	}
}

// strictPrefixes are the routes where brute force or replay hurts:
// credentials, verification codes, payment callbacks and withdrawals.
var strictPrefixes = []string{
	"/api/auth/",
	"/api/verify/",
	"/api/payment/callback",
	"/api/balance/withdraw/apply",
	"/api/balance/recharge/apply",
}

func resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	for _, p := range strictPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			return limitStrict, burstStrict, "strict"
		}
	}
	return limitGeneral, burstGeneral, "general"
}

// identityKey buckets authenticated traffic per user and anonymous
// traffic per client IP.
func identityKey(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// RateLimitMiddleware applies tiered token buckets. The same caller has
// separate quotas for strict and general routes.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := resolveRateTier(r)
		key := identityKey(r) + ":" + tier

		if !takeBucket(key, limit, burst).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
