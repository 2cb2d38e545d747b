package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimiter(t *testing.T, max int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "login", max, time.Minute, zap.NewNop().Sugar()), mr
}

func TestAllow_WindowResets(t *testing.T) {
	l, mr := newLimiter(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok, "other clients have their own counter")

	mr.FastForward(time.Minute + time.Second)
	ok, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMiddleware(t *testing.T) {
	l, _ := newLimiter(t, 1)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusNoContent, req().Code)
	w := req()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestAllow_SetsWindowOnFirstHit(t *testing.T) {
	l, mr := newLimiter(t, 5)
	ok, err := l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, time.Minute, mr.TTL("login:1.2.3.4"))
	v, err := mr.Get("login:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	// later hits keep the original deadline
	mr.FastForward(20 * time.Second)
	_, err = l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, mr.TTL("login:1.2.3.4"))
}

func serveFrom(h http.Handler, peer, forwarded string) int {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.RemoteAddr = peer
	if forwarded != "" {
		r.Header.Set("X-Forwarded-For", forwarded)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Code
}

func TestMiddleware_IgnoresForwardedHeadersFromUntrustedPeers(t *testing.T) {
	l, _ := newLimiter(t, 2)
	h := Peer(middleware.RealIP(l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))))

	var codes []int
	for i := 0; i < 5; i++ {
		codes = append(codes, serveFrom(h, "203.0.113.7:4000", fmt.Sprintf("198.51.100.%d", i)))
	}
	assert.Equal(t, []int{204, 204, 429, 429, 429}, codes)
}

func TestMiddleware_TrustedProxyForwardsClientAddress(t *testing.T) {
	l, _ := newLimiter(t, 1)
	require.NoError(t, l.TrustProxies([]string{"10.0.0.0/8", "192.168.1.1"}))
	h := Peer(middleware.RealIP(l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))))

	assert.Equal(t, http.StatusNoContent, serveFrom(h, "10.1.2.3:4000", "198.51.100.1"))
	assert.Equal(t, http.StatusNoContent, serveFrom(h, "192.168.1.1:4000", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(h, "10.1.2.3:4000", "198.51.100.1"))
}

func TestTrustProxies_Invalid(t *testing.T) {
	l, _ := newLimiter(t, 1)
	assert.Error(t, l.TrustProxies([]string{"not-an-ip"}))
	assert.Error(t, l.TrustProxies([]string{"10.0.0.0/99"}))
}

func TestMiddleware_FailsOpen(t *testing.T) {
	l, mr := newLimiter(t, 1)
	mr.Close()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not a url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	rdb, err := NewRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = rdb.Close()
}
