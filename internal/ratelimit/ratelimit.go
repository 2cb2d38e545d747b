// Package ratelimit throttles credential endpoints per client IP with a
// fixed-window counter kept in Redis, so the API processes stay stateless.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"docverify/internal/apperror"
)

// NewRedis parses the URL, connects and pings before returning.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

type Limiter struct {
	rdb     *redis.Client
	prefix  string
	max     int
	window  time.Duration
	trusted []netip.Prefix
	lg      *zap.SugaredLogger
}

func New(rdb *redis.Client, prefix string, max int, window time.Duration, lg *zap.SugaredLogger) *Limiter {
	return &Limiter{rdb: rdb, prefix: prefix, max: max, window: window, lg: lg}
}

// TrustProxies lists the peers (IPs or CIDRs) whose forwarding headers are
// believed. Requests from any other peer are keyed on the peer address.
func (l *Limiter) TrustProxies(entries []string) error {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			addr, err := netip.ParseAddr(e)
			if err != nil {
				return fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			l.trusted = append(l.trusted, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(e)
		if err != nil {
			return fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		l.trusted = append(l.trusted, p.Masked())
	}
	return nil
}

// Allow counts one attempt for key and reports whether it is within the limit.
// The window TTL is set in the same transaction as the first increment.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + ":" + key
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, l.window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	n, err := incr.Result()
	if err != nil {
		return false, err
	}
	return n <= int64(l.max), nil
}

// Middleware rejects requests over the limit with 429. If Redis is
// unreachable the request goes through and a warning is logged.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := l.Allow(r.Context(), l.clientIP(r))
		if err != nil {
			l.lg.Warnw("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			err := apperror.RateLimited("too many attempts, try again later")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(apperror.Status(err))
			_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Message, "type": err.Kind})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

// Peer records the connection's own address before anything rewrites
// RemoteAddr from forwarding headers. It must run ahead of middleware.RealIP.
func Peer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, r.RemoteAddr)))
	})
}

// clientIP is the peer address, or the forwarded client address when the
// peer is a trusted proxy.
func (l *Limiter) clientIP(r *http.Request) string {
	peer, ok := r.Context().Value(ctxKey{}).(string)
	if !ok {
		peer = r.RemoteAddr
	}
	peer = host(peer)
	if addr, err := netip.ParseAddr(peer); err == nil && l.isTrusted(addr.Unmap()) {
		return host(r.RemoteAddr)
	}
	return peer
}

func (l *Limiter) isTrusted(addr netip.Addr) bool {
	for _, p := range l.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func host(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}
