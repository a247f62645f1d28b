// Package ratelimit throttles requests per client with Redis fixed windows.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

var ErrLimited = errors.New("too many requests")

type Limiter struct {
	redis  *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// New returns a Limiter allowing limit hits per key within each window.
func New(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{redis: client, prefix: prefix, limit: limit, window: window}
}

// Allow records a hit for key. It returns ErrLimited once the count in the
// current window exceeds the limit.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	k := l.prefix + ":" + key

	// EXPIRE NX runs on every hit so a key left without a TTL gets one on
	// the next request instead of staying limited forever.
	var incr *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return oops.Code("RATE_LIMITER_UNAVAILABLE").With("key", k).Wrap(err)
	}

	if incr.Val() > int64(l.limit) {
		return ErrLimited
	}
	return nil
}

// ParseTrustedProxies parses IP addresses and CIDR ranges of reverse
// proxies whose X-Forwarded-For header is believed.
func ParseTrustedProxies(list []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("proxy", s).Errorf("invalid trusted proxy %q", s)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return prefixes, nil
}

// Middleware rejects requests over the limit with 429. When Redis is
// unreachable requests are let through. Clients are keyed by their
// connection address; X-Forwarded-For is only read when the connection
// comes from one of trusted.
func Middleware(l *Limiter, trusted []netip.Prefix, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := l.Allow(r.Context(), clientIP(r, trusted))
			switch {
			case errors.Is(err, ErrLimited):
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": ErrLimited.Error()})
				return
			case err != nil:
				logger.WarnContext(r.Context(), "rate limiter unavailable", "prefix", l.prefix, "error", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP walks X-Forwarded-For from the right, skipping trusted proxies,
// and returns the first address not in trusted.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !isTrusted(host, trusted) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !isTrusted(hop, trusted) {
			return hop
		}
	}
	return host
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
