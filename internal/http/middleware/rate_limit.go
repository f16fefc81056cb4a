package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/internal/http/response"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/pkg/logger"
)

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Scope separates the counters of different limited routes.
	Scope   string
	KeyFunc func(r *http.Request) []string
}

type RateLimiter struct {
	counter repo.RateCounter
	config  RateLimitConfig
}

func NewRateLimiter(counter repo.RateCounter, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKey
	}
	return &RateLimiter{counter: counter, config: config}
}

// Middleware rejects with RATE_LIMIT_EXCEEDED once any key is over its limit.
// Counter failures let the request through.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range rl.config.KeyFunc(r) {
				ok, err := rl.counter.Allow(r.Context(), rl.config.Scope+":"+key, rl.config.Requests, rl.config.Window)
				if err != nil {
					logger.WarnContext(r.Context(), "rate limit check failed", "error", err)
					continue
				}
				if !ok {
					w.Header().Set("Retry-After", retryAfter(rl.config.Window))
					response.Error(w, r, domain.ErrRateLimited)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// ClientIPKey keys on the connection's remote address and ignores forwarding headers.
func ClientIPKey(r *http.Request) []string {
	return TrustedClientIPKey(nil)(r)
}

// TrustedClientIPKey keys on the client IP, reading forwarding headers only when the
// request arrives from one of trusted.
func TrustedClientIPKey(trusted []*net.IPNet) func(r *http.Request) []string {
	return func(r *http.Request) []string {
		if ip := getClientIP(r, trusted); ip != "" {
			return []string{"ip:" + ip}
		}
		return nil
	}
}

// ParseTrustedProxies accepts plain IPs and CIDRs. Invalid entries are logged and skipped.
func ParseTrustedProxies(entries []string) []*net.IPNet {
	var out []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				logger.Warn("ignoring invalid trusted proxy", "entry", e)
				continue
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			logger.Warn("ignoring invalid trusted proxy", "entry", e, "error", err)
			continue
		}
		out = append(out, n)
	}
	return out
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// getClientIP returns RemoteAddr unless it is a trusted proxy. Behind one, it walks
// X-Forwarded-For from the right and returns the first hop that is not itself trusted,
// falling back to X-Real-IP.
func getClientIP(r *http.Request, trusted []*net.IPNet) string {
	peer := remoteIP(r)
	if !isTrusted(net.ParseIP(peer), trusted) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			ip := net.ParseIP(hop)
			if ip == nil {
				break
			}
			if !isTrusted(ip, trusted) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}
