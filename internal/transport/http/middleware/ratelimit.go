package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/shared"
)

// sweepEvery bounds how often expired windows are dropped from memory.
const sweepEvery = 1024

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*windowCounter)

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(c *windowCounter) {
		if fn != nil {
			c.key = fn
		}
	}
}

// RateLimit allows limit requests per key in each fixed window. The key is the
// authenticated user when present, otherwise the client IP.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	counter := newWindowCounter(limit, window, actorOrIPKey)
	for _, opt := range opts {
		opt(counter)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if counter.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter budgets on top of RateLimit for
// credential endpoints and for writes that spend a scarce resource such as a
// weekly pin, a triwulan vote or a submitted assessment.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	credentialLimit := max(baseLimit/4, 1)
	loginByIP := newWindowCounter(credentialLimit, window, clientIPKey)
	loginByEmail := newWindowCounter(credentialLimit, window, AuthEmailOrIPKey("email"))
	writesByActor := newWindowCounter(max(baseLimit/2, 1), window, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch classifyMutation(r) {
			case mutationCredential:
				if !loginByIP.allow(w, r) || !loginByEmail.allow(w, r) {
					return
				}
			case mutationScarce:
				if !writesByActor.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthEmailOrIPKey keys on the lower-cased JSON body field so one account
// cannot be brute forced from many addresses.
func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	field = strings.TrimSpace(field)
	if field == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		if value := peekJSONString(r, field); value != "" {
			return "email:" + strings.ToLower(value)
		}
		return clientIPKey(r)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

type window struct {
	hits    int
	resetAt time.Time
}

type windowCounter struct {
	mu      sync.Mutex
	limit   int
	span    time.Duration
	key     RateLimitKeyFunc
	windows map[string]*window
	calls   int
}

func newWindowCounter(limit int, span time.Duration, key RateLimitKeyFunc) *windowCounter {
	if key == nil {
		key = actorOrIPKey
	}
	return &windowCounter{limit: limit, span: span, key: key, windows: map[string]*window{}}
}

// hit counts one request for key and reports the state of its window.
func (c *windowCounter) hit(key string, now time.Time) (hits int, resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.calls%sweepEvery == 0 {
		for k, win := range c.windows {
			if now.After(win.resetAt) {
				delete(c.windows, k)
			}
		}
	}

	win, ok := c.windows[key]
	if !ok || now.After(win.resetAt) {
		win = &window{resetAt: now.Add(c.span)}
		c.windows[key] = win
	}
	win.hits++
	return win.hits, win.resetAt
}

func (c *windowCounter) allow(w http.ResponseWriter, r *http.Request) bool {
	if c.limit <= 0 {
		return true
	}
	key := c.key(r)
	if key == "" {
		key = clientIPKey(r)
	}

	now := time.Now()
	hits, resetAt := c.hit(key, now)
	resetIn := ceilSeconds(resetAt.Sub(now))

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(c.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(c.limit-hits, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if hits <= c.limit {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", c.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "terlalu banyak permintaan, coba lagi nanti", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// peekJSONString reads a top-level string field and restores the body for
// the handler.
func peekJSONString(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

type mutationClass int

const (
	mutationNone mutationClass = iota
	mutationCredential
	mutationScarce
)

type mutationRule struct {
	class  mutationClass
	prefix string
	suffix string
	exact  bool
}

var mutationRules = []mutationRule{
	{class: mutationCredential, prefix: "/auth/login", exact: true},
	{class: mutationCredential, prefix: "/auth/change-password", exact: true},
	{class: mutationScarce, prefix: "/pins", exact: true},
	{class: mutationScarce, prefix: "/assessments/team/rate", exact: true},
	{class: mutationScarce, prefix: "/assessments/", suffix: "/submit"},
	{class: mutationScarce, prefix: "/triwulan/", suffix: "/votes"},
	{class: mutationScarce, prefix: "/triwulan/", suffix: "/ratings"},
	{class: mutationScarce, prefix: "/reports/jobs/", suffix: "/run"},
	{class: mutationScarce, prefix: "/admin/triwulan"},
	{class: mutationScarce, prefix: "/admin/periods"},
}

func classifyMutation(r *http.Request) mutationClass {
	if r == nil {
		return mutationNone
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return mutationNone
	}
	path := apiPath(r.URL.Path)
	for _, rule := range mutationRules {
		if rule.exact {
			if path == rule.prefix {
				return rule.class
			}
			continue
		}
		if strings.HasPrefix(path, rule.prefix) && strings.HasSuffix(path, rule.suffix) {
			return rule.class
		}
	}
	return mutationNone
}

func apiPath(path string) string {
	path = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(path), "/api/v1"), "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
