// Package ratelimit ограничивает частоту запросов по ключу (обычно IP клиента).
package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter хранит отдельный rate.Limiter для каждого ключа.
// Записи, к которым давно не обращались, удаляются при очередном обращении, без фоновых горутин.
type Limiter struct {
	rate  rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu          sync.Mutex
	entries     map[string]*entry
	lastCleanup time.Time
}

// New создаёт Limiter на perMinute запросов в минуту с заданным burst.
// Значения меньше 1 поднимаются до 1: нулевой лимит заблокировал бы вход навсегда.
func New(perMinute, burst int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:    rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		ttl:     10 * time.Minute,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Allow сообщает, можно ли пропустить запрос с данным ключом.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) > l.ttl {
		for k, e := range l.entries {
			if now.Sub(e.lastAccess) > l.ttl {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[key] = e
	}
	e.lastAccess = now
	return e.limiter.AllowN(now, 1)
}

// Len — количество отслеживаемых ключей
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Middleware отвечает 429 с Retry-After, если клиент превысил лимит.
// Ключ — IP из RemoteAddr (после chi middleware.RealIP там реальный адрес клиента).
func (l *Limiter) Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !l.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("client", key), slog.String("path", r.URL.Path))
				retryAfter := int(math.Ceil(1.0 / float64(l.rate)))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
