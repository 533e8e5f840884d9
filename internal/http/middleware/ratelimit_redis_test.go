package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeCounter struct {
	mu    sync.Mutex
	hits  map[string]int64
	err   error
	keys  []string
	calls int
}

func (f *fakeCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if f.hits == nil {
		f.hits = map[string]int64{}
	}
	f.hits[key]++
	f.keys = append(f.keys, key)
	return f.hits[key], nil
}

func redisRouter(rl *RedisLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(rl.Handler())
	r.GET("/calls", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestRedisLimiter_AllowsUpToLimitThenRejects(t *testing.T) {
	fc := &fakeCounter{}
	rl := newRedisLimiter(fc, 2, 10*time.Second, KeyByUserOrIP())
	rl.now = fixedClock(time.Unix(1003, 0))
	r := redisRouter(rl, func(c *gin.Context) { c.Set(UserIDKey, "t1"); c.Next() })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", w.Code)
	}
	// window [1000,1010): 7s left
	if got := w.Header().Get("Retry-After"); got != "7" {
		t.Fatalf("Retry-After = %q, want 7", got)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "rate_limited" {
		t.Fatalf("body = %v", body)
	}
	if fc.keys[0] != "receptionist:rl:user:t1:100" {
		t.Fatalf("key = %q", fc.keys[0])
	}
}

func TestRedisLimiter_NewWindowResetsBudget(t *testing.T) {
	fc := &fakeCounter{}
	rl := newRedisLimiter(fc, 1, time.Second, KeyByUserOrIP())
	now := time.Unix(50, 0)
	rl.now = func() time.Time { return now }
	r := redisRouter(rl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	now = now.Add(time.Second)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("next window = %d", w.Code)
	}
}

func TestRedisLimiter_FailOpen(t *testing.T) {
	fc := &fakeCounter{err: errors.New("connection refused")}
	rl := newRedisLimiter(fc, 1, time.Second, KeyByUserOrIP())
	r := redisRouter(rl)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want fail-open 200", i, w.Code)
		}
	}
}

func TestRedisLimiter_BypassSkipsCounter(t *testing.T) {
	fc := &fakeCounter{}
	rl := newRedisLimiter(fc, 1, time.Second, KeyByUserOrIP())
	r := redisRouter(rl, func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls", nil))
	if w.Code != http.StatusOK || fc.calls != 0 {
		t.Fatalf("code=%d calls=%d", w.Code, fc.calls)
	}
}

func TestNewRedisLimiter_Defaults(t *testing.T) {
	rl := newRedisLimiter(&fakeCounter{}, 0, 0, KeyByUserOrIP())
	if rl.limit != 1 || rl.window != time.Second {
		t.Fatalf("limit=%d window=%v", rl.limit, rl.window)
	}
}
