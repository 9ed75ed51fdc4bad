package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

func testWorker(t *testing.T) *worker.Worker {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return worker.NewWorker(log)
}

func TestBackgroundTasksRunAfterResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := testWorker(t)
	var ran atomic.Int32
	var responded, respondedFirst atomic.Bool

	r := gin.New()
	r.Use(BackgroundTasks(w))
	r.POST("/ok", func(c *gin.Context) {
		ctxutil.GetDeferredTasks(c.Request.Context()).Add(ctxutil.Task{
			Name: "test.ok",
			Run: func(ctx context.Context) error {
				respondedFirst.Store(responded.Load())
				ran.Add(1)
				return nil
			},
		})
		c.JSON(http.StatusAccepted, gin.H{"message": "accepted"})
		responded.Store(true)
	})
	r.POST("/fail", func(c *gin.Context) {
		ctxutil.GetDeferredTasks(c.Request.Context()).Add(ctxutil.Task{
			Name: "test.fail",
			Run:  func(ctx context.Context) error { ran.Add(100); return nil },
		})
		c.JSON(http.StatusNotFound, gin.H{})
	})

	for _, path := range []string{"/ok", "/fail"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	}
	w.Wait()

	if got := ran.Load(); got != 1 {
		t.Fatalf("expected only the successful request's task to run, got %d", got)
	}
	if !respondedFirst.Load() {
		t.Fatalf("task ran before the response was written")
	}
}

func TestUserRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewUserRateLimiter(2)
	alice, bob := uuid.New(), uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		id := alice
		if c.GetHeader("X-User") == "bob" {
			id = bob
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: id}))
		c.Next()
	})
	r.Use(limiter.Middleware())
	r.POST("/generate", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("alice"); code != http.StatusAccepted {
			t.Fatalf("request %d: got %d", i, code)
		}
	}
	if code := do("alice"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the burst is spent, got %d", code)
	}
	if code := do("bob"); code != http.StatusAccepted {
		t.Fatalf("buckets must be per user, got %d", code)
	}
}

func TestUserRateLimiterEvictsIdleBuckets(t *testing.T) {
	limiter := NewUserRateLimiter(2)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	limiter.lastSweep = clock

	limiter.bucket("alice")
	limiter.bucket("bob")
	assert.Len(t, limiter.buckets, 2)

	clock = clock.Add(bucketIdleTTL / 2)
	limiter.bucket("alice")

	// bob has been idle past the TTL; alice was seen half a TTL ago.
	clock = clock.Add(bucketIdleTTL/2 + time.Second)
	limiter.bucket("carol")
	assert.Len(t, limiter.buckets, 2)
	assert.NotContains(t, limiter.buckets, "bob")
	assert.Contains(t, limiter.buckets, "alice")

	// A returning caller gets a fresh, full bucket.
	assert.True(t, limiter.bucket("bob").Allow())
	assert.True(t, limiter.bucket("bob").Allow())
}
