package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
)

// BackgroundTasks gives each request a task list and hands whatever the
// handlers registered to w once the response has been written and flushed.
func BackgroundTasks(w *worker.Worker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithDeferredTasks(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		tasks := ctxutil.GetDeferredTasks(ctx).Drain()
		if len(tasks) == 0 || w == nil {
			return
		}
		// Tasks only run for requests that succeeded.
		if c.Writer.Status() >= 400 {
			return
		}
		c.Writer.WriteHeaderNow()
		c.Writer.Flush()
		w.Submit(ctx, tasks...)
	}
}
