package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// Logging returns a middleware that logs one line per request.
func Logging() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()

		c.Next(ctx)

		hlog.CtxInfof(ctx, "[%s] %s %s %d %dB %v",
			c.ClientIP(),
			string(c.Request.Method()),
			string(c.Request.URI().Path()),
			c.Response.StatusCode(),
			len(c.Response.Body()),
			time.Since(start),
		)
	}
}
