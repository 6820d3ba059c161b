package middleware

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/edumart/edumart/pkg/common"
)

// Auth returns a middleware that extracts user information from request
// headers and adds it to the context. It does not enforce authentication;
// the real session layer sits in front of this service and forwards the
// caller identity in X-User-Id.
func Auth() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if userHeader := c.GetHeader("X-User-Id"); len(userHeader) > 0 {
			if id, err := strconv.ParseInt(string(userHeader), 10, 64); err == nil && id > 0 {
				ctx = common.ContextWithUserID(ctx, id)
			}
		}
		c.Next(ctx)
	}
}

// RequireAuth returns a middleware that enforces authentication. Requests
// without a valid X-User-Id header are rejected with 401.
func RequireAuth() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		userHeader := c.GetHeader("X-User-Id")
		if len(userHeader) == 0 {
			c.JSON(401, map[string]any{
				"code":  401,
				"error": "authentication required",
				"msg":   "missing X-User-Id header",
			})
			c.Abort()
			return
		}

		id, err := strconv.ParseInt(string(userHeader), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(401, map[string]any{
				"code":  401,
				"error": "authentication required",
				"msg":   "invalid X-User-Id header",
			})
			c.Abort()
			return
		}

		ctx = common.ContextWithUserID(ctx, id)
		c.Next(ctx)
	}
}
