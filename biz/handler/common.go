package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/edumart/edumart/biz/service"
	"github.com/edumart/edumart/pkg/common"
	"github.com/edumart/edumart/pkg/storage"
)

// Ping is a trivial health probe.
func Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"message": "pong"})
}

func writeBadRequest(c *app.RequestContext, err error) {
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code:  consts.StatusBadRequest,
		Msg:   err.Error(),
		Error: err.Error(),
	})
}

func writeForbidden(c *app.RequestContext, err error) {
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code:  consts.StatusForbidden,
		Msg:   err.Error(),
		Error: err.Error(),
	})
}

func writeNotFound(c *app.RequestContext, err error) {
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code:  consts.StatusNotFound,
		Msg:   err.Error(),
		Error: err.Error(),
	})
}

func writeInternalError(c *app.RequestContext, err error) {
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code:  consts.StatusInternalServerError,
		Msg:   "internal error",
		Error: "internal error",
	})
}

// writeServiceError classifies a service failure. Validation failures and
// not-found conditions carry their message to the client; anything else is
// logged in full and answered generically.
func writeServiceError(ctx context.Context, c *app.RequestContext, err error) {
	switch {
	case service.IsValidationError(err):
		writeBadRequest(c, err)
	case err == service.ErrResourceNotFound || storage.IsCode(err, storage.ErrCodeFileNotFound):
		writeNotFound(c, err)
	case err == service.ErrNotOwner || storage.IsCode(err, storage.ErrCodePermissionDenied):
		writeForbidden(c, err)
	default:
		hlog.CtxErrorf(ctx, "request failed: %v", err)
		writeInternalError(c, err)
	}
}
