package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/edumart/edumart/biz/handler"
	"github.com/edumart/edumart/biz/middleware"
)

// Register configures HTTP routes for the resource APIs.
func Register(r *server.Hertz, h *handler.ResourceHandler) {
	if h == nil {
		return
	}

	v1 := r.Group("/api/v1")

	resources := v1.Group("/resources", middleware.RequireAuth())
	resources.POST("", h.CreateResource)
	resources.GET("", h.ListResources)
	resources.DELETE("/:id", h.DeleteResource)

	// Download carries its own purchase check upstream; here the caller
	// only needs to be known.
	v1.GET("/resources/:id/download", middleware.RequireAuth(), h.DownloadResource)

	v1.POST("/users/avatar", middleware.RequireAuth(), h.UploadAvatar)

	// Local-adapter public files. Deliberately an API route rather than a
	// static mount so runtime-written files stay servable everywhere.
	r.GET("/api/uploads/*key", h.ServeUpload)

	r.GET("/ping", handler.Ping)
}
