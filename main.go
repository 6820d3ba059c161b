package main

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/joho/godotenv"

	"github.com/edumart/edumart/biz/dal/model"
	"github.com/edumart/edumart/biz/handler"
	"github.com/edumart/edumart/biz/middleware"
	"github.com/edumart/edumart/biz/router"
	"github.com/edumart/edumart/biz/service"
	"github.com/edumart/edumart/pkg/config"
	"github.com/edumart/edumart/pkg/database"
	"github.com/edumart/edumart/pkg/storage"
)

func main() {
	// A missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		hlog.Fatalf("load config: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		hlog.Fatalf("open database: %v", err)
	}
	if err := db.AutoMigrate(&model.Resource{}); err != nil {
		hlog.Fatalf("migrate database: %v", err)
	}

	// Storage misconfiguration is a deployment defect; fail before the
	// server ever accepts an upload.
	store, err := storage.Default(cfg.Storage)
	if err != nil {
		hlog.Fatalf("init storage: %v", err)
	}
	hlog.Infof("storage provider: %s", cfg.Storage.Provider)

	svc := service.NewService(db, store)
	resourceHandler := handler.NewResourceHandler(svc, store)

	h := server.Default(server.WithHostPorts(cfg.Server.Address))
	h.Use(
		middleware.Recovery(),
		middleware.Logging(),
		middleware.CORS(&cfg.CORS),
		middleware.Auth(),
	)
	router.Register(h, resourceHandler)

	h.Spin()
}
