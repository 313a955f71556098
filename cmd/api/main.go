package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"kermittech/cv-screener/internal/config"
	"kermittech/cv-screener/internal/handlers"
	"kermittech/cv-screener/internal/logger"
	"kermittech/cv-screener/internal/repositories"
	"kermittech/cv-screener/internal/services"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()
	log.Info("✅ Config loaded successfully")

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize database", zap.Error(err))
	}

	docRepo := repositories.NewDocumentRepository(db)
	screeningRepo := repositories.NewScreeningRepository(db)
	log.Info("✅ Repositories initialized successfully")

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := services.NewRuntime(ctx, cfg, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize screening runtime", zap.Error(err))
	}
	defer rt.Close()

	screeningService := services.NewScreeningService(
		screeningRepo,
		docRepo,
		rt.Screener,
		rt.Reports,
		log,
	)

	worker := services.NewWorker(
		screeningRepo,
		screeningService,
		cfg.Worker.Concurrency,
		log,
	)
	worker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "Kermit Tech CV Screener API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 4,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.RegisterRoutes(app, handlers.Routes{
		Upload:   handlers.NewUploadHandler(docRepo, storageService, cfg.Storage.MaxFileSize, log),
		Screen:   handlers.NewScreenHandler(screeningRepo, docRepo, worker, log),
		Result:   handlers.NewResultHandler(screeningRepo),
		Registry: rt.Metrics.Registry,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Error("❌ Failed to start server", zap.Error(err))
	}

	worker.Stop()
	cancel()
}
