// Command stationnement runs the parking facility service: license plates
// are recognized from uploaded photographs and tracked in an entry/exit
// ledger with duration-of-stay accounting and report generation.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/YTKia/stationnement/internal/api"
	"github.com/YTKia/stationnement/internal/api/handler"
	"github.com/YTKia/stationnement/internal/api/middleware"
	"github.com/YTKia/stationnement/internal/auth"
	"github.com/YTKia/stationnement/internal/config"
	"github.com/YTKia/stationnement/internal/ledger"
	"github.com/YTKia/stationnement/internal/ocr"
	"github.com/YTKia/stationnement/internal/pipeline"
	"github.com/YTKia/stationnement/internal/report"
	"github.com/YTKia/stationnement/internal/vision"
)

// setupLogger configures structured logging based on the configured format.
func setupLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	switch format {
	case "kv":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func main() {
	cfg := config.Load()

	logger := setupLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting stationnement",
		"port", cfg.ServerPort,
		"db_path", cfg.DBPath,
		"min_contour_area", cfg.MinContourArea,
		"ocr_language", cfg.OCRLanguage,
	)

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&auth.User{}, &ledger.VehicleRecord{}); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	engine, err := ocr.NewTesseract(cfg.OCRLanguage)
	if err != nil {
		logger.Error("failed to initialize OCR engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	recognizer := pipeline.NewRecognizer(
		vision.NewLocalizer(cfg.MinContourArea),
		ocr.NewExtractor(engine),
		logger,
	)

	store := ledger.NewStore(db, logger)
	authSvc := auth.NewService(db, cfg.JWTSecret, cfg.JWTExpiration)
	generator := report.NewGenerator(db, time.Now)

	router := api.SetupRouter(
		handler.NewAuthHandler(authSvc),
		handler.NewRecognitionHandler(recognizer, store, time.Now, logger),
		handler.NewRecordHandler(store),
		handler.NewReportHandler(generator),
		middleware.NewAuthMiddleware(authSvc),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal, stopping...")
		cancel()
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("stationnement stopped")
}
