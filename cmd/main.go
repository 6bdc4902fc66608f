package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"crop-doctor/config"
	"crop-doctor/internal/api/httpapi"
	"crop-doctor/internal/api/telegram"
	app "crop-doctor/internal/application"
	"crop-doctor/internal/container"
	"crop-doctor/internal/domain/port"
	"crop-doctor/internal/infrastructure/annotate"
	"crop-doctor/internal/infrastructure/logging"
	"crop-doctor/internal/infrastructure/storage"
	"crop-doctor/internal/infrastructure/translate"
	"crop-doctor/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, logFile, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()

	if err != nil {
		logger.Error("service stopped with error", zap.Error(err))
	}
	_ = logger.Sync()
	_ = logFile.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	labels := cfg.ModelLabels
	if cfg.ModelLabelsPath != "" {
		var err error
		if labels, err = vision.LoadLabels(cfg.ModelLabelsPath); err != nil {
			return err
		}
	}

	// Модель загружается один раз; ошибка загрузки не мешает старту
	model := vision.NewModel(vision.NewONNXLoader(vision.ONNXConfig{
		ModelPath: cfg.ModelPath,
		Labels:    labels,
		InputSize: cfg.ModelInputSize,
		Params: vision.YOLOv8Params{
			BoxThreshold:  cfg.BoxThreshold,
			NMSThreshold:  cfg.NMSThreshold,
			MaxDetections: cfg.MaxDetections,
		},
	}), cfg.ModelInstances, logger)
	defer func() {
		if err := model.Close(); err != nil {
			logger.Warn("close model", zap.Error(err))
		}
	}()

	annotator, err := annotate.New(annotate.DefaultOptions())
	if err != nil {
		return err
	}

	backend, closeBackend, err := newTranslationBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()
	logger.Info("translation backend", zap.String("name", cfg.TranslationBackend))

	appContainer := container.New(storage.NewMemoryUserRepository(), model, annotator, backend, container.Options{
		Languages: cfg.Languages,
		Diagnosis: app.DiagnosisConfig{
			MinConfidence:  cfg.MinConfidence,
			MaxImageBytes:  cfg.MaxUploadBytes,
			MaxImagePixels: cfg.MaxImagePixels,
		},
		Translation: app.TranslationConfig{
			Timeout:   cfg.TranslationTimeout,
			CacheSize: cfg.TranslationCacheSize,
			CacheTTL:  cfg.TranslationCacheTTL,
		},
	}, logger)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.New(appContainer, httpapi.Config{
			MaxUploadBytes: cfg.MaxUploadBytes,
			AllowedOrigins: cfg.AllowedOrigins,
		}, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, logger)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		g.Go(func() error {
			logger.Info("bot is running")
			return bot.Run(gctx)
		})
	} else {
		logger.Info("TELEGRAM_TOKEN is not set, bot disabled")
	}

	return g.Wait()
}

// newTranslationBackend выбирает бэкенд перевода. Для "none" возвращает nil:
// метки тогда отдаются без перевода.
func newTranslationBackend(ctx context.Context, cfg *config.Config) (port.TranslationBackend, func(), error) {
	noop := func() {}

	switch cfg.TranslationBackend {
	case config.BackendGoogle:
		g, err := translate.NewGoogle(ctx, cfg.GoogleTranslateAPIKey)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	case config.BackendGemini:
		g, err := translate.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		return g, func() { _ = g.Close() }, nil
	default:
		return nil, noop, nil
	}
}
