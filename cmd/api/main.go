package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/api"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/audit"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/backend"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/config"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/database"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/landmark"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/repository"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/synthesis"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/treatment"
)

// deviceAllocEnv is read by the PyTorch allocator in the synthesis sidecar
// when it is started from this process
const deviceAllocEnv = "PYTORCH_CUDA_ALLOC_CONF"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DeviceAllocConf != "" {
		if err := os.Setenv(deviceAllocEnv, cfg.DeviceAllocConf); err != nil {
			return fmt.Errorf("failed to set %s: %w", deviceAllocEnv, err)
		}
	}

	// Initialize logger
	logger := config.NewLoggerWithFile(cfg.Environment, cfg.LogFile)
	slog.SetDefault(logger)

	logger.Info("starting Dermasim API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("synthesis_backend", cfg.SynthesisBackend),
		slog.String("detector_backend", cfg.DetectorBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backends
	synthesizer, err := backend.NewSynthesizer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create synthesizer: %w", err)
	}
	detector, err := backend.NewDetector(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create detector: %w", err)
	}

	// Device worker owns the synthesizer
	worker := synthesis.NewDeviceWorker(synthesis.WorkerConfig{
		Slots:      cfg.SynthesisConcurrency,
		QueueSize:  cfg.SynthesisQueueSize,
		SubmitWait: synthesis.DefaultWorkerConfig().SubmitWait,
		JobTimeout: cfg.GenerationTimeout,
	}, logger)
	worker.Start()
	defer worker.Stop()

	auditLogger := audit.NewSlogLogger(logger)
	compiler := treatment.NewCompiler(treatment.DefaultProfile)

	service := synthesis.NewService(synthesizer, compiler, worker, synthesis.Options{
		Backend:     cfg.SynthesisBackend,
		JPEGQuality: cfg.JPEGQuality,
	}, logger).WithAudit(auditLogger)

	processorConfig := landmark.DefaultProcessorConfig()
	processorConfig.JPEGQuality = cfg.JPEGQuality
	processor := landmark.NewProcessor(detector, processorConfig, logger)

	deps := &api.Dependencies{
		Config:      cfg,
		Generator:   service,
		Compiler:    compiler,
		Processor:   processor,
		Synthesizer: synthesizer,
		Worker:      worker,
		Audit:       auditLogger,
	}

	// Optional generation history
	if cfg.HistoryEnabled() {
		if cfg.AutoMigrate {
			version, err := database.MigrateUp(cfg.DatabaseURL, cfg.DatabaseName)
			if err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			logger.Info("database migrated", slog.Uint64("version", uint64(version)))
		}

		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		repo := repository.NewGenerationRepository(pool)
		service.WithRecorder(repo)
		deps.Generations = repo
		deps.DB = pool

		logger.Info("generation history enabled")
	}

	// Setup router
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...",
		slog.Int("active_sessions", router.Registry().Count()),
	)

	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")

	return nil
}
