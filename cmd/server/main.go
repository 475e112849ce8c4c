package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SPX-VAL/internal"
	"SPX-VAL/internal/catalog"
	"SPX-VAL/internal/config"
	"SPX-VAL/internal/fields"
	"SPX-VAL/internal/geocode"
	"SPX-VAL/internal/handlers"
	"SPX-VAL/internal/logger"
	"SPX-VAL/internal/preview"
	"SPX-VAL/internal/processor"
	"SPX-VAL/internal/ratelimit"
	"SPX-VAL/internal/services"
	"SPX-VAL/internal/session"
	"SPX-VAL/internal/storage"
	"SPX-VAL/internal/store"
	"SPX-VAL/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	cat, err := catalog.Load(cfg.Data.BanksFile)
	if err != nil {
		return err
	}

	users, err := store.NewUserStore(cfg.Data.UsersCSV, log)
	if err != nil {
		return err
	}
	audit, err := store.NewAuditLog(cfg.Data.LogsCSV, log)
	if err != nil {
		return err
	}
	sequence := store.NewSequence(audit.Path(), log)

	objects, local, err := openObjectStore(cfg)
	if err != nil {
		return err
	}
	defer objects.Close()
	log.Info("object storage ready", zap.String("driver", cfg.Storage.Driver))

	var (
		activity *services.ActivityLogService
		records  *services.RecordService
	)
	if cfg.Database.Enabled() {
		db, err := internal.InitDB(cfg, log)
		if err != nil {
			return err
		}
		defer internal.CloseDB(db)
		activity = services.NewActivityLogService(db, log)
		defer activity.Flush()
		records = services.NewRecordService(db)
	} else {
		log.Info("database not configured, document records and activity logs are disabled")
	}

	var pdf services.PDFConverter
	if cfg.Gotenberg.URL != "" {
		svc, err := services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout, log)
		if err != nil {
			return err
		}
		defer svc.Close()
		pdf = svc
	}

	var geocoder geocode.Reverser = geocode.Disabled{}
	if cfg.Geocode.Enabled {
		geocoder = geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, log)
	}

	sessions := session.NewManager(cfg.Session.TTL, log)
	sweeper := session.NewSweeper(sessions, cfg.Session.SweepInterval, log)
	sweeper.Start()
	defer sweeper.Stop()

	// Five login attempts per client, refilled one per twelve seconds.
	loginLimiter := ratelimit.New(1.0/12, 5, time.Hour)
	stopLimiterSweep := make(chan struct{})
	defer close(stopLimiterSweep)
	go func() {
		ticker := time.NewTicker(cfg.Session.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopLimiterSweep:
				return
			case <-ticker.C:
				loginLimiter.Sweep()
			}
		}
	}()

	documents := services.NewDocumentService(services.DocumentServiceOptions{
		Extractor: fields.NewExtractor(sequence, log),
		Processor: processor.NewDocxProcessor(log),
		Previewer: preview.NewPreviewer(preview.NewDocxRenderer(), log),
		Store:     objects,
		Audit:     audit,
		Records:   records,
		PDF:       pdf,
		Logger:    log,
	})

	router := handlers.NewRouter(handlers.Dependencies{
		Sessions:       sessions,
		Auth:           services.NewAuthService(users, sessions, loginLimiter, log),
		Catalog:        cat,
		Documents:      documents,
		Photos:         services.NewPhotoService(objects, geocoder, log),
		Signer:         upload.NewStoreSigner(objects, cfg.GCS.SignedURLExpiry),
		Sequence:       sequence,
		Audit:          audit,
		Activity:       activity,
		Records:        records,
		Objects:        local,
		AllowOrigins:   cfg.Server.AllowOrigins,
		MaxUploadBytes: cfg.Data.MaxUploadMB << 20,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr), zap.String("base_url", cfg.Server.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// openObjectStore returns the configured store. The second value is set for
// the local driver, whose objects are served by the API itself.
func openObjectStore(cfg *config.Config) (storage.ObjectStore, *storage.LocalStore, error) {
	switch cfg.Storage.Driver {
	case "local":
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Server.BaseURL+"/api/v1/objects", cfg.Storage.SigningKey)
		if err != nil {
			return nil, nil, err
		}
		return local, local, nil
	default:
		gcs, err := storage.NewGCSClient(context.Background(), cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
		if err != nil {
			return nil, nil, err
		}
		return gcs, nil, nil
	}
}
