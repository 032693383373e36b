package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"malkhana-backend/internal/auth"
	"malkhana-backend/internal/cache"
	"malkhana-backend/internal/config"
	"malkhana-backend/internal/database"
	"malkhana-backend/internal/db"
	"malkhana-backend/internal/handlers"
	"malkhana-backend/internal/health"
	h "malkhana-backend/internal/http"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/middleware"
	"malkhana-backend/internal/repositories"
	"malkhana-backend/internal/repositories/memstore"
	"malkhana-backend/internal/services"
	"malkhana-backend/internal/storage"
	"malkhana-backend/migrations"
)

// stores groups the persistence backends chosen by database.driver.
type stores struct {
	staff     services.StaffStore
	incidents services.IncidentStore
	evidence  services.EvidenceStore
	transfers services.TransferStore
	closures  services.ClosureStore
	reports   services.ReportStore
	ping      health.Pinger
	close     func()
}

type blobBackend interface {
	storage.BlobStore
	health.Pinger
}

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	seedAdmin := flag.Bool("seed-admin", false, "Create the ADMIN account from SEED_ADMIN_PASSWORD if none exists")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	// run returns instead of exiting so its deferred closes happen before os.Exit.
	if err := run(cfg, log, *seedAdmin); err != nil {
		log.Error("Server stopped", "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

func run(cfg *config.Config, log *logger.Logger, seedAdmin bool) error {
	policy, err := cfg.Policy()
	if err != nil {
		return fmt.Errorf("lifecycle policy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}
	defer st.close()

	// Redis is optional; a disabled cache degrades to uncached reports and no token revocation.
	cacheClient, err := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, continuing without cache", "addr", cfg.Redis.Addr, "error", err)
	} else {
		log.Info("Redis cache connected", "addr", cfg.Redis.Addr)
	}
	defer cacheClient.Close()

	blobs, err := openBlobs(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("blob storage: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHours)

	staffService := services.NewStaffService(st.staff, jwtManager, log)
	staffService.SetTokenRevoker(cacheClient)

	incidentService := services.NewIncidentService(st.incidents, policy, log)
	incidentService.SetCache(cacheClient)

	evidenceService := services.NewEvidenceService(st.evidence, blobs, policy, log)
	evidenceService.SetCache(cacheClient)

	transferService := services.NewTransferService(st.transfers, st.evidence, policy, log)
	transferService.SetCache(cacheClient)

	closureService := services.NewClosureService(st.closures, policy, log)
	closureService.SetCache(cacheClient)

	reportService := services.NewReportService(st.reports, log)
	reportService.SetCache(cacheClient)

	if seedAdmin {
		password := os.Getenv("SEED_ADMIN_PASSWORD")
		if password == "" {
			return errors.New("SEED_ADMIN_PASSWORD must be set with -seed-admin")
		}
		created, err := staffService.SeedAdmin(ctx, password)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		log.Info("Admin seed finished", "created", created)
	}

	router := h.NewRouter(
		handlers.NewAuthHandler(staffService, cfg.Server.SecureCookies, log),
		handlers.NewIncidentHandler(incidentService, log),
		handlers.NewEvidenceHandler(evidenceService, cfg.Server.MaxUploadMB, log),
		handlers.NewTransferHandler(transferService, log),
		handlers.NewClosureHandler(closureService, log),
		handlers.NewReportHandler(reportService, log),
		handlers.NewHealthHandler(health.NewHealthChecker(st.ping, cacheClient, blobs)),
		middleware.NewAuthMiddleware(jwtManager, st.staff, cacheClient, log),
	)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(log)(middleware.RequestLogging(log)(corsMiddleware(router)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("Server running", "addr", srv.Addr, "driver", cfg.Database.Driver, "lifecycle", cfg.Lifecycle.Mode)
	return serve(ctx, srv, log)
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully. A listen
// failure is returned rather than exiting the process.
func serve(ctx context.Context, srv *http.Server, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("Using in-memory database; data is lost on restart")
		m := memstore.New()
		return &stores{
			staff:     m.Staff(),
			incidents: m.Incidents(),
			evidence:  m.Evidence(),
			transfers: m.Transfers(),
			closures:  m.Closures(),
			reports:   m.Reports(),
			ping:      m,
			close:     func() {},
		}, nil

	case "postgres", "":
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}

		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := database.NewMigrator(pool, migrations.FS, log).RunMigrations(migrateCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("Connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

		return &stores{
			staff:     repositories.NewStaffRepository(pool),
			incidents: repositories.NewIncidentRepository(pool),
			evidence:  repositories.NewEvidenceRepository(pool),
			transfers: repositories.NewTransferRepository(pool),
			closures:  repositories.NewClosureRepository(pool),
			reports:   repositories.NewReportRepository(pool),
			ping:      pool,
			close:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func openBlobs(ctx context.Context, cfg *config.Config, log *logger.Logger) (blobBackend, error) {
	if !cfg.Storage.Configured() {
		log.Warn("Object storage not configured; photos and QR codes are kept in memory")
		return storage.NewMemoryStore(storage.MemoryBaseURL), nil
	}
	s3, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	log.Info("Object storage ready", "bucket", cfg.Storage.Bucket)
	return s3, nil
}
