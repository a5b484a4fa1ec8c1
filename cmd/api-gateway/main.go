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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/term"

	_ "github.com/noah-isme/bm-aniversariantes-api/api/swagger"
	"github.com/noah-isme/bm-aniversariantes-api/internal/handler"
	"github.com/noah-isme/bm-aniversariantes-api/internal/middleware"
	"github.com/noah-isme/bm-aniversariantes-api/internal/repository"
	"github.com/noah-isme/bm-aniversariantes-api/internal/service"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/cache"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/card"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/config"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/database"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/jobs"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/bm-aniversariantes-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bm-aniversariantes-api/pkg/middleware/requestid"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/notify"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/roster"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/storage"
)

// @title BM Aniversariantes API
// @version 1.0.0
// @description Birthday roster, cards and e-mail notifications for the fire brigade company
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(); err != nil {
			log.Fatalf("hash-password: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	loc := cfg.Location()
	validate := validator.New()
	metrics := service.NewMetricsService()

	store, err := newCardStore(ctx, cfg.CardStorage)
	if err != nil {
		return fmt.Errorf("card storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.CardStorage.SignedURLSecret, cfg.CardStorage.SignedURLTTL)

	dispatchRepo, closeRepo, err := newDispatchRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dispatch log: %w", err)
	}
	defer closeRepo()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	mapping := roster.DefaultColumnMapping()
	if cfg.Roster.ColumnsFile != "" {
		if mapping, err = roster.LoadColumnMapping(cfg.Roster.ColumnsFile); err != nil {
			return fmt.Errorf("roster columns: %w", err)
		}
	}
	rosterSvc := service.NewRosterService(service.RosterServiceParams{
		Source:   newRosterSource(cfg.Roster),
		Parser:   roster.NewParser(mapping),
		Metrics:  metrics,
		Logger:   logr,
		Location: loc,
	})

	renderer, err := card.NewRenderer(cfg.Card.Scale, cfg.Card.JPEGQuality)
	if err != nil {
		return fmt.Errorf("card renderer: %w", err)
	}
	signature := card.Signature{
		CommanderName: cfg.Card.CommanderName,
		CommanderRank: cfg.Card.CommanderRank,
		UnitName:      cfg.Card.UnitName,
		City:          cfg.Card.City,
		Corporation:   cfg.Card.Corporation,
	}

	birthdaySvc := service.NewBirthdayService(service.BirthdayServiceParams{
		Roster:   rosterSvc,
		Cache:    cacheSvc,
		CacheTTL: cfg.Cache.TTL,
		Location: loc,
		Logger:   logr,
	})
	cardSvc := service.NewCardService(service.CardServiceParams{
		Roster:    rosterSvc,
		Renderer:  renderer,
		Signature: signature,
		Store:     store,
		Signer:    signer,
		Validator: validate,
		Location:  loc,
		Logger:    logr,
		Config:    service.CardServiceConfig{APIPrefix: cfg.APIPrefix, CleanupInterval: cfg.CardStorage.CleanupInterval},
	})
	exportSvc := service.NewExportService(birthdaySvc, nil, nil, logr)

	webhook := notify.NewWebhookClient(cfg.Notify.WebhookURL, cfg.Notify.Timeout, logr)
	if !webhook.Configured() {
		logr.Warn("notification webhook not configured, every e-mail will be reported as failed")
	}
	worker := service.NewDispatchWorker(service.DispatchWorkerParams{
		Repo:     dispatchRepo,
		Roster:   rosterSvc,
		Cards:    cardSvc,
		Notifier: webhook,
		Metrics:  metrics,
		Logger:   logr,
		Config:   service.DispatchWorkerConfig{EmailDomain: cfg.Notify.EmailDomain, ItemDelay: cfg.Notify.ItemDelay},
	})
	queue := jobs.NewQueue("dispatch", worker.Handle, jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: -1, Logger: logr})
	dispatchSvc := service.NewDispatchService(service.DispatchServiceParams{
		Repo:      dispatchRepo,
		Roster:    rosterSvc,
		Queue:     queue,
		Validator: validate,
		Location:  loc,
		Logger:    logr,
	})

	var authSvc *service.AuthService
	if cfg.Auth.Enabled {
		authSvc = service.NewAuthService(validate, logr, service.AuthConfig{
			AccessTokenSecret:    cfg.JWT.Secret,
			AccessTokenExpiry:    cfg.JWT.Expiration,
			Issuer:               cfg.JWT.Issuer,
			OperatorUsername:     cfg.Auth.OperatorUsername,
			OperatorPasswordHash: cfg.Auth.OperatorPasswordHash,
		})
	}

	dispatchSvc.RecoverStale(ctx)
	queue.Start(ctx)
	defer queue.Stop()
	cardSvc.StartCleanup(ctx)
	snapshot := rosterSvc.Reload(ctx)
	logr.Info("roster ready",
		zap.String("source", snapshot.Source),
		zap.Int("records", len(snapshot.Records)),
		zap.Bool("sample", snapshot.Sample))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, rosterSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var cacheInvalidator interface {
		Invalidate(ctx context.Context, pattern string) error
	}
	if cacheSvc.Enabled() {
		cacheInvalidator = cacheSvc
	}
	rosterHandler := handler.NewRosterHandler(rosterSvc, birthdaySvc, exportSvc, cacheInvalidator, logr)
	birthdayHandler := handler.NewBirthdayHandler(birthdaySvc)
	cardHandler := handler.NewCardHandler(cardSvc)
	notificationHandler := handler.NewNotificationHandler(dispatchSvc)

	operator := middleware.Operator(authSvc)
	guard := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, operator...), h)
	}

	api := r.Group(cfg.APIPrefix)
	if authSvc != nil {
		api.POST("/auth/login", handler.NewAuthHandler(authSvc).Login)
	}
	api.GET("/metrics/summary", metricsHandler.Summary)

	api.GET("/roster", rosterHandler.List)
	api.GET("/roster/status", rosterHandler.Status)
	api.GET("/roster/units", rosterHandler.Units)
	api.GET("/roster/export", rosterHandler.Export)
	api.POST("/roster/reload", guard(rosterHandler.Reload)...)

	api.GET("/birthdays/today", birthdayHandler.Today)
	api.GET("/birthdays/date/:date", birthdayHandler.OnDate)
	api.GET("/birthdays/week", birthdayHandler.Week)
	api.GET("/birthdays/month", birthdayHandler.Month)
	api.GET("/birthdays/dashboard", birthdayHandler.Dashboard)

	api.GET("/cards/personnel/:id", cardHandler.Personnel)
	api.POST("/cards/export", guard(cardHandler.Export)...)
	api.GET("/cards/download/:token", cardHandler.Download)

	api.POST("/notifications/dispatch", guard(notificationHandler.Dispatch)...)
	api.GET("/notifications/runs", notificationHandler.Runs)
	api.GET("/notifications/runs/:id", notificationHandler.Run)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "auth", authSvc != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCardStore(ctx context.Context, cfg config.CardStorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
	case config.StorageDriverFS, "":
		return storage.NewLocalStorage(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newDispatchRepository(ctx context.Context, cfg *config.Config) (service.DispatchRunStore, func(), error) {
	switch cfg.DispatchLog.Driver {
	case config.DispatchLogMemory, "":
		return repository.NewMemoryDispatchRepository(), func() {}, nil
	case config.DispatchLogPostgres, config.DispatchLogSQLite:
		db, err := openDispatchDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewDispatchRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown dispatch log driver %q", cfg.DispatchLog.Driver)
	}
}

func openDispatchDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.DispatchLog.Driver == config.DispatchLogSQLite {
		return database.NewSQLite(cfg.DispatchLog.SQLitePath)
	}
	return database.NewPostgres(cfg.Database)
}

func newRosterSource(cfg config.RosterConfig) service.RosterSource {
	if cfg.CSVFile != "" {
		return repository.NewFileRosterSource(cfg.CSVFile)
	}
	url := cfg.CSVURL
	if url == "" {
		url = repository.SpreadsheetCSVURL(cfg.SpreadsheetID, cfg.SheetName)
	}
	return repository.NewHTTPRosterSource(url, cfg.FetchTimeout)
}

func hashPassword() error {
	fmt.Fprint(os.Stderr, "operator password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	hash, err := service.HashPassword(string(raw))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
