package main

import (
	"context"
	"net"
	"os"
	"time"

	grpcserver "github.com/jrybusiness/stylerental-backend/internal/adapter/grpc"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/messaging/nats"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/repository/cache"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/repository/mongodb"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/rest"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/storage/awss3"
	"github.com/jrybusiness/stylerental-backend/internal/adapter/storage/s3"
	accountuc "github.com/jrybusiness/stylerental-backend/internal/account/usecase"
	"github.com/jrybusiness/stylerental-backend/internal/config"
	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/listing/usecase"
	"github.com/jrybusiness/stylerental-backend/internal/mailer"
	"github.com/jrybusiness/stylerental-backend/internal/platform/auth"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/jrybusiness/stylerental-backend/internal/platform/metrics"
	"github.com/jrybusiness/stylerental-backend/internal/platform/tracer"
	"github.com/jrybusiness/stylerental-backend/internal/server"
)

const startupTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.NewLogger(logger.DefaultConfig())
		bootLog.Fatal("Failed to load config", "error", err)
	}

	appLogger := logger.NewLogger(&logger.LoggerConfig{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputFile: cfg.LogOutputFile,
	}).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	defer func() { _ = appLogger.Sync() }()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Service exited with error", "error", err)
		_ = appLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	tp, err := tracer.InitTracer(startCtx, cfg.ServiceName, cfg.OTELEndpoint, appLogger)
	if err != nil {
		return err
	}

	mongoClient, err := mongodb.Connect(startCtx, cfg.MongoURI)
	if err != nil {
		return err
	}
	db := mongoClient.Database(cfg.MongoDatabase)
	appLogger.Info("Connected to MongoDB", "database", cfg.MongoDatabase)

	listingRepo := mongodb.NewListingRepository(db, appLogger)
	favoriteRepo := mongodb.NewFavoriteRepository(db, appLogger)
	userRepo := mongodb.NewUserRepository(db, appLogger)

	store, err := newContentStore(startCtx, cfg, appLogger)
	if err != nil {
		return err
	}

	m := metrics.NewMetricsManager(cfg.ServiceName)

	deps := usecase.ListingDeps{
		Repo:      listingRepo,
		Favorites: favoriteRepo,
		Store:     store,
		Metrics:   m,
		Logger:    appLogger.Named("ListingUsecase"),
		Limits: usecase.Limits{
			MaxUploadFiles:  cfg.MaxUploadFiles,
			MaxUploadBytes:  cfg.MaxUploadBytes,
			PageSizeDefault: cfg.PageSizeDefault,
			PageSizeMax:     cfg.PageSizeMax,
		},
	}

	var redisClose func() error
	if cfg.RedisAddress != "" {
		rdb, err := cache.NewRedisClient(startCtx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without listing cache", "addr", cfg.RedisAddress, "error", err)
		} else {
			deps.Cache = cache.NewListingCache(rdb, cfg.CacheTTL)
			redisClose = rdb.Close
			appLogger.Info("Listing cache enabled", "addr", cfg.RedisAddress, "ttl", cfg.CacheTTL)
		}
	}

	var publisher *nats.Publisher
	if cfg.NATSURL != "" {
		publisher, err = nats.NewPublisher(cfg.NATSURL, cfg.ServiceName, appLogger)
		if err != nil {
			return err
		}
		deps.Publisher = publisher
	} else {
		appLogger.Info("NATS_URL not set, listing events are not published")
	}

	if cfg.MailEnabled() {
		deps.Notifier = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, appLogger)
	}

	listingUC := usecase.NewListingUsecase(deps)
	favoriteUC := usecase.NewFavoriteUsecase(favoriteRepo, listingRepo, appLogger.Named("FavoriteUsecase"))
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	accountUC := accountuc.NewAccountUsecase(userRepo, tokens, cfg.AllowedEmailDomain, appLogger.Named("AccountUsecase"))

	router := rest.NewRouter(rest.RouterDeps{
		Listings:      rest.NewListingHandler(listingUC, cfg.MaxUploadFiles, cfg.MaxUploadBytes, appLogger),
		Accounts:      rest.NewAccountHandler(accountUC, appLogger),
		Favorites:     rest.NewFavoriteHandler(favoriteUC, appLogger),
		Tokens:        tokens,
		Metrics:       m,
		Logger:        appLogger,
		AuthRateLimit: cfg.AuthRateLimit,
	})

	srv := server.New(router, cfg.HTTPPort, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, appLogger)

	// Registered first, stopped last.
	srv.OnShutdown("tracer", tp.Shutdown)
	srv.OnShutdown("mongodb", mongoClient.Disconnect)
	if redisClose != nil {
		srv.OnShutdown("redis", func(context.Context) error { return redisClose() })
	}
	if publisher != nil {
		srv.OnShutdown("nats", func(context.Context) error { publisher.Close(); return nil })
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}
	health := grpcserver.NewServer(appLogger.Named("grpc"))
	srv.Go("grpc", func() error { return health.Serve(lis) })
	srv.OnShutdown("grpc", func(context.Context) error { health.Stop(); return nil })
	health.SetServing(true)

	appLogger.Info("Listing service started", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort, "storage", cfg.StorageDriver)
	return srv.Run()
}

func newContentStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.ContentStore, error) {
	if cfg.StorageDriver == config.StorageDriverS3 {
		return awss3.NewStore(ctx, awss3.Options{
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.S3Bucket,
			PublicURL:    cfg.StoragePublicURL,
		}, log)
	}
	return s3.NewStore(ctx, s3.Options{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
		PublicURL: cfg.StoragePublicURL,
	}, log)
}
