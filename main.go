package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/raushankrgupta/wardrobe-stylist/api"
	"github.com/raushankrgupta/wardrobe-stylist/cache"
	"github.com/raushankrgupta/wardrobe-stylist/config"
	"github.com/raushankrgupta/wardrobe-stylist/recommend"
	"github.com/raushankrgupta/wardrobe-stylist/repository"
	"github.com/raushankrgupta/wardrobe-stylist/scrapers"
	"github.com/raushankrgupta/wardrobe-stylist/subscription"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

const (
	localImagePrefix = "/wardrobe_images"
	shutdownTimeout  = 15 * time.Second
)

func main() {
	cfg := config.LoadConfig()

	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger.Desugar())

	if err := run(cfg, logger); err != nil {
		logger.Fatalw("Server stopped", "error", err)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in production")
	}

	users, wardrobe, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	blacklist := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	defer blacklist.Close()
	if !blacklist.Enabled() {
		logger.Warnw("REDIS_ADDR is not set, logout will not revoke tokens")
	}

	mailer := utils.NewMailer(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, logger)

	rules, err := recommend.LoadRules(cfg.RulesFile)
	if err != nil {
		return err
	}
	market := scrapers.NewAggregator(cfg, logger)
	engineOpts := []recommend.Option{
		recommend.WithLogger(logger),
		recommend.WithProducts(market),
	}
	if cfg.GeminiAPIKey != "" {
		engineOpts = append(engineOpts, recommend.WithStylist(utils.NewGeminiStylist(cfg.GeminiAPIKey, cfg.GeminiModel), 0))
	}
	engine, err := recommend.New(rules, engineOpts...)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Config:        cfg,
		Log:           logger,
		Users:         users,
		Wardrobe:      wardrobe,
		Revoker:       blacklist,
		Mailer:        mailer,
		Engine:        engine,
		Market:        market,
		Subscriptions: subscription.NewService(users, mailer, logger),
		OAuth:         api.GoogleOAuthConfig(cfg),
	}

	var localImages *utils.LocalImageStore
	if cfg.AWSBucketName != "" {
		deps.Images, err = utils.NewS3ImageStore(ctx, utils.S3Options{
			Region:    cfg.AWSRegion,
			Bucket:    cfg.AWSBucketName,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Infow("AWS_BUCKET_NAME is not set, storing images on disk", "dir", cfg.LocalImageDir)
		if localImages, err = utils.NewLocalImageStore(cfg.LocalImageDir, localImagePrefix); err != nil {
			return err
		}
		deps.Images = localImages
	}

	server := api.NewServer(deps)
	if localImages != nil {
		// Serve static files for images
		server.Handle("GET "+localImagePrefix+"/", localImages.Handler())
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           utils.RequestLogger(logger, utils.CORS(server)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("Server starting", "port", cfg.Port, "env", cfg.Env)
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

	logger.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores connects the configured user and wardrobe stores
func openStores(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (repository.UserRepository, repository.WardrobeRepository, func(), error) {
	if cfg.MongoURI == config.MemoryStoreURI {
		logger.Warnw("Using in-memory stores, data is lost on restart")
		return repository.NewMemoryUserRepository(), repository.NewMemoryWardrobeRepository(), func() {}, nil
	}

	client, err := utils.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Infow("Connected to MongoDB", "db", cfg.DBName)

	db := client.Database(cfg.DBName)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, nil, err
	}

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Warnw("Disconnect MongoDB", "error", err)
		}
	}
	return repository.NewMongoUserRepository(db), repository.NewMongoWardrobeRepository(db), closeFn, nil
}
