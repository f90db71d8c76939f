package main

import (
	"context"
	"log"
	"time"

	"storefront/cmd"
	"storefront/internal/data/repository"
	"storefront/internal/notify"
	"storefront/internal/scheduler"
	"storefront/internal/usecase"
	"storefront/internal/wire"
	"storefront/pkg/database"
	"storefront/pkg/jwtutil"
	"storefront/pkg/mailer"
	"storefront/pkg/metrics"
	"storefront/pkg/signing"
	"storefront/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if config.Database.AutoMigrate {
		if err := database.Migrate(config.Database, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	logger.Info("Database connected successfully")

	rdb, err := database.InitRedis(config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	repos := repository.NewRepository(db, rdb, logger)

	signer, err := signing.New(config.Signing.Secret, config.Signing.Salt, config.Signing.MaxAge())
	if err != nil {
		logger.Fatal("Failed to create signer", zap.Error(err))
	}

	jwt := jwtutil.NewJWTUtil(jwtutil.Config{
		SigningKey:    config.JWT.Secret,
		AccessExpiry:  time.Duration(config.JWT.AccessMinutes) * time.Minute,
		RefreshExpiry: time.Duration(config.JWT.RefreshHours) * time.Hour,
	})

	m := metrics.New()

	notifier := notify.NewMailNotifier(mailer.NewSMTPSender(config.Email, logger), config, m, logger)
	notifier.Start(context.Background())

	// Wire all dependencies
	app, err := wire.Wiring(repos, config, usecase.Deps{
		Signer:   signer,
		JWT:      jwt,
		Notifier: notifier,
		Metrics:  m,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to wire application", zap.Error(err))
	}

	jobs, err := scheduler.New(repos, app.Service.User, app.Limiter, config.Scheduler, logger)
	if err != nil {
		logger.Fatal("Failed to create scheduler", zap.Error(err))
	}
	jobs.Start()

	err = cmd.APIServer(app.Router, config.App.Port, logger,
		cmd.StopFunc(func(ctx context.Context) error {
			jobs.Stop(ctx)
			return nil
		}),
		cmd.StopFunc(notifier.Close),
	)
	if err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
	}
}
