package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"review-catalog/cmd"
	"review-catalog/internal/data/repository"
	"review-catalog/internal/wire"
	"review-catalog/pkg/database"
	"review-catalog/pkg/mailer"
	"review-catalog/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.Migrate {
		if err := database.Migrate(config.Database.DSN(), logger); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	creds, err := wire.NewCredentials(config)
	if err != nil {
		logger.Fatal("Failed to derive signing keys", zap.Error(err))
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(db, repos, creds, mailer.New(config.Email, logger), config, logger)

	if config.Admin.Enabled() {
		if _, err := app.Service.User.EnsureSuperuser(ctx, config.Admin.Username, config.Admin.Email); err != nil {
			logger.Fatal("Failed to seed superuser", zap.Error(err))
		}
	}

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.HTTP, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
	}
}
