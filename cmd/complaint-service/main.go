package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"complaint-service/internal/attachment"
	"complaint-service/internal/auth"
	"complaint-service/internal/cache"
	"complaint-service/internal/config"
	"complaint-service/internal/db"
	httphandler "complaint-service/internal/http"
	"complaint-service/internal/http/middleware"
	"complaint-service/internal/logger"
	"complaint-service/internal/repository"
	"complaint-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	complaintRepo := repository.NewComplaintRepository(database)
	remarkRepo := repository.NewRemarkRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	directoryRepo := repository.NewDirectoryRepository(database)

	var counter service.UnreadCounter
	if cfg.Redis.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, unread counts served from database")
		} else {
			counter = cache.NewUnreadCounter(rdb)
		}
	}

	var (
		attachments service.AttachmentStore
		staticDir   string
	)
	switch cfg.Attachments.Driver {
	case config.AttachmentDriverHTTP:
		attachments = attachment.NewHTTPStore(cfg.Attachments.HTTPBaseURL, cfg.Attachments.HTTPToken)
	default:
		local, err := attachment.NewLocalStore(cfg.Attachments.LocalDir, cfg.Attachments.PublicBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare attachment directory")
		}
		attachments = local
		if strings.HasPrefix(cfg.Attachments.PublicBaseURL, "/") {
			staticDir = local.Dir()
		}
	}

	notificationService := service.NewNotificationService(notificationRepo, counter, cfg.Complaints.NotificationListLimit, log)
	remarkService := service.NewRemarkService(complaintRepo, remarkRepo)
	complaintService := service.NewComplaintService(
		complaintRepo,
		remarkService,
		directoryRepo,
		attachments,
		notificationService,
		service.ComplaintOptions{
			DetailsMaxLength:     cfg.Complaints.DetailsMaxLength,
			ReportNumberRetries:  cfg.Complaints.ReportNumberRetries,
			NotifyAdminsOnCreate: cfg.Complaints.NotifyAdminsOnCreate,
			AttachmentMaxBytes:   cfg.Attachments.MaxBytes,
		},
		log,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(
		complaintService,
		remarkService,
		notificationService,
		func(ctx context.Context) error { return db.HealthCheck(ctx, database) },
		cfg.Attachments.MaxBytes,
		log,
	)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.Environment, cfg.Attachments.PublicBaseURL, staticDir)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Str("attachments", cfg.Attachments.Driver).Msg("starting complaint service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
