package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/telassist/callarchive/internal/archive"
	"github.com/telassist/callarchive/internal/config"
	"github.com/telassist/callarchive/internal/journal"
	"github.com/telassist/callarchive/internal/queue"
	"github.com/telassist/callarchive/internal/server"
	"github.com/telassist/callarchive/internal/server/routes"
	"github.com/telassist/callarchive/internal/share"
	zoomwebhook "github.com/telassist/callarchive/internal/webhooks/zoom"
	"github.com/telassist/callarchive/internal/zoomphone"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	jrnl, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		slog.Error("Failed to open archive journal", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := jrnl.Close(); err != nil {
			slog.Error("Failed to close archive journal", "error", err)
		}
	}()

	provider := zoomphone.New(cfg.Zoom.AccountID, cfg.Zoom.ClientID, cfg.Zoom.ClientSecret, zoomphone.DirectoryRule{
		EmailPrefix:     cfg.Zoom.Directory.EmailPrefix,
		EmailSuffix:     cfg.Zoom.Directory.EmailSuffix,
		SpecialEmail:    cfg.Zoom.Directory.SpecialEmail,
		SpecialInitials: cfg.Zoom.Directory.SpecialInitials,
	})
	if cfg.Zoom.AuthBaseURL != "" {
		provider.AuthBaseURL = cfg.Zoom.AuthBaseURL
	}
	if cfg.Zoom.APIBaseURL != "" {
		provider.APIBaseURL = cfg.Zoom.APIBaseURL
	}

	uploader := share.New(share.Config{
		Address:   cfg.Share.Address,
		ShareName: cfg.Share.ShareName,
		Username:  cfg.Share.Username,
		Password:  cfg.Share.Password,
		Domain:    cfg.Share.Domain,
	})

	archiver := archive.NewArchiver(log, cfg.Archive.StagingDir, cfg.Archive.KeepStaged, uploader)
	pipeline := archive.NewPipeline(log, provider, archiver, jrnl, cfg.Zoom.ReadyDelay)

	jobs := queue.New(log)
	defer jobs.Close()

	handler := zoomwebhook.NewHandler(cfg.Zoom.WebhookSecret, log, jobs.Enqueue, pipeline.Process)

	srv := server.New(log)
	srv.RegisterRouter(routes.NewWebhookRoutes(handler))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting server", "port", cfg.Server.Port)
	slog.Error("Closing server", "error", srv.Start(addr))
}
