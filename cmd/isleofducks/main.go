package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jforjo/IsleofDucks-sub001/internal/analytics"
	"github.com/Jforjo/IsleofDucks-sub001/internal/audit"
	"github.com/Jforjo/IsleofDucks-sub001/internal/config"
	"github.com/Jforjo/IsleofDucks-sub001/internal/handlers"
	"github.com/Jforjo/IsleofDucks-sub001/internal/hypixel"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"
	"github.com/Jforjo/IsleofDucks-sub001/internal/scammer"
	"github.com/Jforjo/IsleofDucks-sub001/internal/server"
	"github.com/Jforjo/IsleofDucks-sub001/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	store, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	publicKey, err := cfg.DecodePublicKey()
	if err != nil {
		logger.Fatal("public key decode failed", zap.Error(err))
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		logger.Fatal("discord session init failed", zap.Error(err))
	}

	auditLogger := audit.NewLogger(store, logger)
	if cfg.Channels.Log != "" {
		auditLogger.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
			_, err := session.ChannelMessageSendEmbed(cfg.Channels.Log, &discordgo.MessageEmbed{
				Title:       entry.Event,
				Description: entry.Details,
				Color:       cfg.Embeds.Warning,
				Timestamp:   entry.CreatedAt.Format(time.RFC3339),
				Footer:      &discordgo.MessageEmbedFooter{Text: entry.Level},
			})
			if err != nil {
				logger.Warn("audit notify failed", zap.Error(err))
			}
		})
	}

	hypixelClient := hypixel.New(cfg.HypixelAPIKey)
	scammerClient := scammer.New(cfg.ScammerBaseURL)

	leaf := handlers.New(cfg, logger, store, hypixelClient, scammerClient, auditLogger, session)

	registry := interactions.NewRegistry()
	if err := leaf.Register(registry); err != nil {
		logger.Fatal("handler registration failed", zap.Error(err))
	}

	if err := handlers.SyncCommands(session, cfg.ApplicationID, cfg.GuildID); err != nil {
		logger.Fatal("command sync failed", zap.Error(err))
	}
	logger.Info("commands synced", zap.String("guild_id", cfg.GuildID))

	dispatcher := interactions.NewDispatcher(publicKey, registry, session, logger)

	srv := server.New(cfg, logger, dispatcher, analytics.New(store))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
