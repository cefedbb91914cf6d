package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"example.com/presencebot/internal/bot"
	"example.com/presencebot/internal/config"
	"example.com/presencebot/internal/domain"
	"example.com/presencebot/internal/export"
	"example.com/presencebot/internal/notify"
	"example.com/presencebot/internal/store"
	httptransport "example.com/presencebot/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.DiscordToken == "" {
		logger.Fatal("DISCORD_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := store.NewRedisKV(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	defer kv.Close()

	sessions := store.NewSessionStore(kv)

	var notifier domain.Notifier
	if cfg.APIBaseURL != "" {
		notifier = notify.NewClient(cfg.APIBaseURL, cfg.APIToken)
	}

	manager := domain.NewManager(sessions, notifier, logger.Named("manager"))
	query := domain.NewQuery(sessions)
	stats := domain.NewStats(sessions)
	exporter := export.NewExporter(cfg.ExportDir)

	paginators := bot.NewRegistry(cfg.PaginatorTTL)
	go paginators.Run(ctx)

	presence := bot.NewPresenceHandler(manager, logger.Named("presence"))
	commands := bot.NewCommandHandler(query, stats, exporter, paginators, cfg.PageSize, logger.Named("commands"))

	discord, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	discord.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildPresences | discordgo.IntentsGuildMembers
	discord.StateEnabled = true

	discord.AddHandler(presence.HandlePresenceUpdate)
	discord.AddHandler(commands.HandleInteraction)
	discord.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("gateway ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})

	if err := discord.Open(); err != nil {
		logger.Fatal("failed to open gateway connection", zap.Error(err))
	}
	defer discord.Close()

	if err := bot.Register(discord, discord.State.User.ID, cfg.GuildID); err != nil {
		logger.Fatal("failed to register commands", zap.Error(err))
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	go func() {
		logger.Info("metrics listener started", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
