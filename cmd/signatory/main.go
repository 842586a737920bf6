package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"log/slog"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/human-tech/signatory/adapters/discord"
	"github.com/human-tech/signatory/adapters/events"
	"github.com/human-tech/signatory/adapters/passport"
	"github.com/human-tech/signatory/adapters/registry"
	"github.com/human-tech/signatory/adapters/store"
	"github.com/human-tech/signatory/adapters/tokenizer"
	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/internal/config"
	"github.com/human-tech/signatory/ports"
	"github.com/human-tech/signatory/service"
	transport "github.com/human-tech/signatory/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("missing environment variables", "error", err)
		os.Exit(1)
	}

	tiers, err := core.ParseRoleTiers(cfg.RoleTiers)
	if err != nil {
		log.Error("invalid ROLE_TIERS", "error", err)
		os.Exit(1)
	}

	// Challenge tokens only need to survive this process; an ephemeral
	// signing key is enough.
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Error("failed to generate signing key", "error", err)
		os.Exit(1)
	}

	var st ports.Store
	var eventPub ports.EventPublisher
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("failed to parse redis URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		cancel()

		st = store.NewRedisStore(redisClient, cfg.Cooldown, cfg.ChallengeTTL)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Error("failed to create event publisher", "error", err)
			os.Exit(1)
		}
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		st = store.NewMemoryStore(cfg.Cooldown)
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Error("failed to create discord session", "error", err)
		os.Exit(1)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	if err := session.Open(); err != nil {
		log.Error("failed to connect to discord", "error", err)
		os.Exit(1)
	}
	defer session.Close()
	log.Info("logged in", "user", session.State.User.Username)

	svc := service.New(
		st,
		registry.New(cfg.RegistryURL, cfg.WhitelistAPIKey, cfg.AdapterTimeout),
		passport.New(cfg.PassportURL, cfg.PassportAPIKey, cfg.AdapterTimeout),
		tokenizer.NewJWTTokenizer(signKey),
		discord.NewGuild(session, cfg.GuildID),
		eventPub,
		log,
		service.Config{
			ExternalURL:        cfg.ExternalURL,
			BaseRole:           cfg.BaseRole,
			Tiers:              tiers,
			ChallengeTTL:       cfg.ChallengeTTL,
			MaxAttempts:        cfg.MaxAttempts,
			ChannelDeleteDelay: cfg.ChannelDeleteDelay,
		},
	)

	if err := discord.RegisterCommands(session, cfg.ApplicationID, cfg.GuildID); err != nil {
		log.Error("failed to register slash commands", "error", err)
		os.Exit(1)
	}
	session.AddHandler(discord.NewCommandHandler(svc, log).Handle)
	log.Info("slash commands registered")

	gin.SetMode(gin.ReleaseMode)
	router := transport.SetupRouter(svc, log)

	log.Info("http server starting", "addr", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
}
