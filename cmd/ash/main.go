// Command ash is the service entrypoint: it loads configuration and
// credentials, wires every package into a Router and Scheduler, and runs
// until a shutdown signal arrives.
//
// Inbound Discord gateway events are the one external collaborator this
// binary does not consume itself (platform.Gateway only specifies the
// outbound shape the core needs) — wiring a websocket event consumer is
// left to whatever process embeds Router.Handle, the same way the
// teacher's own cmd/ai delegates its entire event loop to an external
// framework rather than hand-rolling the wire protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonesy-ops/ash/internal/aicache"
	"github.com/jonesy-ops/ash/internal/aidispatcher"
	"github.com/jonesy-ops/ash/internal/aiprovider"
	"github.com/jonesy-ops/ash/internal/aiprovider/anthropicprovider"
	"github.com/jonesy-ops/ash/internal/aiprovider/openaiprovider"
	"github.com/jonesy-ops/ash/internal/catalog"
	"github.com/jonesy-ops/ash/internal/config"
	"github.com/jonesy-ops/ash/internal/conversation"
	"github.com/jonesy-ops/ash/internal/handlers"
	"github.com/jonesy-ops/ash/internal/logging"
	"github.com/jonesy-ops/ash/internal/metadata"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/ratelimit"
	"github.com/jonesy-ops/ash/internal/reminders"
	"github.com/jonesy-ops/ash/internal/repository"
	"github.com/jonesy-ops/ash/internal/router"
	"github.com/jonesy-ops/ash/internal/scheduler"
)

// Exit codes (spec.md §6).
const (
	exitOK                = 0
	exitConfigError       = 1
	exitCredentialsError  = 2
	exitUnrecoverableInit = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}
	log := logging.New(cfg.Log)

	discordToken := os.Getenv("DISCORD_TOKEN")
	databaseURL := os.Getenv("DATABASE_URL")
	if discordToken == "" || databaseURL == "" {
		log.Error().Msg("main: DISCORD_TOKEN and DATABASE_URL are required")
		return exitConfigError
	}

	repo, err := repository.OpenPostgres(databaseURL)
	if err != nil {
		log.Error().Err(err).Msg("main: open repository")
		return exitConfigError
	}
	defer repo.Close()

	personas, err := config.LoadPersonas(cfg.AI.PersonaDir)
	if err != nil {
		log.Error().Err(err).Msg("main: load personas")
		return exitConfigError
	}

	creds := metadata.Credentials{
		IGDBClientID:       os.Getenv("IGDB_CLIENT_ID"),
		IGDBClientSecret:   os.Getenv("IGDB_CLIENT_SECRET"),
		TwitchClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
	}
	metaClient, err := metadata.New(creds)
	if err != nil {
		log.Error().Err(err).Msg("main: construct metadata client")
		return exitCredentialsError
	}

	var video catalog.VideoSource
	if youtubeKey := os.Getenv("YOUTUBE_API_KEY"); youtubeKey != "" && cfg.Discord.YouTubeChannelID != "" {
		video = catalog.NewYouTubeSource(youtubeKey, cfg.Discord.YouTubeChannelID)
	}
	var stream catalog.StreamSource
	if twitchID, twitchSecret := os.Getenv("TWITCH_CLIENT_ID"), os.Getenv("TWITCH_CLIENT_SECRET"); twitchID != "" && twitchSecret != "" && cfg.Discord.TwitchUserID != "" {
		stream = catalog.NewTwitchSource(twitchID, twitchSecret, cfg.Discord.TwitchUserID)
	}
	ingestor := catalog.New(repo, metaClient, video, stream, log)

	primaryKey := os.Getenv("PRIMARY_AI_API_KEY")
	if primaryKey == "" {
		log.Error().Msg("main: PRIMARY_AI_API_KEY is required")
		return exitCredentialsError
	}
	primaryProvider, err := buildProvider(cfg.AI.PrimaryProvider, primaryKey)
	if err != nil {
		log.Error().Err(err).Msg("main: construct primary AI provider")
		return exitCredentialsError
	}
	// A backup provider is optional; failover just degrades to a plain
	// upstream_error when the primary fails and no backup is configured.
	var backupProvider aiprovider.Provider
	if backupKey := os.Getenv("BACKUP_AI_API_KEY"); backupKey != "" {
		backupProvider, err = buildProvider(cfg.AI.BackupProvider, backupKey)
		if err != nil {
			log.Error().Err(err).Msg("main: construct backup AI provider")
			return exitCredentialsError
		}
	}

	cache := aicache.New()
	limiter := ratelimit.New(ratelimit.GlobalQuota{
		RequestsPerWindow: cfg.RateLimit.GlobalRequestsPerWindow,
		Window:            cfg.RateLimit.GlobalWindow,
	})
	dispatcher := aidispatcher.New(primaryProvider, backupProvider, cache, limiter, personas, log)

	conversations := conversation.New(repo)
	gateway := platform.NewDiscordGateway(discordToken)
	tiers := platform.NewDiscordTierResolver(gateway, cfg.Discord.GuildID, cfg.Discord.StreamerUserID, cfg.Discord.CreatorUserID, cfg.Discord.OperatorRoleIDs)

	loc := cfg.Location()
	h := handlers.New(repo, gateway, tiers, conversations, dispatcher, ingestor, handlers.Config{
		GuildID:               cfg.Discord.GuildID,
		AnnouncementChannelID: cfg.Discord.AnnouncementChannelID,
		TriviaChannelID:       cfg.Discord.TriviaChannelID,
		YouTubePostChannelID:  cfg.Discord.YouTubePostChannelID,
		CreatorUserID:         cfg.Discord.CreatorUserID,
		StreamerUserID:        cfg.Discord.StreamerUserID,
		Location:              loc,
	}, log)

	r := router.New(router.Deps{
		Config: router.Config{
			StreamerUserID:      cfg.Discord.StreamerUserID,
			ViolationChannelID:  cfg.Discord.ViolationChannelID,
			ModeratorChannelIDs: cfg.Discord.ModeratorChannelIDs,
		},
		Conversations: conversations,
		Commands:      h,
		Steps:         h,
		Strikes:       h,
		NaturalLang:   h,
		Queries:       h,
		Conversation:  h,
		TriviaReplies: h,
		Log:           log,
	})
	serveInbound(r)

	deliverer := reminders.Deliverer{
		Repo: repo,
		Runner: reminders.Runner{
			Gateway:              gateway,
			GuildID:              cfg.Discord.GuildID,
			YouTubePostChannelID: cfg.Discord.YouTubePostChannelID,
		},
	}

	sched := scheduler.New(scheduler.Deps{
		Now:                 time.Now,
		Location:            loc,
		Log:                 log,
		DeliverDueReminders: deliverer.Run,
		SweepCache:          cache.Sweep,
		SweepConversations:  conversations.Sweep,
		RefreshCatalog: func(ctx context.Context) error {
			_, err := ingestor.Run(ctx)
			return err
		},
		PostWeeklyAnnouncement: h.PostWeeklyAnnouncement,
		RunTriviaSweep:         h.RunTriviaSweep,
	})
	sched.Start()

	log.Info().Msg("main: ash started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("main: shutdown signal received, draining sweeps")
	sched.Stop()
	return exitOK
}

// serveInbound is where a Discord gateway websocket client's
// message-create events would be normalized into platform.Message and
// handed to r.Handle. No such client is wired here: see platform.go's
// package doc for why the gateway client itself stays an external
// collaborator in this build.
func serveInbound(r *router.Router) {
	_ = r
}

func buildProvider(name, apiKey string) (aiprovider.Provider, error) {
	switch name {
	case "anthropic":
		return anthropicprovider.New(apiKey), nil
	case "openai", "":
		return openaiprovider.New(apiKey), nil
	default:
		return nil, fmt.Errorf("main: unknown AI provider %q", name)
	}
}
