package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"twitterbot/crosspost"
	"twitterbot/db"
	"twitterbot/handler"
	"twitterbot/lock"
	"twitterbot/media"
	"twitterbot/model"
	"twitterbot/twitter"
)

// Start 启动机器人，阻塞直到收到退出信号
func Start(cfg *model.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	ledger, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer ledger.Close()
	log.Info("Database connection initialized successfully.", zap.String("path", cfg.DatabasePath))

	locker, closeLocker, err := newLocker(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	tw := twitter.NewClient(twitter.Credentials{
		APIKey:       cfg.Twitter.APIKey,
		SecretKey:    cfg.Twitter.SecretKey,
		AccessToken:  cfg.Twitter.AccessToken,
		AccessSecret: cfg.Twitter.AccessSecret,
	})
	stage := media.NewStage(media.NewHTTPFetcher(nil), tw)
	composer := crosspost.NewComposer(ledger, stage, tw, locker, log.Named("crosspost"))

	// 使用提供的机器人令牌创建一个新的 Discord 会话
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("creating Discord session: %w", err)
	}

	gate := handler.NewGate(cfg.DiscordChannelID, composer, handler.SessionNotifier{Session: dg}, log.Named("gate"))
	discord := handler.NewDiscord(ctx, gate, log.Named("discord"))
	registerEventHandlers(dg, discord, log)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	log.Info("Bot is now running. Press CTRL-C to exit.", zap.String("channel_id", cfg.DiscordChannelID))
	<-ctx.Done()
	log.Info("Shutting down")

	// Handlers still running may be mid-tweet; the ledger must stay open
	// until they have recorded it.
	if err := dg.Close(); err != nil {
		log.Warn("Error closing Discord session", zap.Error(err))
	}
	discord.Wait()
	log.Info("In-flight reactions finished")
	return nil
}

func newLocker(ctx context.Context, cfg model.Redis, log *zap.Logger) (lock.Locker, func(), error) {
	if cfg.Addr == "" {
		return lock.NewLocal(), func() {}, nil
	}

	client, err := lock.Connect(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using Redis message locks", zap.String("addr", cfg.Addr))
	return lock.NewRedis(client, lock.DefaultTTL, log.Named("lock")), func() { client.Close() }, nil
}
