package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"twitterbot/handler"
)

func registerEventHandlers(s *discordgo.Session, d *handler.Discord, log *zap.Logger) {
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("Ready!", zap.String("user", r.User.String()))
	})
	s.AddHandler(d.MessageReactionAdd)

	// 设置必要的intents
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent
}
