package handler

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"twitterbot/model"
)

// MessageSource looks up a message by id. *discordgo.Session satisfies it.
type MessageSource interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord resolves raw discordgo reaction events into full ReactionEvents.
type Discord struct {
	ctx       context.Context
	gate      *Gate
	channelID string
	log       *zap.Logger

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

// NewDiscord creates the adapter. ctx is the lifetime of the bot; every
// reaction is handled under it.
func NewDiscord(ctx context.Context, gate *Gate, log *zap.Logger) *Discord {
	if log == nil {
		log = zap.NewNop()
	}
	return &Discord{ctx: ctx, gate: gate, channelID: gate.channelID, log: log}
}

// MessageReactionAdd handles reaction additions.
func (d *Discord) MessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	var selfID string
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	d.handleReaction(s, selfID, r)
}

func (d *Discord) handleReaction(src MessageSource, selfID string, r *discordgo.MessageReactionAdd) {
	if r == nil || r.MessageReaction == nil {
		return
	}
	if selfID != "" && r.UserID == selfID {
		return
	}
	if r.ChannelID != d.channelID {
		return
	}

	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		d.log.Debug("Dropping reaction during shutdown", zap.String("message_id", r.MessageID))
		return
	}
	d.inflight.Add(1)
	d.mu.Unlock()
	defer d.inflight.Done()

	// The gateway event only carries ids; fetch the message for content,
	// author, attachments and current counts.
	msg, err := src.ChannelMessage(r.ChannelID, r.MessageID, discordgo.WithContext(d.ctx))
	if err != nil {
		d.log.Warn("Failed to fetch reacted message",
			zap.String("message_id", r.MessageID),
			zap.Error(err),
		)
		return
	}

	d.gate.OnReactionAdded(d.ctx, ReactionEventFromMessage(msg, r.Emoji))
}

// Wait stops accepting reactions and blocks until the ones already being
// handled have finished, including any ledger write after a tweet.
func (d *Discord) Wait() {
	d.mu.Lock()
	d.draining = true
	d.mu.Unlock()
	d.inflight.Wait()
}

// ReactionEventFromMessage builds the event for msg as of a reaction with emoji.
func ReactionEventFromMessage(msg *discordgo.Message, emoji discordgo.Emoji) model.ReactionEvent {
	event := model.ReactionEvent{
		MessageID:     msg.ID,
		ChannelID:     msg.ChannelID,
		Text:          msg.Content,
		ReactionCount: reactionCount(msg, emoji),
	}
	if msg.Author != nil {
		event.AuthorDisplay = msg.Author.Mention()
	}
	for _, att := range msg.Attachments {
		if att == nil {
			continue
		}
		event.Attachments = append(event.Attachments, model.Attachment{
			URL:      att.URL,
			MimeType: att.ContentType,
		})
	}
	return event
}

// reactionCount returns how many users reacted to msg with emoji.
func reactionCount(msg *discordgo.Message, emoji discordgo.Emoji) int {
	for _, r := range msg.Reactions {
		if r == nil || r.Emoji == nil {
			continue
		}
		if sameEmoji(*r.Emoji, emoji) {
			return r.Count
		}
	}
	return 0
}

func sameEmoji(a, b discordgo.Emoji) bool {
	if a.ID != "" || b.ID != "" {
		return a.ID == b.ID
	}
	return a.Name == b.Name
}

// SessionNotifier sends channel messages through a discordgo session.
type SessionNotifier struct {
	Session *discordgo.Session
}

// Send posts text to channelID.
func (n SessionNotifier) Send(ctx context.Context, channelID, text string) error {
	_, err := n.Session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}
