// Package handler connects Discord reaction events to the cross-post composer
// and reports what happened back into the channel.
package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"twitterbot/crosspost"
	"twitterbot/model"
)

// Composer is the part of crosspost.Composer the gate needs.
type Composer interface {
	HandleCandidate(ctx context.Context, event model.ReactionEvent) crosspost.Outcome
}

// Notifier sends a plain text message to a channel.
type Notifier interface {
	Send(ctx context.Context, channelID, text string) error
}

// Gate filters reaction events down to the target channel.
type Gate struct {
	channelID string
	composer  Composer
	notifier  Notifier
	log       *zap.Logger
}

// NewGate creates a gate for channelID.
func NewGate(channelID string, composer Composer, notifier Notifier, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		channelID: channelID,
		composer:  composer,
		notifier:  notifier,
		log:       log,
	}
}

// OnReactionAdded handles one resolved reaction event. Errors end here: they
// are logged and reported to the channel, never returned.
func (g *Gate) OnReactionAdded(ctx context.Context, event model.ReactionEvent) {
	log := g.log.With(zap.String("message_id", event.MessageID), zap.String("channel_id", event.ChannelID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while handling reaction", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	log.Debug("Message gained a reaction",
		zap.String("author", event.AuthorDisplay),
		zap.Int("count", event.ReactionCount),
	)

	if event.ChannelID != g.channelID {
		return
	}

	out := g.composer.HandleCandidate(ctx, event)
	log = log.With(zap.Stringer("outcome", out.Kind))

	switch out.Kind {
	case crosspost.Posted:
		log.Info("Tweeted message", zap.String("tweet_id", out.PostID))
		g.send(ctx, log, fmt.Sprintf("Tweeted %s's message: %s", event.AuthorDisplay, event.Text))

	case crosspost.Skipped:
		log.Debug("Skipped message", zap.String("reason", string(out.Reason)))
		if out.Reason == crosspost.TooManyAttachments {
			g.send(ctx, log, fmt.Sprintf("%d or fewer images are permitted, %s.", crosspost.MaxAttachments, event.AuthorDisplay))
		}

	case crosspost.Failed:
		cause := out.Err
		if out.Inconsistent() {
			cause = fmt.Errorf("tweet %s was posted but could not be recorded: %w", out.PostID, out.Err)
		}
		log.Error("Cross-post failed", zap.Error(cause))
		g.send(ctx, log, fmt.Sprintf("There was an error posting the tweet: %v", cause))
	}
}

func (g *Gate) send(ctx context.Context, log *zap.Logger, text string) {
	if err := g.notifier.Send(ctx, g.channelID, text); err != nil {
		log.Warn("Failed to send channel message", zap.Error(err))
	}
}
