// Package crosspost turns a sufficiently-reacted Discord message into a tweet,
// at most once per message.
package crosspost

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"twitterbot/lock"
	"twitterbot/model"
)

const (
	// Threshold is the reaction count that makes a message a candidate.
	Threshold = 5
	// MaxAttachments is the most media a tweet can carry.
	MaxAttachments = 4
)

// Ledger records which messages have been tweeted.
type Ledger interface {
	HasPosted(ctx context.Context, messageID string) (bool, error)
	RecordPosted(ctx context.Context, messageID string) error
}

// MediaTransfer moves attachments to Twitter, returning references in order.
type MediaTransfer interface {
	TransferAll(ctx context.Context, attachments []model.Attachment) ([]string, error)
}

// Poster creates the tweet.
type Poster interface {
	CreateTweet(ctx context.Context, text string, mediaIDs []string) (string, error)
}

// Composer decides whether an event becomes a tweet and drives the posting.
type Composer struct {
	ledger Ledger
	media  MediaTransfer
	poster Poster
	locker lock.Locker
	log    *zap.Logger
}

// NewComposer wires a composer. A nil locker gets an in-process one.
func NewComposer(ledger Ledger, media MediaTransfer, poster Poster, locker lock.Locker, log *zap.Logger) *Composer {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{
		ledger: ledger,
		media:  media,
		poster: poster,
		locker: locker,
		log:    log,
	}
}

// HandleCandidate evaluates event and posts it if it qualifies.
//
// The ledger check and the ledger write bracket every external side effect and
// run under a per-message lock, so duplicate triggers for one message cannot
// both reach Twitter.
func (c *Composer) HandleCandidate(ctx context.Context, event model.ReactionEvent) Outcome {
	if event.ReactionCount < Threshold {
		return skipped(BelowThreshold)
	}

	log := c.log.With(
		zap.String("candidate", uuid.NewString()),
		zap.String("message_id", event.MessageID),
	)

	unlock, err := c.locker.Lock(ctx, event.MessageID)
	if err != nil {
		log.Warn("Could not lock message", zap.Error(err))
		return failed(err)
	}
	defer unlock()

	already, err := c.ledger.HasPosted(ctx, event.MessageID)
	if err != nil {
		return failed(err)
	}
	if already {
		log.Info("Already posted")
		return skipped(AlreadyPosted)
	}

	if len(event.Attachments) > MaxAttachments {
		return skipped(TooManyAttachments)
	}

	mediaRefs, err := c.media.TransferAll(ctx, event.Attachments)
	if err != nil {
		return failed(err)
	}
	log.Debug("Media transferred", zap.Int("count", len(mediaRefs)))

	post := model.PendingPost{
		Text:            event.Text,
		MediaRefs:       mediaRefs,
		SourceMessageID: event.MessageID,
	}

	// Once the tweet is submitted it must run to completion and be recorded,
	// even if whoever triggered us stops waiting.
	submitCtx := context.WithoutCancel(ctx)

	postID, err := c.poster.CreateTweet(submitCtx, post.Text, post.MediaRefs)
	if err != nil {
		return failed(&SubmissionError{MessageID: post.SourceMessageID, Err: err})
	}
	log = log.With(zap.String("tweet_id", postID))

	if err := c.ledger.RecordPosted(submitCtx, post.SourceMessageID); err != nil {
		log.Error("Tweet posted but ledger write failed; mark it manually or it may be posted again", zap.Error(err))
		return Outcome{Kind: Failed, PostID: postID, Err: err}
	}

	log.Info("New tweet added")
	return posted(postID)
}
