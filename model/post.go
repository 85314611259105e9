package model

import "time"

// PendingPost is a tweet assembled from a message, consumed once by submission.
type PendingPost struct {
	Text            string
	MediaRefs       []string
	SourceMessageID string
}

// LedgerEntry represents a row of the tweets table.
type LedgerEntry struct {
	MessageID string
	PostedAt  time.Time
}
