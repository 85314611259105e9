package crosspost

import (
	"errors"
	"fmt"

	"twitterbot/db"
)

// Kind is the broad result of handling a candidate.
type Kind int

const (
	Skipped Kind = iota
	Posted
	Failed
)

func (k Kind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case Posted:
		return "posted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SkipReason says why a candidate was not posted.
type SkipReason string

const (
	BelowThreshold     SkipReason = "below_threshold"
	AlreadyPosted      SkipReason = "already_posted"
	TooManyAttachments SkipReason = "too_many_attachments"
)

// Outcome is what HandleCandidate did with an event.
type Outcome struct {
	Kind   Kind
	Reason SkipReason // set when Kind == Skipped
	PostID string     // set when a tweet exists, including the ledger-write failure case
	Err    error      // set when Kind == Failed
}

func skipped(reason SkipReason) Outcome { return Outcome{Kind: Skipped, Reason: reason} }
func posted(id string) Outcome          { return Outcome{Kind: Posted, PostID: id} }
func failed(err error) Outcome          { return Outcome{Kind: Failed, Err: err} }

// Inconsistent reports a tweet that went out but never made it into the
// ledger. A later reaction on the same message would post it again until an
// operator marks it.
func (o Outcome) Inconsistent() bool {
	var writeErr *db.LedgerWriteError
	return o.Kind == Failed && o.PostID != "" && errors.As(o.Err, &writeErr)
}

// SubmissionError means Twitter did not accept the assembled tweet.
type SubmissionError struct {
	MessageID string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit tweet for message %s: %v", e.MessageID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
