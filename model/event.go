package model

// Attachment is a single file attached to a Discord message.
type Attachment struct {
	URL      string
	MimeType string
}

// ReactionEvent is a resolved snapshot of a message at the moment one of its
// reactions was added.
type ReactionEvent struct {
	MessageID     string
	ChannelID     string
	AuthorDisplay string
	Text          string
	Attachments   []Attachment
	// ReactionCount is the count of the emoji that was just added.
	ReactionCount int
}
