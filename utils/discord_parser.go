package utils

import (
	"errors"
	"regexp"
)

var (
	reMessageLink = regexp.MustCompile(`^https://(?:(?:ptb|canary)\.)?discord(?:app)?\.com/channels/(\d+|@me)/(\d+)/(\d+)/?$`)
	reSnowflake   = regexp.MustCompile(`^\d+$`)
)

// MessageRef identifies a Discord message.
type MessageRef struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// ParseMessageRef accepts either a bare message id or a Discord message link.
func ParseMessageRef(s string) (*MessageRef, error) {
	if reSnowflake.MatchString(s) {
		return &MessageRef{MessageID: s}, nil
	}

	matches := reMessageLink.FindStringSubmatch(s)
	if len(matches) == 4 {
		return &MessageRef{
			GuildID:   matches[1],
			ChannelID: matches[2],
			MessageID: matches[3],
		}, nil
	}

	return nil, errors.New("not a Discord message id or message link")
}
