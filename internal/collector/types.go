package collector

import (
	"fmt"
	"strings"
)

// ReplyMessage is one thread reply with its author resolved to a name.
type ReplyMessage struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	Ts     string `json:"ts"`
}

// ThreadedMessage is a filtered channel message with its thread expanded.
// CombinedText carries the root text plus every reply and is what the
// classifier actually reads.
type ThreadedMessage struct {
	ChannelID    string         `json:"channelId"`
	UserID       string         `json:"userId"`
	UserName     string         `json:"userName"`
	Text         string         `json:"text"`
	Ts           string         `json:"ts"`
	ThreadTs     string         `json:"threadTs,omitempty"`
	ReplyCount   int            `json:"replyCount"`
	Replies      []ReplyMessage `json:"replies,omitempty"`
	CombinedText string         `json:"combinedText"`
}

// CombineText renders the root message and its replies as one document.
// The rendering is deterministic: same inputs, same output.
func CombineText(text string, replies []ReplyMessage) string {
	if len(replies) == 0 {
		return text
	}
	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\nThread replies:\n")
	for i, r := range replies {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, r.Author, r.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}
