package collector

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/swyang-dev/opskb/internal/slack"
)

const (
	minMessageRunes = 15
	minReplyRunes   = 5
)

// interjectionPattern matches messages made entirely of Korean laughter or
// sigh characters, which carry no analyzable content.
var interjectionPattern = regexp.MustCompile(`^[ㅋㅎㅠㅜ]+$`)

// KeepMessage reports whether a history entry is worth classifying. Bot
// posts, short acknowledgements, bare mentions, and reaction-style messages
// are dropped. The predicate is stable: filtering an already filtered set
// changes nothing.
func KeepMessage(m slack.Message) bool {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return false
	}
	if m.BotID != "" || m.Subtype == "bot_message" {
		return false
	}
	if utf8.RuneCountInString(text) <= minMessageRunes {
		return false
	}
	if strings.HasPrefix(text, "<@") {
		return false
	}
	if strings.HasPrefix(text, "👍") {
		return false
	}
	if interjectionPattern.MatchString(text) {
		return false
	}
	return true
}

// KeepReply reports whether a thread reply adds content worth keeping.
func KeepReply(m slack.Message) bool {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return false
	}
	if m.BotID != "" || m.Subtype == "bot_message" {
		return false
	}
	return utf8.RuneCountInString(text) > minReplyRunes
}
