package slack

// Channel is one workspace conversation.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
	IsMember  bool   `json:"is_member"`
}

// Message is a single history entry. Ts doubles as the message identifier:
// Slack timestamps are unique per channel and sort chronologically.
type Message struct {
	User       string `json:"user"`
	BotID      string `json:"bot_id"`
	Subtype    string `json:"subtype"`
	Text       string `json:"text"`
	Ts         string `json:"ts"`
	ThreadTs   string `json:"thread_ts"`
	ReplyCount int    `json:"reply_count"`
}

// HistoryPage is one page of conversation history.
type HistoryPage struct {
	Messages   []Message
	NextCursor string
}

// User is the subset of a Slack user profile the pipeline needs.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RealName     string `json:"real_name"`
	IsBot        bool   `json:"is_bot"`
	Deleted      bool   `json:"deleted"`
	IsRestricted bool   `json:"is_restricted"`
}

// DisplayName prefers the profile real name over the handle.
func (u *User) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	return u.Name
}
