package types

import "time"

// Chat platforms.
const (
	PlatformTelegram = "telegram"
	PlatformLINE     = "line"
)

// Message is an incoming chat message, independent of the platform it came from
type Message struct {
	Platform   string    `json:"platform"`
	ChatID     string    `json:"chat_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Text       string    `json:"text"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	ReplyToken string    `json:"reply_token,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// IsCommand reports whether the message text is a slash command.
func (m Message) IsCommand() bool {
	return len(m.Text) > 1 && m.Text[0] == '/'
}
