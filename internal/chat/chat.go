// Package chat adapts chat platforms to a single send-message interface and
// converts their incoming updates into types.Message values.
package chat

import (
	"context"

	"github.com/EasterCompany/dex-athena-service/types"
)

// Sender delivers text to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID string, text string) error
}

// Replier answers a specific incoming message, for platforms with reply tokens.
type Replier interface {
	Reply(ctx context.Context, msg types.Message, text string) error
}

// HandlerFunc receives every incoming message.
type HandlerFunc func(ctx context.Context, msg types.Message)

// Reply answers msg through sender, using the platform's reply path when it has one.
func Reply(ctx context.Context, sender Sender, msg types.Message, text string) error {
	if r, ok := sender.(Replier); ok && msg.ReplyToken != "" {
		return r.Reply(ctx, msg, text)
	}
	return sender.SendMessage(ctx, msg.ChatID, text)
}

// Senders routes outgoing messages by platform.
type Senders map[string]Sender

// For returns the sender registered for platform, or nil.
func (s Senders) For(platform string) Sender {
	return s[platform]
}
