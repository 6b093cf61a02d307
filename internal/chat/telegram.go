package chat

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
)

// TelegramMaxLength is the longest text Telegram accepts in one message.
const TelegramMaxLength = 4096

// Telegram is a long-polling Telegram transport.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram authenticates against the Bot API.
func NewTelegram(token string) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewTelegramWithEndpoint authenticates against a custom Bot API endpoint.
// endpoint uses the "%s/%s" token/method placeholders of tgbotapi.APIEndpoint.
func NewTelegramWithEndpoint(token, endpoint string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	log.Printf("Telegram: authorized as @%s", api.Self.UserName)
	return &Telegram{api: api}, nil
}

// BotName returns the bot's username.
func (t *Telegram) BotName() string {
	return t.api.Self.UserName
}

// SendMessage sends text, split on line boundaries into chunks Telegram accepts.
func (t *Telegram) SendMessage(ctx context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id '%s': %w", chatID, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for i, chunk := range utils.SplitMessage(text, TelegramMaxLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.api.Send(tgbotapi.NewMessage(id, chunk)); err != nil {
			return fmt.Errorf("failed to send chunk %d: %w", i+1, err)
		}
	}
	return nil
}

// Run drops updates queued while the bot was offline, then long-polls until
// ctx is cancelled. Each message is handled on its own goroutine.
func (t *Telegram) Run(ctx context.Context, handle HandlerFunc) error {
	if _, err := t.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		log.Printf("Telegram: failed to drop pending updates: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	log.Println("Telegram: waiting for messages...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			msg := t.convert(update.Message)
			go handle(ctx, msg)
		}
	}
}

func (t *Telegram) convert(m *tgbotapi.Message) types.Message {
	msg := types.Message{
		Platform:  types.PlatformTelegram,
		ChatID:    strconv.FormatInt(m.Chat.ID, 10),
		Text:      m.Text,
		Timestamp: time.Unix(int64(m.Date), 0),
	}
	if m.From != nil {
		msg.UserID = strconv.FormatInt(m.From.ID, 10)
		msg.UserName = m.From.UserName
		if msg.UserName == "" {
			msg.UserName = m.From.FirstName
		}
	}

	if len(m.Photo) > 0 {
		if msg.Text == "" {
			msg.Text = m.Caption
		}
		largest := m.Photo[len(m.Photo)-1]
		url, err := t.api.GetFileDirectURL(largest.FileID)
		if err != nil {
			log.Printf("Telegram: failed to resolve photo %s: %v", largest.FileID, err)
		} else {
			msg.PhotoURL = url
		}
	}
	return msg
}
