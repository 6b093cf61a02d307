// Package bot routes incoming chat messages to built-in commands, plugin
// commands, keyword intents or the default LLM conversation.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/handlers"
	"github.com/EasterCompany/dex-athena-service/internal/booking"
	"github.com/EasterCompany/dex-athena-service/internal/chat"
	"github.com/EasterCompany/dex-athena-service/internal/classifier"
	"github.com/EasterCompany/dex-athena-service/internal/google"
	"github.com/EasterCompany/dex-athena-service/internal/intent"
	"github.com/EasterCompany/dex-athena-service/internal/llm"
	"github.com/EasterCompany/dex-athena-service/internal/monitor"
	"github.com/EasterCompany/dex-athena-service/internal/personality"
	"github.com/EasterCompany/dex-athena-service/internal/skills"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/internal/tokens"
	"github.com/EasterCompany/dex-athena-service/services"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
)

// timelineTextLen is the rune length of message text kept on the timeline.
const timelineTextLen = 80

// Deps are the components the dispatcher routes to.
type Deps struct {
	Config      *config.Config
	Store       storage.Store
	Senders     chat.Senders
	Models      *llm.Registry
	Tokens      *tokens.Monitor
	Personality *personality.System
	Classifier  *classifier.Classifier
	Monitor     *monitor.Monitor
	Skills      *skills.Skills
	Google      *google.Client
	Booking     *booking.Service
	Plugins     *handlers.Registry
	Executor    *handlers.Executor
	Stats       *services.Stats
}

type Bot struct {
	Deps

	loc      *time.Location
	commands map[string]command
	intents  map[intent.Intent]intentHandler
	now      func() time.Time
}

func New(d Deps) *Bot {
	if d.Stats == nil {
		d.Stats = services.NewStats()
	}
	loc, err := time.LoadLocation(d.Config.Timezone)
	if err != nil {
		loc = time.Local
	}
	b := &Bot{
		Deps:     d,
		loc:      loc,
		commands: make(map[string]command),
		now:      time.Now,
	}
	for _, c := range commands() {
		b.commands[c.name] = c
	}
	b.intents = intentHandlers()
	return b
}

// Location returns the timezone replies are rendered in.
func (b *Bot) Location() *time.Location { return b.loc }

// Handle processes one incoming message and sends the reply. It is safe to
// call from several goroutines.
func (b *Bot) Handle(ctx context.Context, msg types.Message) {
	if msg.Platform != types.PlatformLINE && strings.TrimSpace(msg.Text) == "" && msg.PhotoURL == "" {
		log.Printf("Bot: ignoring empty %s message from %s", msg.Platform, msg.ChatID)
		return
	}
	b.Stats.IncrementReceived()
	utils.SendEvent(ctx, b.Store, utils.ServiceName, templates.EventMessageReceived, map[string]interface{}{
		"platform": msg.Platform,
		"chat_id":  msg.ChatID,
		"user":     displayName(msg),
		"text":     utils.Clip(msg.Text, timelineTextLen),
		"photo":    msg.PhotoURL != "",
	})

	switch {
	case msg.Platform == types.PlatformLINE:
		b.reply(ctx, msg, b.Booking.Handle(ctx, msg.UserID, msg.Text))
	case msg.PhotoURL != "":
		b.handlePhoto(ctx, msg)
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	default:
		if b.handleIntent(ctx, msg) {
			return
		}
		b.handleChat(ctx, msg)
	}
}

// reply sends text back to the chat msg came from.
func (b *Bot) reply(ctx context.Context, msg types.Message, text string) {
	if text == "" {
		return
	}
	sender := b.Senders.For(msg.Platform)
	if sender == nil {
		log.Printf("Bot: no sender for platform %q", msg.Platform)
		return
	}
	if err := chat.Reply(ctx, sender, msg, text); err != nil {
		log.Printf("Bot: failed to reply on %s to %s: %v", msg.Platform, msg.ChatID, err)
		b.Stats.IncrementFailed()
		return
	}
	b.Stats.IncrementReplied()
	utils.SendEvent(ctx, b.Store, utils.ServiceName, templates.EventMessageReplied, map[string]interface{}{
		"platform": msg.Platform,
		"chat_id":  msg.ChatID,
		"text":     utils.Clip(text, timelineTextLen),
	})
}

// fail logs err and answers with a static failure text.
func (b *Bot) fail(ctx context.Context, msg types.Message, what string, err error, text string) {
	log.Printf("Bot: %s failed for chat %s: %v", what, msg.ChatID, err)
	b.Stats.IncrementFailed()
	b.reply(ctx, msg, text)
}

// notifier sends focus-timer notifications on the platform msg came from.
func (b *Bot) notifier(platform string) skills.Notify {
	return func(ctx context.Context, chatID, text string) error {
		sender := b.Senders.For(platform)
		if sender == nil {
			return fmt.Errorf("no sender for platform %q", platform)
		}
		return sender.SendMessage(ctx, chatID, text)
	}
}

// NotifyOwner pushes text to the owner's Telegram chat.
func (b *Bot) NotifyOwner(ctx context.Context, text string) error {
	owner := b.Config.Telegram.OwnerChatID
	sender := b.Senders.For(types.PlatformTelegram)
	if owner == "" || sender == nil {
		return errors.New("owner chat not configured")
	}
	return sender.SendMessage(ctx, owner, text)
}

// Announce sends the startup message to the owner chat.
func (b *Bot) Announce(ctx context.Context) {
	text := b.startupText(ctx)
	if err := b.NotifyOwner(ctx, text); err != nil {
		log.Printf("Bot: startup message not sent: %v", err)
		return
	}
	b.classify(ctx, "athena", text, "系統啟動")
}

// classify files content under topic, logging failures.
func (b *Bot) classify(ctx context.Context, topic, content, category string) {
	if topic == "" || b.Classifier == nil {
		return
	}
	if err := b.Classifier.Save(ctx, topic, content, category); err != nil {
		log.Printf("Bot: failed to classify %s: %v", category, err)
	}
}

func displayName(msg types.Message) string {
	if msg.UserName != "" {
		return msg.UserName
	}
	if msg.UserID != "" {
		return msg.UserID
	}
	return msg.ChatID
}

// parseCommand splits "/name@bot args" into a lowercase name and the argument text.
func parseCommand(text string) (string, string) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	name, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		name, args = text[:i], text[i:]
	}
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), strings.TrimSpace(args)
}
