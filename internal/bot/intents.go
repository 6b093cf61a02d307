package bot

import (
	"context"
	"fmt"

	"github.com/EasterCompany/dex-athena-service/internal/google"
	"github.com/EasterCompany/dex-athena-service/internal/intent"
	"github.com/EasterCompany/dex-athena-service/internal/skills"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
)

// intentHandler answers free text routed to an intent. A handler whose ready
// check fails is skipped, so drive and mail keywords fall through to chat
// while those integrations are not configured.
type intentHandler struct {
	topic   string
	failure string
	ready   func(b *Bot) bool
	run     func(b *Bot, ctx context.Context, msg types.Message) (string, error)
}

func googleReady(b *Bot) bool { return b.Google != nil && b.Google.Enabled() }

func searchReady(b *Bot) bool { return b.Skills.Search != nil && b.Skills.Search.Enabled() }

// email_mark and schedule_free have no handler and fall through to chat.
func intentHandlers() map[intent.Intent]intentHandler {
	return map[intent.Intent]intentHandler{
		intent.DriveList:     {topic: "storage", failure: google.DriveFailed, ready: googleReady, run: (*Bot).intentDriveList},
		intent.DriveSearch:   {topic: "storage", failure: google.DriveFailed, ready: googleReady, run: (*Bot).intentDriveSearch},
		intent.DriveUpload:   {topic: "storage", ready: googleReady, run: (*Bot).intentDriveUpload},
		intent.DriveDownload: {topic: "storage", failure: google.DriveFailed, ready: googleReady, run: (*Bot).intentDriveDownload},
		intent.DriveBackup:   {topic: "storage", failure: google.DriveFailed, ready: googleReady, run: (*Bot).intentDriveBackup},
		intent.DriveSync:     {topic: "storage", failure: google.DriveFailed, ready: googleReady, run: (*Bot).intentDriveSync},
		intent.DriveQuota:    {topic: "storage", failure: google.DriveFailed, ready: googleReady, run: (*Bot).intentDriveQuota},
		intent.EmailUnread:   {topic: "email", failure: google.GmailFailed, ready: googleReady, run: (*Bot).intentEmailUnread},
		intent.EmailDelete:   {topic: "email", failure: google.GmailFailed, ready: googleReady, run: (*Bot).intentEmailDelete},
		intent.ScheduleToday: {topic: "schedule", failure: google.CalendarFailed, ready: googleReady, run: (*Bot).intentScheduleToday},
		intent.ScheduleWeek:  {topic: "schedule", failure: google.CalendarFailed, ready: googleReady, run: (*Bot).intentScheduleWeek},
		intent.Sum:           {topic: "athena", failure: "❌ 摘要失敗", run: (*Bot).intentSum},
		intent.Focus:         {topic: "athena", run: (*Bot).intentFocus},
		intent.Note:          {topic: "personal", failure: failedText, run: (*Bot).intentNote},
		intent.Vibe:          {topic: "personal", failure: failedText, run: (*Bot).intentVibe},
		intent.Slacker:       {topic: "personal", run: (*Bot).intentSlacker},
		intent.Search:        {topic: "research", failure: "❌ 搜尋失敗", ready: searchReady, run: (*Bot).intentSearch},
		intent.Help:          {topic: "athena", run: (*Bot).intentHelp},
		intent.Status:        {failure: "❌ 狀態查詢失敗", run: (*Bot).intentStatus},
		intent.Monitor:       {run: (*Bot).intentMonitor},
	}
}

// handleIntent runs the first detected intent that has a usable handler and
// reports whether the message was answered.
func (b *Bot) handleIntent(ctx context.Context, msg types.Message) bool {
	for _, in := range intent.Detect(msg.Text) {
		h, ok := b.intents[in]
		if !ok || (h.ready != nil && !h.ready(b)) {
			continue
		}

		b.Stats.IncrementIntents()
		utils.SendEvent(ctx, b.Store, utils.ServiceName, templates.EventIntentDetected, map[string]interface{}{
			"intent":  string(in),
			"chat_id": msg.ChatID,
		})

		out, err := h.run(b, ctx, msg)
		if err != nil {
			fallback := h.failure
			if fallback == "" {
				fallback = failedText
			}
			b.fail(ctx, msg, "intent "+string(in), err, google.ErrorText(err, fallback))
			return true
		}
		b.reply(ctx, msg, out)
		b.classify(ctx, h.topic, out, "對話-"+string(in))
		return true
	}
	return false
}

func (b *Bot) intentDriveList(ctx context.Context, msg types.Message) (string, error) {
	return b.driveList(ctx)
}

func (b *Bot) intentDriveSearch(ctx context.Context, msg types.Message) (string, error) {
	keyword := intent.ExtractKeyword(msg.Text)
	if keyword == "" {
		return "請告訴我要搜尋什麼文件：\n例：「搜尋 MacBook」", nil
	}
	return b.driveSearch(ctx, keyword)
}

func (b *Bot) intentDriveUpload(ctx context.Context, msg types.Message) (string, error) {
	return "請使用 /drive upload [路徑] 上傳本地文件", nil
}

func (b *Bot) intentDriveDownload(ctx context.Context, msg types.Message) (string, error) {
	keyword := intent.ExtractKeyword(msg.Text)
	if keyword == "" {
		return "請告訴我要下載哪個文件：\n例：「下載文件 report.pdf」", nil
	}
	return b.driveDownload(ctx, keyword)
}

func (b *Bot) intentDriveBackup(ctx context.Context, msg types.Message) (string, error) {
	return b.driveBackup(ctx)
}

func (b *Bot) intentDriveSync(ctx context.Context, msg types.Message) (string, error) {
	return b.driveSync(ctx)
}

func (b *Bot) intentDriveQuota(ctx context.Context, msg types.Message) (string, error) {
	return b.driveQuota(ctx)
}

func (b *Bot) intentEmailUnread(ctx context.Context, msg types.Message) (string, error) {
	return b.cmdEmails(ctx, msg, "")
}

func (b *Bot) intentEmailDelete(ctx context.Context, msg types.Message) (string, error) {
	id := intent.ExtractEmailID(msg.Text)
	if id == "" {
		return "請提供郵件 ID（/emails 可查看）：\n例：「刪除郵件 18c5f0e2a1b2c3d4」", nil
	}
	if err := b.Google.DeleteEmail(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑️ 已刪除郵件 %s", id), nil
}

func (b *Bot) intentScheduleToday(ctx context.Context, msg types.Message) (string, error) {
	return b.upcoming(ctx, 1)
}

func (b *Bot) intentScheduleWeek(ctx context.Context, msg types.Message) (string, error) {
	return b.upcoming(ctx, 7)
}

func (b *Bot) intentSum(ctx context.Context, msg types.Message) (string, error) {
	return b.Skills.Summarize(ctx, msg.Text)
}

func (b *Bot) intentFocus(ctx context.Context, msg types.Message) (string, error) {
	return b.Skills.StartFocus(msg.ChatID, intent.ExtractMinutes(msg.Text), b.notifier(msg.Platform)), nil
}

func (b *Bot) intentNote(ctx context.Context, msg types.Message) (string, error) {
	content := intent.ExtractNote(msg.Text)
	if content == "" {
		return "請告訴我要記什麼：\n例：「記下 明天買牛奶」", nil
	}
	return b.Skills.AddNote(ctx, content, b.now())
}

func (b *Bot) intentVibe(ctx context.Context, msg types.Message) (string, error) {
	return b.Skills.Vibe(ctx)
}

func (b *Bot) intentSlacker(ctx context.Context, msg types.Message) (string, error) {
	return skills.SlackerTip(), nil
}

func (b *Bot) intentSearch(ctx context.Context, msg types.Message) (string, error) {
	keyword := intent.ExtractKeyword(msg.Text)
	if keyword == "" {
		return "請告訴我要搜尋什麼，例：\n「搜尋 Python 教程」", nil
	}
	return b.Skills.WebSearch(ctx, keyword)
}

func (b *Bot) intentHelp(ctx context.Context, msg types.Message) (string, error) {
	return b.helpText(), nil
}

func (b *Bot) intentStatus(ctx context.Context, msg types.Message) (string, error) {
	return b.statusText(ctx)
}

func (b *Bot) intentMonitor(ctx context.Context, msg types.Message) (string, error) {
	return b.dashboard(ctx), nil
}
