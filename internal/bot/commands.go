package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/EasterCompany/dex-athena-service/internal/google"
	"github.com/EasterCompany/dex-athena-service/internal/intent"
	"github.com/EasterCompany/dex-athena-service/internal/llm"
	"github.com/EasterCompany/dex-athena-service/internal/monitor"
	"github.com/EasterCompany/dex-athena-service/internal/skills"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
)

// alertsShown is the number of alerts /alerts lists.
const alertsShown = 5

const (
	failedText  = "❌ 失敗"
	unknownText = "❓ 未知指令 /%s，輸入 /help 查看所有命令"
	driveUsage  = "用法：/drive [list|search|upload|download|backup|sync|quota]"
)

type commandFunc func(b *Bot, ctx context.Context, msg types.Message, args string) (string, error)

// command is a built-in slash command. The exchange is classified under
// topic when it is set; failure is the reply used when run returns an error.
type command struct {
	name        string
	usage       string
	description string
	topic       string
	failure     string
	run         commandFunc
}

func commands() []command {
	return []command{
		{name: "help", description: "顯示所有命令", topic: "athena", run: (*Bot).cmdHelp},
		{name: "gauth", description: "Google 授權", run: (*Bot).cmdGAuth},
		{name: "drive", usage: "[list|search|upload|download|backup|sync|quota]", description: "Google Drive 操作", topic: "storage", failure: google.DriveFailed, run: (*Bot).cmdDrive},
		{name: "emails", description: "查看未讀郵件", topic: "email", failure: google.GmailFailed, run: (*Bot).cmdEmails},
		{name: "gcal", description: "查看本週日程", topic: "schedule", failure: google.CalendarFailed, run: (*Bot).cmdCalendar},
		{name: "monitor", description: "硬體監控面板", run: (*Bot).cmdMonitor},
		{name: "status", description: "系統狀態", failure: "❌ 狀態查詢失敗", run: (*Bot).cmdStatus},
		{name: "tokens", description: "Token 使用統計", failure: failedText, run: (*Bot).cmdTokens},
		{name: "costs", description: "成本報告 + 警告", topic: "athena", failure: failedText, run: (*Bot).cmdCosts},
		{name: "alerts", description: "告警歷史", failure: failedText, run: (*Bot).cmdAlerts},
		{name: "personality", description: "查看 AI 人格進度（Big 5）", topic: "athena", run: (*Bot).cmdPersonality},
		{name: "models", description: "列出可用 AI 模型", topic: "athena", run: (*Bot).cmdModels},
		{name: "model", usage: "[名]", description: "切換 AI 模型", topic: "athena", run: (*Bot).cmdModel},
		{name: "classify", description: "分類統計", topic: "athena", failure: failedText, run: (*Bot).cmdClassify},
		{name: "sum", usage: "[文字]", description: "文本智慧摘要", topic: "athena", failure: "❌ 摘要失敗", run: (*Bot).cmdSum},
		{name: "focus", usage: "[分]", description: "深度工作計時（默認 25 分）", topic: "athena", run: (*Bot).cmdFocus},
		{name: "note", usage: "[內容]", description: "記錄靈魂筆記", topic: "personal", failure: failedText, run: (*Bot).cmdNote},
		{name: "vibe", description: "今日運勢 & 激勵", topic: "personal", failure: failedText, run: (*Bot).cmdVibe},
		{name: "slacker", description: "隨機摸魚建議", run: (*Bot).cmdSlacker},
		{name: "search", usage: "[詞]", description: "聯網搜尋", topic: "research", failure: "❌ 搜尋失敗", run: (*Bot).cmdSearch},
		{name: "history", description: "查看最近對話", failure: failedText, run: (*Bot).cmdHistory},
		{name: "memory", description: "查看靈魂記憶", topic: "personal", failure: failedText, run: (*Bot).cmdMemory},
	}
}

// BuiltinNames lists the built-in command names plugins may not shadow.
func BuiltinNames() []string {
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.name)
	}
	return names
}

func (b *Bot) handleCommand(ctx context.Context, msg types.Message) {
	name, args := parseCommand(msg.Text)
	b.Stats.IncrementCommands()
	utils.SendEvent(ctx, b.Store, utils.ServiceName, templates.EventCommandExecuted, map[string]interface{}{
		"command": name,
		"chat_id": msg.ChatID,
		"user":    displayName(msg),
	})

	cmd, ok := b.commands[name]
	if !ok {
		b.runPlugin(ctx, msg, name, args)
		return
	}

	out, err := cmd.run(b, ctx, msg, args)
	if err != nil {
		fallback := cmd.failure
		if fallback == "" {
			fallback = failedText
		}
		b.fail(ctx, msg, "/"+name, err, google.ErrorText(err, fallback))
		return
	}
	b.reply(ctx, msg, out)

	category := "命令-" + name
	if args != "" {
		category += " " + utils.Clip(args, 20)
	}
	b.classify(ctx, cmd.topic, out, category)
}

func (b *Bot) runPlugin(ctx context.Context, msg types.Message, name, args string) {
	if b.Plugins == nil || b.Executor == nil {
		b.reply(ctx, msg, fmt.Sprintf(unknownText, name))
		return
	}
	h, ok := b.Plugins.GetHandler(name)
	if !ok {
		b.reply(ctx, msg, fmt.Sprintf(unknownText, name))
		return
	}

	b.Stats.IncrementPlugins()
	out, err := b.Executor.Execute(ctx, h, types.HandlerInput{
		Command:   name,
		Args:      args,
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		UserName:  displayName(msg),
		Platform:  msg.Platform,
		Timestamp: msg.Timestamp.Unix(),
	})
	if err != nil {
		b.fail(ctx, msg, "plugin "+name, err, fmt.Sprintf("❌ 外掛 %s 執行失敗", name))
		return
	}
	b.reply(ctx, msg, out)
	b.classify(ctx, h.Topic, out, "外掛-"+name)
}

func (b *Bot) cmdHelp(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.helpText(), nil
}

func (b *Bot) cmdGAuth(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.Google.AuthText(), nil
}

func (b *Bot) cmdDrive(ctx context.Context, msg types.Message, args string) (string, error) {
	action, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(action) {
	case "list":
		return b.driveList(ctx)
	case "search":
		if rest == "" {
			return driveUsage, nil
		}
		return b.driveSearch(ctx, rest)
	case "upload":
		if rest == "" {
			return driveUsage, nil
		}
		f, err := b.Google.UploadFile(ctx, rest, filepath.Base(rest))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ 已上傳：%s", f.Name), nil
	case "download":
		if rest == "" {
			return driveUsage, nil
		}
		return b.driveDownload(ctx, rest)
	case "backup":
		return b.driveBackup(ctx)
	case "sync":
		return b.driveSync(ctx)
	case "quota":
		return b.driveQuota(ctx)
	default:
		return driveUsage, nil
	}
}

func (b *Bot) driveList(ctx context.Context) (string, error) {
	files, err := b.Google.ListFiles(ctx)
	if err != nil {
		return "", err
	}
	return google.FilesText(files), nil
}

func (b *Bot) driveSearch(ctx context.Context, keyword string) (string, error) {
	files, err := b.Google.SearchFiles(ctx, keyword)
	if err != nil {
		return "", err
	}
	return google.SearchText(keyword, files), nil
}

func (b *Bot) driveDownload(ctx context.Context, fragment string) (string, error) {
	path, err := b.Google.DownloadFile(ctx, fragment)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ 已下載到 %s", path), nil
}

func (b *Bot) topicFiles() ([]string, error) {
	if err := b.Classifier.EnsureTopicFiles(); err != nil {
		return nil, err
	}
	return b.Classifier.TopicFiles()
}

func (b *Bot) driveBackup(ctx context.Context) (string, error) {
	paths, err := b.topicFiles()
	if err != nil {
		return "", err
	}
	n, err := b.Google.Backup(ctx, paths)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ 已備份 %d 個文件到 Google Drive", n), nil
}

func (b *Bot) driveSync(ctx context.Context) (string, error) {
	paths, err := b.topicFiles()
	if err != nil {
		return "", err
	}
	n, err := b.Google.Sync(ctx, paths)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🔄 同步完成\n雲端共有 %d 個備份文件", n), nil
}

func (b *Bot) driveQuota(ctx context.Context) (string, error) {
	q, err := b.Google.Quota(ctx)
	if err != nil {
		return "", err
	}
	return google.QuotaText(q), nil
}

func (b *Bot) cmdEmails(ctx context.Context, msg types.Message, args string) (string, error) {
	emails, err := b.Google.UnreadEmails(ctx)
	if err != nil {
		return "", err
	}
	return google.EmailsText(emails), nil
}

func (b *Bot) upcoming(ctx context.Context, days int) (string, error) {
	events, err := b.Google.UpcomingEvents(ctx, days)
	if err != nil {
		return "", err
	}
	return google.EventsText(events, b.loc), nil
}

func (b *Bot) cmdCalendar(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.upcoming(ctx, 7)
}

func (b *Bot) cmdMonitor(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.dashboard(ctx), nil
}

// dashboard takes a fresh sample before rendering. A failed sample still
// renders the last known one.
func (b *Bot) dashboard(ctx context.Context) string {
	if _, _, err := b.Monitor.Sample(ctx); err != nil {
		log.Printf("Bot: monitor sample failed: %v", err)
	}
	return b.Monitor.Dashboard(utils.GetVersion().Str)
}

func (b *Bot) cmdStatus(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.statusText(ctx)
}

func (b *Bot) cmdTokens(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.Tokens.Report(ctx, b.now())
}

func (b *Bot) cmdCosts(ctx context.Context, msg types.Message, args string) (string, error) {
	now := b.now()
	report, err := b.Tokens.Report(ctx, now)
	if err != nil {
		return "", err
	}
	warnings, err := b.Tokens.CheckLimits(ctx, now)
	if err != nil {
		return "", err
	}
	if len(warnings) > 0 {
		report += "\n\n⚠️ 警告\n" + strings.Join(warnings, "\n")
	}
	return report, nil
}

func (b *Bot) cmdAlerts(ctx context.Context, msg types.Message, args string) (string, error) {
	return monitor.RecentAlertsText(ctx, b.Store, alertsShown, b.loc)
}

func (b *Bot) cmdPersonality(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.Personality.Report(), nil
}

func (b *Bot) cmdModels(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.Models.ListText(), nil
}

func (b *Bot) cmdModel(ctx context.Context, msg types.Message, args string) (string, error) {
	if args == "" {
		return b.Models.InfoText(), nil
	}
	info, err := b.Models.Switch(ctx, args)
	if errors.Is(err, llm.ErrUnknownModel) {
		return "❌ 模型不存在", nil
	}
	if err != nil {
		return "", err
	}
	utils.SendEvent(ctx, b.Store, utils.ServiceName, templates.EventModelSwitched, map[string]interface{}{
		"model": info.Name,
	})
	return fmt.Sprintf("✅ 已切換到 %s", info.Name), nil
}

func (b *Bot) cmdClassify(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.Classifier.StatsText(ctx)
}

func (b *Bot) cmdSum(ctx context.Context, msg types.Message, args string) (string, error) {
	if args == "" {
		return "用法: /sum [文字]", nil
	}
	return b.Skills.Summarize(ctx, args)
}

func (b *Bot) cmdFocus(ctx context.Context, msg types.Message, args string) (string, error) {
	minutes := intent.DefaultFocusMinutes
	if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 {
		minutes = n
	}
	return b.Skills.StartFocus(msg.ChatID, minutes, b.notifier(msg.Platform)), nil
}

func (b *Bot) cmdNote(ctx context.Context, msg types.Message, args string) (string, error) {
	if args == "" {
		return "用法: /note [內容]", nil
	}
	return b.Skills.AddNote(ctx, args, b.now())
}

func (b *Bot) cmdVibe(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.Skills.Vibe(ctx)
}

func (b *Bot) cmdSlacker(ctx context.Context, msg types.Message, args string) (string, error) {
	return skills.SlackerTip(), nil
}

func (b *Bot) cmdSearch(ctx context.Context, msg types.Message, args string) (string, error) {
	if args == "" {
		return "用法: /search [詞]", nil
	}
	return b.Skills.WebSearch(ctx, args)
}

func (b *Bot) cmdHistory(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.Skills.HistoryText(ctx)
}

func (b *Bot) cmdMemory(ctx context.Context, msg types.Message, args string) (string, error) {
	return b.Skills.MemoryText(ctx)
}
