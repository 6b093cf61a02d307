package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/EasterCompany/dex-athena-service/utils"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━"

// helpSections groups the built-in commands the way /help lists them.
var helpSections = []struct {
	title    string
	commands []string
}{
	{"📁 Google Drive", []string{"gauth", "drive"}},
	{"📧 郵件 & 日程", []string{"emails", "gcal"}},
	{"📊 監控 & 系統", []string{"monitor", "status", "tokens", "costs", "alerts"}},
	{"🧠 個性與進化", []string{"personality", "models", "model", "classify"}},
	{"✨ 摸魚技能", []string{"sum", "focus", "note", "vibe", "slacker", "search"}},
	{"📚 記憶管理", []string{"history", "memory"}},
}

func (b *Bot) helpText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛡️ 雅典娜 %s - 命令清單\n%s\n", utils.GetVersion().Str, rule)

	for _, section := range helpSections {
		fmt.Fprintf(&sb, "\n%s\n", section.title)
		for _, name := range section.commands {
			c, ok := b.commands[name]
			if !ok {
				continue
			}
			line := "/" + c.name
			if c.usage != "" {
				line += " " + c.usage
			}
			fmt.Fprintf(&sb, "%s - %s\n", line, c.description)
		}
	}

	if b.Plugins != nil {
		if plugins := b.Plugins.List(); len(plugins) > 0 {
			sb.WriteString("\n🧩 外掛\n")
			for _, p := range plugins {
				fmt.Fprintf(&sb, "/%s - %s\n", p.Name, p.Description)
			}
		}
	}

	sb.WriteString("\n💬 自然語言對話（推薦）\n")
	sb.WriteString("直接說話即可，例如：\n")
	sb.WriteString("- 「備份我的記憶到雲」\n- 「搜尋我的 MacBook 文件」\n- 「我有幾封未讀郵件」\n- 「今天有什麼日程」\n- 「給我點摸魚建議」\n")
	sb.WriteString(rule)
	return sb.String()
}

// statusText reports uptime, battery, version and Google authorization.
func (b *Bot) statusText(ctx context.Context) (string, error) {
	metrics, ok := b.Monitor.Latest()
	if !ok {
		m, _, err := b.Monitor.Sample(ctx)
		if err != nil {
			return "", err
		}
		metrics = m
	}
	battery := "N/A"
	if metrics.Battery.Available {
		battery = fmt.Sprintf("%d%%", metrics.Battery.Level)
	}
	hours := utils.GetUptimeSeconds() / 3600

	return fmt.Sprintf("🛡️ 系統狀態\n━━━━━━━━━━\n⏱️ 運行：%d 小時\n🔋 電池：%s\n✨ 版本：%s\n%s\n━━━━━━━━━━",
		hours, battery, utils.GetVersion().Str, b.Google.StatusText(ctx)), nil
}

func (b *Bot) startupText(ctx context.Context) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛡️ 雅典娜 %s 已就緒！\n", utils.GetVersion().Str)
	if active, ok := b.Models.Active(); ok {
		fmt.Fprintf(&sb, "🤖 模型：%s\n", active.Name)
	} else {
		log.Println("Bot: no model registered, chat replies will fail")
		sb.WriteString("⚠️ 沒有可用的模型\n")
	}
	if b.Plugins != nil {
		fmt.Fprintf(&sb, "🧩 外掛：%d 個\n", b.Plugins.Count())
	}
	fmt.Fprintf(&sb, "%s\n\n", b.Google.StatusText(ctx))
	sb.WriteString("💬 推薦方式：直接對話\n例：「備份我的記憶」\n例：「我有幾封郵件」\n\n⌨️ 輸入 /help 查看所有命令")
	return sb.String()
}
