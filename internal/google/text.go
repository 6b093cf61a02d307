package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error replies for failures that are not a missing authorization.
const (
	DriveFailed    = "❌ Drive 操作失敗"
	GmailFailed    = "❌ 郵件讀取失敗"
	CalendarFailed = "❌ 日程讀取失敗"
)

// ErrorText maps an error from this package to a chat reply.
func ErrorText(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "❌ Google 未授權，請先使用 /gauth"
	case errors.Is(err, ErrFileNotFound):
		return "❌ 文件未找到"
	default:
		return fallback
	}
}

// StatusText reports whether Google is authorized.
func (c *Client) StatusText(ctx context.Context) string {
	if c.Authorized(ctx) {
		return "✅ Google 已授權"
	}
	return "❌ Google 未授權"
}

// AuthText is the reply carrying the consent URL.
func (c *Client) AuthText() string {
	if !c.Enabled() {
		return "❌ Google OAuth 未設定"
	}
	return "🔐 授權：\n" + c.AuthURL()
}

func FilesText(files []File) string {
	if len(files) == 0 {
		return "📭 Drive 沒有文件"
	}
	var b strings.Builder
	b.WriteString("📁 Drive 文件")
	for i, f := range files {
		size := "資料夾"
		if !f.IsFolder() {
			size = fmt.Sprintf("%dKB", f.Size/1024)
		}
		fmt.Fprintf(&b, "\n%d. %s (%s)", i+1, f.Name, size)
	}
	return b.String()
}

func SearchText(keyword string, files []File) string {
	if len(files) == 0 {
		return fmt.Sprintf("❌ 找不到包含「%s」的文件", keyword)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 搜尋「%s」", keyword)
	for i, f := range files {
		fmt.Fprintf(&b, "\n%d. %s", i+1, f.Name)
		if f.WebViewLink != "" {
			fmt.Fprintf(&b, "\n📎 %s", f.WebViewLink)
		}
	}
	return b.String()
}

func QuotaText(q Quota) string {
	return fmt.Sprintf("📊 Drive 額度\n已用：%dGB / %dGB (%d%%)\n剩餘：%dGB", q.UsedGB, q.LimitGB, q.Percent, max(0, q.LimitGB-q.UsedGB))
}

func EmailsText(emails []Email) string {
	if len(emails) == 0 {
		return "📭 沒有未讀郵件"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📬 未讀郵件 (%d)", len(emails))
	for i, e := range emails {
		fmt.Fprintf(&b, "\n%d. %s\n   👤 %s\n   🆔 %s", i+1, e.Subject, e.From, e.ID)
	}
	return b.String()
}

func EventsText(events []Event, loc *time.Location) string {
	if len(events) == 0 {
		return "📭 沒有日程"
	}
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString("📅 日程清單")
	for i, e := range events {
		when := e.Start
		if !e.AllDay {
			if t, err := time.Parse(time.RFC3339, e.Start); err == nil {
				when = t.In(loc).Format("01/02 15:04")
			}
		}
		fmt.Fprintf(&b, "\n%d. %s %s", i+1, when, e.Summary)
		if e.Location != "" {
			fmt.Fprintf(&b, " 📍%s", e.Location)
		}
	}
	return b.String()
}
