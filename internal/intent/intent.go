// Package intent maps free text to bot actions by keyword.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

type Intent string

const (
	DriveList     Intent = "drive_list"
	DriveSearch   Intent = "drive_search"
	DriveUpload   Intent = "drive_upload"
	DriveDownload Intent = "drive_download"
	DriveBackup   Intent = "drive_backup"
	DriveSync     Intent = "drive_sync"
	DriveQuota    Intent = "drive_quota"
	EmailUnread   Intent = "email_unread"
	EmailDelete   Intent = "email_delete"
	EmailMark     Intent = "email_mark"
	ScheduleToday Intent = "schedule_today"
	ScheduleWeek  Intent = "schedule_week"
	ScheduleFree  Intent = "schedule_free"
	Sum           Intent = "sum"
	Focus         Intent = "focus"
	Note          Intent = "note"
	Vibe          Intent = "vibe"
	Slacker       Intent = "slacker"
	Search        Intent = "search"
	Help          Intent = "help"
	Status        Intent = "status"
	Monitor       Intent = "monitor"
)

// DefaultFocusMinutes is used when no duration is given.
const DefaultFocusMinutes = 25

type entry struct {
	intent   Intent
	keywords []string
}

// table is ordered: the more specific drive intents precede the catch-all listing.
var table = []entry{
	{DriveSearch, []string{"在 drive 找", "搜尋", "找", "search"}},
	{DriveUpload, []string{"上傳", "upload", "傳到雲"}},
	{DriveDownload, []string{"下載", "download"}},
	{DriveBackup, []string{"備份", "backup"}},
	{DriveSync, []string{"同步", "sync", "拉取雲"}},
	{DriveQuota, []string{"額度", "quota", "還有多少空間"}},
	{DriveList, []string{"列出", "文件", "drive", "list"}},
	{EmailUnread, []string{"未讀", "郵件", "email", "unread", "有幾封"}},
	{EmailDelete, []string{"刪除", "刪郵件"}},
	{EmailMark, []string{"標記", "重要"}},
	{ScheduleToday, []string{"今天", "today", "什麼日程"}},
	{ScheduleWeek, []string{"本週", "週", "week"}},
	{ScheduleFree, []string{"空閒", "有空"}},
	{Sum, []string{"摘要", "總結", "sum"}},
	{Focus, []string{"工作", "focus", "深度"}},
	{Note, []string{"記", "note"}},
	{Vibe, []string{"運勢", "vibe", "激勵"}},
	{Slacker, []string{"摸魚", "slacker", "建議"}},
	{Search, []string{"搜尋", "搜索", "search"}},
	{Help, []string{"幫助", "help", "指令", "有什麼命令"}},
	{Status, []string{"狀態", "status"}},
	{Monitor, []string{"監控", "monitor"}},
}

// Detect returns every intent whose keywords appear in text, in table order.
func Detect(text string) []Intent {
	lower := strings.ToLower(text)
	var out []Intent
	for _, e := range table {
		for _, kw := range e.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, e.intent)
				break
			}
		}
	}
	return out
}

var (
	searchVerbRe = regexp.MustCompile(`(?i)(?:搜尋|搜索|找|search)\s*(.+)`)
	fileNounRe   = regexp.MustCompile(`(?:文件|檔案)\s*(.+)`)
	minutesRe    = regexp.MustCompile(`(?i)(\d+)\s*(?:分鐘|分|min)`)
	noteRe       = regexp.MustCompile(`(?i)(?:記下|記住|記錄|記|note)[\s:：,，]*(.+)`)
	emailIDRe    = regexp.MustCompile(`\b[0-9a-f]{16}\b`)
)

// ExtractKeyword returns the text after a search verb or a file noun, or "".
func ExtractKeyword(text string) string {
	for _, re := range []*regexp.Regexp{searchVerbRe, fileNounRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if kw := strings.TrimSpace(m[1]); kw != "" {
				return kw
			}
		}
	}
	return ""
}

// ExtractMinutes returns the first "N 分鐘" style duration, or DefaultFocusMinutes.
func ExtractMinutes(text string) int {
	m := minutesRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultFocusMinutes
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultFocusMinutes
	}
	return n
}

// ExtractNote returns what follows a "記下" style verb, or "".
func ExtractNote(text string) string {
	if m := noteRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractEmailID returns the first Gmail message id in text, or "".
func ExtractEmailID(text string) string {
	return emailIDRe.FindString(text)
}
