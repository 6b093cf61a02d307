package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		text  string
		first Intent
	}{
		{"列出我的文件", DriveList},
		{"幫我搜尋 MacBook", DriveSearch},
		{"把報告上傳到雲", DriveUpload},
		{"備份記憶", DriveBackup},
		{"Drive 還有多少空間", DriveQuota},
		{"我有幾封未讀", EmailUnread},
		{"今天有什麼日程", ScheduleToday},
		{"本週行程", ScheduleWeek},
		{"給我今日運勢", Vibe},
		{"想摸魚", Slacker},
		{"系統狀態", Status},
		{"開啟監控", Monitor},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Detect(tt.text)
			if assert.NotEmpty(t, got) {
				assert.Equal(t, tt.first, got[0])
			}
		})
	}
}

func TestDetect_AllMatchesInOrder(t *testing.T) {
	got := Detect("search help")
	assert.Equal(t, []Intent{DriveSearch, Search, Help}, got)
}

func TestDetect_NoMatch(t *testing.T) {
	assert.Empty(t, Detect("你好嗎"))
}

func TestExtractKeyword(t *testing.T) {
	assert.Equal(t, "MacBook", ExtractKeyword("搜尋 MacBook"))
	assert.Equal(t, "Python 教程", ExtractKeyword("幫我search Python 教程"))
	assert.Equal(t, "report.pdf", ExtractKeyword("下載文件 report.pdf"))
	assert.Equal(t, "", ExtractKeyword("搜尋"))
	assert.Equal(t, "", ExtractKeyword("你好"))
}

func TestExtractMinutes(t *testing.T) {
	assert.Equal(t, 45, ExtractMinutes("專注工作 45 分鐘"))
	assert.Equal(t, 10, ExtractMinutes("focus 10min"))
	assert.Equal(t, 30, ExtractMinutes("30分"))
	assert.Equal(t, DefaultFocusMinutes, ExtractMinutes("深度工作"))
	assert.Equal(t, DefaultFocusMinutes, ExtractMinutes("0 分鐘"))
}

func TestExtractNote(t *testing.T) {
	assert.Equal(t, "明天買牛奶", ExtractNote("幫我記下 明天買牛奶"))
	assert.Equal(t, "call mom", ExtractNote("note: call mom"))
	assert.Equal(t, "", ExtractNote("記"))
}

func TestExtractEmailID(t *testing.T) {
	assert.Equal(t, "18c5f0e2a1b2c3d4", ExtractEmailID("刪除郵件 18c5f0e2a1b2c3d4"))
	assert.Equal(t, "", ExtractEmailID("刪除那封郵件"))
}
