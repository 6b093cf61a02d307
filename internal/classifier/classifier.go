// Package classifier files conversation snippets into per-topic markdown notes.
package classifier

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/utils"
)

// DefaultTopic is used when no topic keyword matches.
const DefaultTopic = "personal"

// logContentLen is the rune length of the content kept in a classified_logs record.
const logContentLen = 100

type Topic struct {
	Name     string
	File     string
	Keywords []string
}

var Topics = []Topic{
	{"hardware", "00-hardware-plan.md", []string{"mac", "m5", "購買", "硬體", "電腦", "chip", "gpu"}},
	{"athena", "01-athena-project.md", []string{"athena", "雅典娜", "v8", "bot", "功能", "命令", "drive"}},
	{"learning", "02-learning-roadmap.md", []string{"學習", "python", "llm", "課程", "ai"}},
	{"preferences", "03-preferences.md", []string{"偏好", "風格", "語言", "時區"}},
	{"failed", "04-failed-attempts.md", []string{"失敗", "放棄", "error", "bug"}},
	{"workflow", "05-workflow-rules.md", []string{"流程", "約定", "標準", "部署"}},
	{"email", "06-email-notes.md", []string{"郵件", "email", "gmail"}},
	{"schedule", "07-schedule-notes.md", []string{"日程", "行程", "日曆"}},
	{"meeting", "08-meeting-notes.md", []string{"會議", "討論", "溝通"}},
	{"project", "09-project-progress.md", []string{"專案", "進度", "開發"}},
	{"research", "10-research-notes.md", []string{"研究", "調查", "分析"}},
	{"personal", "11-personal-notes.md", []string{"個人", "生活", "感受"}},
	{"bug", "12-bug-reports.md", []string{"bug", "問題", "異常"}},
	{"storage", "13-storage-sync.md", []string{"雲", "drive", "備份", "同步"}},
}

var numberPrefixRe = regexp.MustCompile(`^\d+-`)

// LogEntry is one classified_logs record.
type LogEntry struct {
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Topic     string `json:"topic"`
	Category  string `json:"category"`
	Content   string `json:"content"`
}

// TopicCount is one row of the classification statistics.
type TopicCount struct {
	Topic string
	Count int
}

// Classifier appends to topic files under dir and logs each entry to the store.
type Classifier struct {
	dir   string
	store storage.Store
	loc   *time.Location

	mu sync.Mutex
}

func New(dir string, store storage.Store, loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.Local
	}
	return &Classifier{dir: dir, store: store, loc: loc}
}

func (c *Classifier) Dir() string { return c.dir }

func lookup(name string) (Topic, bool) {
	for _, t := range Topics {
		if t.Name == name {
			return t, true
		}
	}
	return Topic{}, false
}

func title(file string) string {
	return numberPrefixRe.ReplaceAllString(strings.TrimSuffix(file, ".md"), "")
}

// EnsureTopicFiles creates the topics directory and any missing topic file.
func (c *Classifier) EnsureTopicFiles() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create topics dir: %w", err)
	}
	for _, t := range Topics {
		path := filepath.Join(c.dir, t.File)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		header := fmt.Sprintf("# %s\n\n", title(t.File))
		if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
			return fmt.Errorf("failed to create topic file %s: %w", t.File, err)
		}
	}
	return nil
}

// TopicFiles lists the markdown files currently in the topics directory.
func (c *Classifier) TopicFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(c.dir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Detect returns the first topic whose keyword appears in text.
func Detect(text string) string {
	lower := strings.ToLower(text)
	for _, t := range Topics {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, kw) {
				return t.Name
			}
		}
	}
	return DefaultTopic
}

// Save appends content to the topic's file and records it in classified_logs.
// Unknown topics are ignored.
func (c *Classifier) Save(ctx context.Context, topic, content, category string) error {
	t, ok := lookup(topic)
	if !ok {
		return nil
	}

	now := time.Now()
	entry := fmt.Sprintf("\n[%s] %s\n%s\n", now.In(c.loc).Format("2006/01/02 15:04:05"), category, content)

	c.mu.Lock()
	err := appendFile(filepath.Join(c.dir, t.File), entry)
	c.mu.Unlock()
	if err != nil {
		log.Printf("Classifier: failed to write %s: %v", t.File, err)
		return fmt.Errorf("failed to append to %s: %w", t.File, err)
	}

	rec := LogEntry{
		Timestamp: now.UnixMilli(),
		Topic:     topic,
		Category:  category,
		Content:   utils.Clip(content, logContentLen),
	}
	if err := storage.AppendCapped(ctx, c.store, storage.ClassifiedLogs, rec); err != nil {
		return fmt.Errorf("failed to log classification: %w", err)
	}
	return nil
}

func appendFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Stats counts classified entries per topic, largest first.
func (c *Classifier) Stats(ctx context.Context) ([]TopicCount, int, error) {
	logs, err := storage.AllAs[LogEntry](ctx, c.store, storage.ClassifiedLogs)
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[string]int)
	for _, l := range logs {
		counts[l.Topic]++
	}
	out := make([]TopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, TopicCount{Topic: topic, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	return out, len(logs), nil
}

// StatsText renders Stats for chat.
func (c *Classifier) StatsText(ctx context.Context) (string, error) {
	counts, total, err := c.Stats(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("📊 分類統計報告\n━━━━━━━━━━━\n")
	for _, tc := range counts {
		fmt.Fprintf(&b, "🔹 %s: %d 筆\n", tc.Topic, tc.Count)
	}
	fmt.Fprintf(&b, "━━━━━━━━━━━\n總計: %d 筆", total)
	return b.String(), nil
}

// Known reports whether name is a topic in the table.
func Known(name string) bool {
	_, ok := lookup(name)
	return ok
}
