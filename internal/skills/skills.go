// Package skills implements the small productivity commands: summaries,
// encouragement, slacking tips, focus timers, notes, history and web search.
package skills

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/EasterCompany/dex-athena-service/internal/llm"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/internal/tokens"
	"github.com/EasterCompany/dex-athena-service/internal/web"
	"github.com/EasterCompany/dex-athena-service/utils"
	"github.com/google/uuid"
)

const (
	summarizeMaxTokens = 300
	vibeMaxTokens      = 100

	notesShown     = 5
	noteRunes      = 40
	historyShown   = 3
	historyRunes   = 30
	vibrateCommand = "termux-vibrate"

	// MaxFocusMinutes caps a focus session at one day.
	MaxFocusMinutes = 24 * 60
)

var SlackerTips = []string{
	"☕ 站起來喝杯咖啡！",
	"👀 看窗外 20 秒，讓眼睛休息",
	"🐧 企鵝有膝蓋",
	"🎵 聽一首 Lo-fi 音樂",
	"🫁 深呼吸 3 次",
	"💧 喝點水",
	"🚶 走一圈",
	"👂 拉扯耳朵",
	"💆 揉揉眼睛",
	"🤸 伸個懶腰",
}

// Note is one soul_memory record.
type Note struct {
	ID      string `json:"id"`
	Content string `json:"c"`
	Date    string `json:"date"`
}

// HistoryEntry is one history record.
type HistoryEntry struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
	Time int64  `json:"time"` // unix milliseconds
}

// Notify sends text to a chat.
type Notify func(ctx context.Context, chatID, text string) error

// Skills bundles the skill commands. Tokens and Search may be nil.
type Skills struct {
	LLM    llm.Completer
	Store  storage.Store
	Tokens *tokens.Monitor
	Search *web.Client

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func New(completer llm.Completer, store storage.Store, tm *tokens.Monitor, search *web.Client) *Skills {
	ctx, cancel := context.WithCancel(context.Background())
	return &Skills{
		LLM:    completer,
		Store:  store,
		Tokens: tm,
		Search: search,
		timers: make(map[string]*time.Timer),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Skills) complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := s.LLM.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if s.Tokens != nil {
		if _, err := s.Tokens.Record(ctx, resp.Model, resp.PromptTokens, resp.CompletionTokens); err != nil {
			log.Printf("Skills: %v", err)
		}
	}
	return strings.TrimSpace(resp.Text), nil
}

// Summarize asks the model for three key points of text.
func (s *Skills) Summarize(ctx context.Context, text string) (string, error) {
	out, err := s.complete(ctx, llm.UserPrompt("", "請幫我摘要以下內容，只需 3 個重點：\n"+text, summarizeMaxTokens))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return "📝 摘要結果\n\n" + out, nil
}

// Vibe asks the model for a one-line encouragement.
func (s *Skills) Vibe(ctx context.Context) (string, error) {
	out, err := s.complete(ctx, llm.UserPrompt("給一句溫暖的運勢建議或激勵的話", "今日運勢", vibeMaxTokens))
	if err != nil {
		return "", fmt.Errorf("vibe: %w", err)
	}
	return "✨ 今日運勢\n\n" + out, nil
}

func SlackerTip() string {
	return "🐟 " + utils.RandomPick(SlackerTips)
}

// StartFocus arms a focus timer for chatID, replacing any running one, and
// returns the acknowledgement text. minutes is clamped to [1, MaxFocusMinutes].
func (s *Skills) StartFocus(chatID string, minutes int, notify Notify) string {
	minutes = max(1, min(minutes, MaxFocusMinutes))
	d := time.Duration(minutes) * time.Minute
	s.startTimer(chatID, d, notify)
	return fmt.Sprintf("🚀 進入深度工作模式：%d 分鐘\n雅典娜將在結束時通知你。", minutes)
}

func (s *Skills) startTimer(chatID string, d time.Duration, notify Notify) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	if t, ok := s.timers[chatID]; ok && t.Stop() {
		s.wg.Done()
	}

	s.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		defer s.wg.Done()
		s.mu.Lock()
		if s.timers[chatID] == t {
			delete(s.timers, chatID)
		}
		s.mu.Unlock()

		if s.ctx.Err() != nil {
			return
		}
		if err := notify(s.ctx, chatID, "⏰ 深度工作完成！\n該摸魚休息一下了 🐟"); err != nil {
			log.Printf("Skills: failed to send focus notification: %v", err)
		}
		if utils.HasCommand(vibrateCommand) {
			_, _ = utils.RunCommand(s.ctx, vibrateCommand, "-d", "1000")
		}
	})
	s.timers[chatID] = t
}

// ActiveTimers returns the number of armed focus timers.
func (s *Skills) ActiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close cancels pending focus timers and waits for any that are firing.
func (s *Skills) Close() {
	s.mu.Lock()
	s.cancel()
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// AddNote stores content in soul_memory.
func (s *Skills) AddNote(ctx context.Context, content string, now time.Time) (string, error) {
	n := Note{ID: uuid.New().String(), Content: content, Date: now.Format(time.RFC3339)}
	if err := storage.AppendCapped(ctx, s.Store, storage.SoulMemory, n); err != nil {
		return "", fmt.Errorf("failed to save note: %w", err)
	}
	return "✍️ 已記錄到靈魂記憶！", nil
}

// MemoryText renders the most recent notes.
func (s *Skills) MemoryText(ctx context.Context) (string, error) {
	notes, err := storage.RecentAs[Note](ctx, s.Store, storage.SoulMemory, notesShown)
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return "📭 還沒有靈魂記憶", nil
	}
	var b strings.Builder
	b.WriteString("📚 最近的靈魂記憶\n")
	for i, n := range notes {
		fmt.Fprintf(&b, "\n%d. %s", i+1, utils.Truncate(n.Content, noteRunes))
	}
	return b.String(), nil
}

// AppendHistory records one exchange.
func (s *Skills) AppendHistory(ctx context.Context, user, bot string, now time.Time) error {
	return storage.AppendCapped(ctx, s.Store, storage.History, HistoryEntry{User: user, Bot: bot, Time: now.UnixMilli()})
}

// HistoryText renders the most recent exchanges.
func (s *Skills) HistoryText(ctx context.Context) (string, error) {
	entries, err := storage.RecentAs[HistoryEntry](ctx, s.Store, storage.History, historyShown)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "📭 沒有對話歷史", nil
	}
	var b strings.Builder
	b.WriteString("💬 最近對話\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n你：%s...\n 我：%s...\n", utils.Clip(e.User, historyRunes), utils.Clip(e.Bot, historyRunes))
	}
	return b.String(), nil
}

// WebSearch runs a search and renders the results.
func (s *Skills) WebSearch(ctx context.Context, query string) (string, error) {
	if s.Search == nil || !s.Search.Enabled() {
		return "", fmt.Errorf("web search not configured")
	}
	results, err := s.Search.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return web.FormatResults(query, results), nil
}
