package skills

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/internal/llm"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	mu   sync.Mutex
	reqs []llm.Request
	text string
	err  error
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text, Model: "fake", PromptTokens: 10, CompletionTokens: 5}, nil
}

func TestSummarize_RecordsTokens(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	fc := &fakeCompleter{text: " 1. a\n2. b\n3. c "}
	s := New(fc, store, tokens.NewMonitor(store, config.TokenConfig{PricePerMillion: 0.05}), nil)

	out, err := s.Summarize(ctx, "long text")
	require.NoError(t, err)
	assert.Equal(t, "📝 摘要結果\n\n1. a\n2. b\n3. c", out)

	require.Len(t, fc.reqs, 1)
	assert.Equal(t, 300, fc.reqs[0].MaxTokens)
	assert.True(t, strings.HasSuffix(fc.reqs[0].Messages[0].Content, "long text"))

	n, err := store.Count(ctx, storage.TokenUsage)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVibe(t *testing.T) {
	fc := &fakeCompleter{text: "加油"}
	s := New(fc, storage.NewMemoryStore(), nil, nil)
	out, err := s.Vibe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "✨ 今日運勢\n\n加油", out)
	assert.Equal(t, 100, fc.reqs[0].MaxTokens)

	fc.err = errors.New("down")
	_, err = s.Vibe(context.Background())
	assert.Error(t, err)
}

func TestSlackerTip(t *testing.T) {
	tip := SlackerTip()
	require.True(t, strings.HasPrefix(tip, "🐟 "))
	assert.Contains(t, SlackerTips, strings.TrimPrefix(tip, "🐟 "))
}

func TestFocusTimerFires(t *testing.T) {
	s := New(&fakeCompleter{}, storage.NewMemoryStore(), nil, nil)
	defer s.Close()

	got := make(chan string, 1)
	s.startTimer("42", 10*time.Millisecond, func(ctx context.Context, chatID, text string) error {
		got <- chatID + ":" + text
		return nil
	})

	select {
	case msg := <-got:
		assert.True(t, strings.HasPrefix(msg, "42:⏰ 深度工作完成！"))
	case <-time.After(2 * time.Second):
		t.Fatal("focus timer did not fire")
	}
	assert.Eventually(t, func() bool { return s.ActiveTimers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestFocusTimerCancelledOnClose(t *testing.T) {
	s := New(&fakeCompleter{}, storage.NewMemoryStore(), nil, nil)
	fired := false
	ack := s.StartFocus("1", 30, func(ctx context.Context, chatID, text string) error {
		fired = true
		return nil
	})
	assert.Equal(t, "🚀 進入深度工作模式：30 分鐘\n雅典娜將在結束時通知你。", ack)
	assert.Equal(t, 1, s.ActiveTimers())

	s.Close()
	assert.Equal(t, 0, s.ActiveTimers())
	assert.False(t, fired)
}

func TestFocusTimerReplaced(t *testing.T) {
	s := New(&fakeCompleter{}, storage.NewMemoryStore(), nil, nil)
	defer s.Close()
	noop := func(ctx context.Context, chatID, text string) error { return nil }
	s.StartFocus("1", 30, noop)
	s.StartFocus("1", 45, noop)
	assert.Equal(t, 1, s.ActiveTimers())
}

func TestFocusDurationClamped(t *testing.T) {
	s := New(&fakeCompleter{}, storage.NewMemoryStore(), nil, nil)
	defer s.Close()
	noop := func(ctx context.Context, chatID, text string) error { return nil }

	ack := s.StartFocus("1", 99999999999, noop)
	assert.Equal(t, "🚀 進入深度工作模式：1440 分鐘\n雅典娜將在結束時通知你。", ack)
	assert.Equal(t, 1, s.ActiveTimers())

	ack = s.StartFocus("2", -5, noop)
	assert.Contains(t, ack, "：1 分鐘")
	assert.Equal(t, 2, s.ActiveTimers())
}

func TestNotesAndMemory(t *testing.T) {
	ctx := context.Background()
	s := New(&fakeCompleter{}, storage.NewMemoryStore(), nil, nil)

	empty, err := s.MemoryText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "📭 還沒有靈魂記憶", empty)

	for i := 0; i < 7; i++ {
		reply, err := s.AddNote(ctx, strings.Repeat("記", 50), time.Now())
		require.NoError(t, err)
		assert.Equal(t, "✍️ 已記錄到靈魂記憶！", reply)
	}

	text, err := s.MemoryText(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "5. "+strings.Repeat("記", 40)+"...")
	assert.NotContains(t, text, "6. ")
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	s := New(&fakeCompleter{}, storage.NewMemoryStore(), nil, nil)

	empty, err := s.HistoryText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "📭 沒有對話歷史", empty)

	require.NoError(t, s.AppendHistory(ctx, "first", "one", time.Now()))
	require.NoError(t, s.AppendHistory(ctx, "second", "two", time.Now()))
	require.NoError(t, s.AppendHistory(ctx, "third", "three", time.Now()))
	require.NoError(t, s.AppendHistory(ctx, "fourth", "four", time.Now()))

	text, err := s.HistoryText(ctx)
	require.NoError(t, err)
	assert.NotContains(t, text, "first")
	assert.Contains(t, text, "你：fourth...\n 我：four...")
}

func TestWebSearch_NotConfigured(t *testing.T) {
	s := New(&fakeCompleter{}, storage.NewMemoryStore(), nil, nil)
	_, err := s.WebSearch(context.Background(), "go")
	assert.Error(t, err)
}
