package personality

import (
	"context"
	"strings"
	"testing"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTone(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Tone
	}{
		{"positive", "謝謝，我很喜歡", Tone{Positive: true}},
		{"negative", "我討厭下雨", Tone{Negative: true}},
		{"casual latin", "LOL that is great", Tone{Casual: true}},
		{"mixed", "嘿，不錯喔 ✨", Tone{Positive: true, Negative: true, Casual: true}},
		{"neutral", "現在幾點", Tone{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeTone(tt.text))
		})
	}
}

func TestUpdate_AdjustsAndPersists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sys := New(store)

	require.NoError(t, sys.Update(ctx, "嘿，感謝你", "不客氣"))

	st := sys.State()
	assert.Equal(t, 52, st.Big5.Agreeableness)
	assert.Equal(t, 53, st.Big5.Extraversion)
	assert.Equal(t, 50, st.Big5.Neuroticism)
	assert.Equal(t, StyleCasual, st.SpeakingStyle)
	assert.Equal(t, "不客氣", st.LearnedResponses["嘿，感謝你"])

	var saved State
	require.NoError(t, store.Get(ctx, storage.DocPersonality, &saved))
	assert.Equal(t, st, saved)

	reloaded := New(store)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, st, reloaded.State())
}

func TestUpdate_ClampsAt100(t *testing.T) {
	ctx := context.Background()
	sys := New(storage.NewMemoryStore())
	for i := 0; i < 40; i++ {
		require.NoError(t, sys.Update(ctx, "好", "ok"))
	}
	assert.Equal(t, 100, sys.State().Big5.Agreeableness)
	assert.Equal(t, 90, sys.State().Big5.Extraversion)
}

func TestLearnedKeyTruncatesRunes(t *testing.T) {
	long := strings.Repeat("字", 45)
	assert.Equal(t, strings.Repeat("字", 30), learnedKey(long))
}

func TestLoad_MissingDocumentKeepsDefaults(t *testing.T) {
	sys := New(storage.NewMemoryStore())
	require.NoError(t, sys.Load(context.Background()))
	assert.Equal(t, DefaultState(), sys.State())
}

func TestSystemPrompt(t *testing.T) {
	sys := New(storage.NewMemoryStore())
	prompt := sys.SystemPrompt()
	assert.Contains(t, prompt, "你是雅典娜")
	assert.Contains(t, prompt, "外向性：50% (風格：平衡友善)")
	assert.Contains(t, prompt, "穩定性：50%")
	assert.Contains(t, sys.Report(), "🔷 學習回應：0")
}
