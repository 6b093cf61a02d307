// Package personality evolves the bot's Big-5 traits from the tone of incoming messages.
package personality

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
)

const (
	StyleBalanced = "balanced"
	StyleCasual   = "casual"

	// learnedKeyLen is the rune length of the user-message prefix used as a learned-response key.
	learnedKeyLen = 30
)

var (
	positiveWords = []string{"好", "感謝", "喜歡", "✨"}
	negativeWords = []string{"不", "討厭", "生氣"}
	casualWords   = []string{"嘿", "欸", "lol", "哈"}
)

// Big5 holds the trait counters, each in [0,100].
type Big5 struct {
	Openness          int `json:"openness"`
	Conscientiousness int `json:"conscientiousness"`
	Extraversion      int `json:"extraversion"`
	Agreeableness     int `json:"agreeableness"`
	Neuroticism       int `json:"neuroticism"`
}

// State is the persisted personality document.
type State struct {
	Big5             Big5              `json:"big5"`
	SpeakingStyle    string            `json:"speaking_style"`
	LearnedResponses map[string]string `json:"learned_responses"`
}

// Tone is the keyword analysis of one message.
type Tone struct {
	Positive bool
	Negative bool
	Casual   bool
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func AnalyzeTone(text string) Tone {
	lower := strings.ToLower(text)
	return Tone{
		Positive: containsAny(lower, positiveWords),
		Negative: containsAny(lower, negativeWords),
		Casual:   containsAny(lower, casualWords),
	}
}

func DefaultState() State {
	return State{
		Big5:             Big5{50, 50, 50, 50, 50},
		SpeakingStyle:    StyleBalanced,
		LearnedResponses: make(map[string]string),
	}
}

// System owns the in-memory personality and writes it back after each update.
type System struct {
	mu    sync.RWMutex
	state State
	store storage.Store
}

func New(store storage.Store) *System {
	return &System{state: DefaultState(), store: store}
}

// Load restores the persisted state, keeping defaults if none exists.
func (s *System) Load(ctx context.Context) error {
	var st State
	err := s.store.Get(ctx, storage.DocPersonality, &st)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load personality: %w", err)
	}
	if st.LearnedResponses == nil {
		st.LearnedResponses = make(map[string]string)
	}
	if st.SpeakingStyle == "" {
		st.SpeakingStyle = StyleBalanced
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

func clamp(v int) int {
	return max(0, min(100, v))
}

func learnedKey(text string) string {
	r := []rune(text)
	if len(r) > learnedKeyLen {
		r = r[:learnedKeyLen]
	}
	return string(r)
}

// Update applies one exchange to the traits and persists the result.
func (s *System) Update(ctx context.Context, userMessage, botResponse string) error {
	tone := AnalyzeTone(userMessage)

	s.mu.Lock()
	b := &s.state.Big5
	if tone.Positive {
		b.Agreeableness = clamp(b.Agreeableness + 2)
		b.Extraversion = clamp(b.Extraversion + 1)
	}
	if tone.Negative {
		b.Neuroticism = clamp(b.Neuroticism + 1)
	}
	if tone.Casual {
		b.Extraversion = clamp(b.Extraversion + 2)
		s.state.SpeakingStyle = StyleCasual
	}
	s.state.LearnedResponses[learnedKey(userMessage)] = botResponse
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.store.Set(ctx, storage.DocPersonality, snapshot); err != nil {
		log.Printf("Personality: failed to persist state: %v", err)
		return fmt.Errorf("failed to save personality: %w", err)
	}
	return nil
}

func (s *System) snapshotLocked() State {
	st := s.state
	st.LearnedResponses = make(map[string]string, len(s.state.LearnedResponses))
	for k, v := range s.state.LearnedResponses {
		st.LearnedResponses[k] = v
	}
	return st
}

// State returns a copy of the current personality.
func (s *System) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func styleLabel(extraversion int) string {
	switch {
	case extraversion > 60:
		return "活潑熱情"
	case extraversion < 40:
		return "冷靜內省"
	default:
		return "平衡友善"
	}
}

// SystemPrompt describes the current traits for the chat model.
func (s *System) SystemPrompt() string {
	s.mu.RLock()
	b := s.state.Big5
	s.mu.RUnlock()

	return fmt.Sprintf("你是雅典娜，AI 助手。根據互動進化：\n"+
		"- 開放性：%d%%\n"+
		"- 盡責性：%d%%\n"+
		"- 外向性：%d%% (風格：%s)\n"+
		"- 親和性：%d%%\n"+
		"- 穩定性：%d%%\n"+
		"根據人格調整回應方式。",
		b.Openness, b.Conscientiousness, b.Extraversion, styleLabel(b.Extraversion),
		b.Agreeableness, 100-b.Neuroticism)
}

func (s *System) Report() string {
	st := s.State()
	b := st.Big5
	return fmt.Sprintf("🧠 人格進化報告\n━━━━━━━━━━━\n"+
		"🔷 開放性：%d%%\n"+
		"🔷 盡責性：%d%%\n"+
		"🔷 外向性：%d%%\n"+
		"🔷 親和性：%d%%\n"+
		"🔷 神經質：%d%%\n"+
		"🔷 說話風格：%s\n"+
		"🔷 學習回應：%d\n━━━━━━━━━━━",
		b.Openness, b.Conscientiousness, b.Extraversion, b.Agreeableness, b.Neuroticism,
		st.SpeakingStyle, len(st.LearnedResponses))
}
