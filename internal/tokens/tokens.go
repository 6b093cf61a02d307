// Package tokens tracks LLM token usage and its cost against daily and monthly limits.
package tokens

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
)

// WarnRatio is the share of a limit at which a warning is raised.
const WarnRatio = 0.8

// Usage is one recorded completion.
type Usage struct {
	Timestamp    int64   `json:"timestamp"` // unix milliseconds
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
}

// Stats summarises spending up to a point in time.
type Stats struct {
	Today        float64 `json:"today"`
	Month        float64 `json:"month"`
	DailyLimit   float64 `json:"daily_limit"`
	MonthlyLimit float64 `json:"monthly_limit"`
	RequestCount int     `json:"request_count"`
	AvgTokens    int     `json:"avg_tokens"`
}

// Monitor records usage in the token_usage collection.
type Monitor struct {
	store           storage.Store
	pricePerMillion float64
	dailyLimit      float64
	monthlyLimit    float64
}

func NewMonitor(store storage.Store, cfg config.TokenConfig) *Monitor {
	return &Monitor{
		store:           store,
		pricePerMillion: cfg.PricePerMillion,
		dailyLimit:      cfg.DailyLimit,
		monthlyLimit:    cfg.MonthlyLimit,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Record stores one completion's token counts and returns the priced record.
func (m *Monitor) Record(ctx context.Context, model string, inputTokens, outputTokens int) (Usage, error) {
	total := inputTokens + outputTokens
	u := Usage{
		Timestamp:    time.Now().UnixMilli(),
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  total,
		Cost:         round(float64(total)*m.pricePerMillion/1_000_000, 6),
	}
	if err := storage.AppendCapped(ctx, m.store, storage.TokenUsage, u); err != nil {
		return u, fmt.Errorf("failed to record token usage: %w", err)
	}
	return u, nil
}

// Stats computes today's and this month's spend relative to now's location.
func (m *Monitor) Stats(ctx context.Context, now time.Time) (Stats, error) {
	usage, err := storage.AllAs[Usage](ctx, m.store, storage.TokenUsage)
	if err != nil {
		return Stats{}, err
	}
	return m.compute(usage, now), nil
}

func (m *Monitor) compute(usage []Usage, now time.Time) Stats {
	loc := now.Location()
	y, mo, d := now.Date()

	var today, month float64
	var tokens int
	for _, u := range usage {
		t := time.UnixMilli(u.Timestamp).In(loc)
		uy, umo, ud := t.Date()
		if uy == y && umo == mo {
			month += u.Cost
			if ud == d {
				today += u.Cost
			}
		}
		tokens += u.TotalTokens
	}

	s := Stats{
		Today:        round(today, 4),
		Month:        round(month, 4),
		DailyLimit:   m.dailyLimit,
		MonthlyLimit: m.monthlyLimit,
		RequestCount: len(usage),
	}
	if len(usage) > 0 {
		s.AvgTokens = int(math.Round(float64(tokens) / float64(len(usage))))
	}
	return s
}

// Warnings returns a message for each limit more than WarnRatio used.
func (s Stats) Warnings() []string {
	var out []string
	if s.DailyLimit > 0 && s.Today > s.DailyLimit*WarnRatio {
		out = append(out, fmt.Sprintf("⚠️ 日額度已用 %.1f%%", s.Today/s.DailyLimit*100))
	}
	if s.MonthlyLimit > 0 && s.Month > s.MonthlyLimit*WarnRatio {
		out = append(out, fmt.Sprintf("⚠️ 月額度已用 %.1f%%", s.Month/s.MonthlyLimit*100))
	}
	return out
}

// CheckLimits returns the current limit warnings.
func (m *Monitor) CheckLimits(ctx context.Context, now time.Time) ([]string, error) {
	s, err := m.Stats(ctx, now)
	if err != nil {
		return nil, err
	}
	return s.Warnings(), nil
}

// Text renders the usage report.
func (s Stats) Text() string {
	return fmt.Sprintf("💰 Token 監控報告\n━━━━━━━━━━━\n"+
		"📊 今日成本：$%g / $%g\n"+
		"📊 本月成本：$%g / $%g\n"+
		"📊 請求數：%d\n"+
		"📊 平均 Token：%d\n━━━━━━━━━━━",
		s.Today, s.DailyLimit, s.Month, s.MonthlyLimit, s.RequestCount, s.AvgTokens)
}

// Report renders the usage report as of now.
func (m *Monitor) Report(ctx context.Context, now time.Time) (string, error) {
	s, err := m.Stats(ctx, now)
	if err != nil {
		return "", err
	}
	return s.Text(), nil
}
