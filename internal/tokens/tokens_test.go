package tokens

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultLimits() config.TokenConfig {
	return config.TokenConfig{PricePerMillion: 0.05, DailyLimit: 10, MonthlyLimit: 200}
}

func TestRecord_Cost(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewMonitor(store, defaultLimits())

	u, err := m.Record(context.Background(), "groq", 1200, 300)
	require.NoError(t, err)

	assert.Equal(t, 1500, u.TotalTokens)
	assert.Equal(t, 0.000075, u.Cost)

	count, err := store.Count(context.Background(), storage.TokenUsage)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStats_TodayAndMonth(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, loc)
	m := NewMonitor(storage.NewMemoryStore(), defaultLimits())

	usage := []Usage{
		{Timestamp: now.Add(-time.Hour).UnixMilli(), TotalTokens: 100, Cost: 1.5},
		{Timestamp: now.AddDate(0, 0, -3).UnixMilli(), TotalTokens: 200, Cost: 2.25},
		{Timestamp: now.AddDate(0, -1, 0).UnixMilli(), TotalTokens: 300, Cost: 4},
	}
	s := m.compute(usage, now)

	assert.Equal(t, 1.5, s.Today)
	assert.Equal(t, 3.75, s.Month)
	assert.Equal(t, 3, s.RequestCount)
	assert.Equal(t, 200, s.AvgTokens)
	assert.Empty(t, s.Warnings())
}

func TestStats_Warnings(t *testing.T) {
	s := Stats{Today: 8.5, Month: 170, DailyLimit: 10, MonthlyLimit: 200}
	warnings := s.Warnings()

	require.Len(t, warnings, 2)
	assert.Equal(t, "⚠️ 日額度已用 85.0%", warnings[0])
	assert.Equal(t, "⚠️ 月額度已用 85.0%", warnings[1])

	s = Stats{Today: 8, Month: 160, DailyLimit: 10, MonthlyLimit: 200}
	assert.Empty(t, s.Warnings(), "exactly 80% is not over the warning line")
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	m := NewMonitor(storage.NewMemoryStore(), defaultLimits())
	_, err := m.Record(ctx, "groq", 10, 10)
	require.NoError(t, err)

	report, err := m.Report(ctx, time.Now())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report, "💰 Token 監控報告"))
	assert.Contains(t, report, "📊 請求數：1")
	assert.Contains(t, report, "$10")
}
