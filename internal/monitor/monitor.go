// Package monitor samples host hardware, raises threshold alerts and pushes them to the owner.
package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/utils"
	"github.com/google/uuid"
)

const (
	MaxSamples  = 144
	DedupWindow = 30 * time.Second

	SeverityCritical = "critical"
	SeverityHigh     = "high"

	AlertCPUUsage   = "CPU使用率"
	AlertCPUTemp    = "CPU溫度"
	AlertMemory     = "內存使用率"
	AlertMemoryLeak = "內存洩漏"
	AlertBattery    = "電池電量"
	AlertDisk       = "磁盤容量"
	AlertNetwork    = "網絡連接"
)

type Alert struct {
	ID        string  `json:"id"`
	Severity  string  `json:"severity"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// Notifier delivers alert text to the owner.
type Notifier func(ctx context.Context, text string) error

// Monitor keeps a rolling window of samples and the alerts raised from the latest one.
type Monitor struct {
	collector Collector
	store     storage.Store
	cfg       config.MonitorConfig
	notify    Notifier

	mu         sync.RWMutex
	samples    []Metrics
	active     []Alert
	lastPushed map[string]time.Time
	now        func() time.Time
}

func New(collector Collector, store storage.Store, cfg config.MonitorConfig, notify Notifier) *Monitor {
	return &Monitor{
		collector:  collector,
		store:      store,
		cfg:        cfg,
		notify:     notify,
		lastPushed: make(map[string]time.Time),
		now:        time.Now,
	}
}

// Latest returns the most recent sample.
func (m *Monitor) Latest() (Metrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.samples) == 0 {
		return Metrics{}, false
	}
	return m.samples[len(m.samples)-1], true
}

// ActiveAlerts returns the alerts raised by the latest sample.
func (m *Monitor) ActiveAlerts() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Alert(nil), m.active...)
}

// Sample collects one reading, detects anomalies, stores them and pushes the
// ones outside the dedup window.
func (m *Monitor) Sample(ctx context.Context) (Metrics, []Alert, error) {
	metrics, err := m.collector.Collect(ctx)
	if err != nil {
		return Metrics{}, nil, fmt.Errorf("failed to collect metrics: %w", err)
	}

	m.mu.Lock()
	m.samples = append(m.samples, metrics)
	if len(m.samples) > MaxSamples {
		m.samples = m.samples[len(m.samples)-MaxSamples:]
	}
	alerts := m.detectLocked(metrics)
	m.active = alerts
	fresh := m.dedupLocked(alerts)
	m.mu.Unlock()

	for _, a := range fresh {
		if err := storage.AppendCapped(ctx, m.store, storage.Alerts, a); err != nil {
			log.Printf("Monitor: failed to store alert %s: %v", a.Type, err)
		}
		utils.SendEvent(ctx, m.store, utils.ServiceName, templates.EventAlertRaised, map[string]interface{}{
			"alert_type": a.Type,
			"severity":   a.Severity,
			"message":    a.Message,
		})
	}
	if len(fresh) > 0 && m.notify != nil {
		if err := m.notify(ctx, AlertText(fresh)); err != nil {
			log.Printf("Monitor: failed to push alerts: %v", err)
		}
	}
	return metrics, alerts, nil
}

// DetectAnomalies checks a sample against the thresholds using the stored sample history.
func (m *Monitor) DetectAnomalies(metrics Metrics) []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.detectLocked(metrics)
}

func (m *Monitor) newAlert(severity, typ string, value, threshold float64, message string) Alert {
	return Alert{
		ID:        uuid.New().String(),
		Severity:  severity,
		Type:      typ,
		Value:     value,
		Threshold: threshold,
		Message:   message,
		Timestamp: m.now().UnixMilli(),
	}
}

func severity(critical bool) string {
	if critical {
		return SeverityCritical
	}
	return SeverityHigh
}

func (m *Monitor) detectLocked(s Metrics) []Alert {
	var alerts []Alert
	t := m.cfg

	if s.CPU.Usage > t.CPUUsage {
		alerts = append(alerts, m.newAlert(severity(s.CPU.Usage > 95), AlertCPUUsage,
			s.CPU.Usage, t.CPUUsage, fmt.Sprintf("⚠️ CPU 超高：%.1f%%", s.CPU.Usage)))
	}
	if s.CPU.Temperature > t.CPUTemp {
		alerts = append(alerts, m.newAlert(severity(s.CPU.Temperature > 50), AlertCPUTemp,
			s.CPU.Temperature, t.CPUTemp, fmt.Sprintf("🌡️ 溫度過高：%g°C", s.CPU.Temperature)))
	}
	if s.Memory.UsedPercent > t.Memory {
		alerts = append(alerts, m.newAlert(severity(s.Memory.UsedPercent > 95), AlertMemory,
			s.Memory.UsedPercent, t.Memory, fmt.Sprintf("📊 內存超高：%g%%", s.Memory.UsedPercent)))
		if m.memoryRisingLocked() {
			alerts = append(alerts, m.newAlert(SeverityHigh, AlertMemoryLeak,
				s.Memory.UsedPercent, t.Memory, "⚠️ 內存洩漏跡象（最近 5 次採集都在上升）"))
		}
	}
	if s.Battery.Available && float64(s.Battery.Level) < t.BatteryLow {
		alerts = append(alerts, m.newAlert(SeverityHigh, AlertBattery,
			float64(s.Battery.Level), t.BatteryLow, fmt.Sprintf("🔋 電池不足：%d%%", s.Battery.Level)))
	}
	if s.Storage.UsedPercent > t.Disk {
		alerts = append(alerts, m.newAlert(severity(s.Storage.UsedPercent > 95), AlertDisk,
			s.Storage.UsedPercent, t.Disk, fmt.Sprintf("💾 磁盤滿：%g%%", s.Storage.UsedPercent)))
	}
	if !s.NetworkConnected {
		alerts = append(alerts, m.newAlert(SeverityCritical, AlertNetwork, 0, 1, "📡 網絡離線"))
	}
	return alerts
}

// memoryRisingLocked reports whether memory usage has not dropped across most of the last 5 samples.
func (m *Monitor) memoryRisingLocked() bool {
	if len(m.samples) < 5 {
		return false
	}
	recent := m.samples[len(m.samples)-5:]
	rising := 1
	for i := 1; i < len(recent); i++ {
		if recent[i].Memory.UsedPercent >= recent[i-1].Memory.UsedPercent {
			rising++
		}
	}
	return rising >= 4
}

func (m *Monitor) dedupLocked(alerts []Alert) []Alert {
	now := m.now()
	var fresh []Alert
	for _, a := range alerts {
		if last, ok := m.lastPushed[a.Type]; ok && now.Sub(last) < DedupWindow {
			continue
		}
		m.lastPushed[a.Type] = now
		fresh = append(fresh, a)
	}
	return fresh
}

// HealthScore rates a sample from 0 to 100.
func HealthScore(s Metrics) int {
	score := 100
	if s.Memory.UsedPercent > 80 {
		score -= 20
	}
	if s.CPU.Usage > 80 {
		score -= 20
	}
	if s.Battery.Available && s.Battery.Level < 20 {
		score -= 15
	}
	if s.Storage.UsedPercent > 85 {
		score -= 15
	}
	if !s.NetworkConnected {
		score -= 30
	}
	return max(0, score)
}

func scoreBar(score int) string {
	filled := (score + 2) / 5
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}

func networkLabel(connected bool) string {
	if connected {
		return "在線"
	}
	return "離線"
}

// Dashboard renders the latest sample and its alerts.
func (m *Monitor) Dashboard(version string) string {
	s, ok := m.Latest()
	if !ok {
		return "📊 正在採集數據..."
	}
	alerts := m.ActiveAlerts()
	score := HealthScore(s)

	var b strings.Builder
	fmt.Fprintf(&b, "🛡️ 雅典娜監控面板 %s\n━━━━━━━━━━━━━━━━━━━━━━━━━\n\n", version)
	b.WriteString("💻 硬體狀態\n")
	fmt.Fprintf(&b, "  CPU: %.2f | 內存: %g%% | 電池: %d%%\n", s.CPU.Load1, s.Memory.UsedPercent, s.Battery.Level)
	fmt.Fprintf(&b, "  溫度: %g°C | 磁盤: %g%% | 網絡: %s\n\n", s.CPU.Temperature, s.Storage.UsedPercent, networkLabel(s.NetworkConnected))
	b.WriteString("📊 詳細指標\n")
	fmt.Fprintf(&b, "  🔷 CPU: 核心 %d | 使用率 %.1f%% | 溫度 %g°C\n", s.CPU.Cores, s.CPU.Usage, s.CPU.Temperature)
	fmt.Fprintf(&b, "  🔷 內存: %dMB / %dMB (%g%%)\n", s.Memory.UsedMB, s.Memory.TotalMB, s.Memory.UsedPercent)
	fmt.Fprintf(&b, "  🔷 電池: %d%% | 狀態 %s | 溫度 %g°C\n", s.Battery.Level, s.Battery.Status, s.Battery.Temperature)
	fmt.Fprintf(&b, "  🔷 存儲: %gGB (%g%%)\n\n", s.Storage.TotalGB, s.Storage.UsedPercent)
	fmt.Fprintf(&b, "💚 整體評分：%d/100\n  %s\n\n", score, scoreBar(score))

	if len(alerts) == 0 {
		b.WriteString("✅ 沒有告警\n")
	} else {
		var critical, high []string
		for _, a := range alerts {
			if a.Severity == SeverityCritical {
				critical = append(critical, a.Message)
			} else {
				high = append(high, a.Message)
			}
		}
		b.WriteString("🚨 告警摘要\n")
		if len(critical) > 0 {
			fmt.Fprintf(&b, "  🔴 緊急 (%d): %s\n", len(critical), strings.Join(critical, " | "))
		}
		if len(high) > 0 {
			fmt.Fprintf(&b, "  🟠 高級 (%d): %s\n", len(high), strings.Join(high[:min(2, len(high))], " | "))
		}
	}
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "⏰ %s", s.Timestamp.Format("15:04:05"))
	return b.String()
}

// AlertText renders alerts for a push message.
func AlertText(alerts []Alert) string {
	var b strings.Builder
	b.WriteString("🚨 系統告警")
	for _, a := range alerts {
		fmt.Fprintf(&b, "\n[%s] %s", strings.ToUpper(a.Severity), a.Message)
	}
	return b.String()
}

// RecentAlertsText renders the last n stored alerts.
func RecentAlertsText(ctx context.Context, store storage.Store, n int, loc *time.Location) (string, error) {
	alerts, err := storage.RecentAs[Alert](ctx, store, storage.Alerts, n)
	if err != nil {
		return "", err
	}
	if len(alerts) == 0 {
		return "✅ 沒有告警歷史", nil
	}
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 最近 %d 條告警\n", n)
	for i, a := range alerts {
		ts := time.UnixMilli(a.Timestamp).In(loc).Format("15:04:05")
		fmt.Fprintf(&b, "\n%d. [%s] %s\n   %s\n   %s\n", i+1, strings.ToUpper(a.Severity), a.Type, a.Message, ts)
	}
	return b.String(), nil
}

// Run samples every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	log.Printf("Monitor: started, sampling every %s", interval)

	if _, _, err := m.Sample(ctx); err != nil {
		log.Printf("Monitor: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor: stopped")
			return
		case <-ticker.C:
			if _, _, err := m.Sample(ctx); err != nil {
				log.Printf("Monitor: %v", err)
			}
		}
	}
}
