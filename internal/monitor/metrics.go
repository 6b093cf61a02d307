package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/EasterCompany/dex-athena-service/utils"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	DefaultThermalPath = "/sys/class/thermal/thermal_zone0/temp"
	batteryCommand     = "termux-battery-status"
	dialTimeout        = 3 * time.Second
)

type CPUMetrics struct {
	Usage       float64 `json:"usage"` // load1 relative to cores, in percent
	Load1       float64 `json:"load1"`
	Cores       int     `json:"cores"`
	Temperature float64 `json:"temperature"`
}

type MemoryMetrics struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

type BatteryMetrics struct {
	Available   bool    `json:"available"`
	Level       int     `json:"level"`
	Health      string  `json:"health"`
	Temperature float64 `json:"temperature"`
	Status      string  `json:"status"`
}

type StorageMetrics struct {
	TotalGB     float64 `json:"total_gb"`
	UsedPercent float64 `json:"used_percent"`
}

// Metrics is one hardware sample.
type Metrics struct {
	Timestamp        time.Time      `json:"timestamp"`
	CPU              CPUMetrics     `json:"cpu"`
	Memory           MemoryMetrics  `json:"memory"`
	Battery          BatteryMetrics `json:"battery"`
	Storage          StorageMetrics `json:"storage"`
	NetworkConnected bool           `json:"network_connected"`
}

// Collector takes a hardware sample.
type Collector interface {
	Collect(ctx context.Context) (Metrics, error)
}

// SystemCollector samples the local machine. Readings that fail leave their
// section zeroed; only a failed memory read fails the whole sample.
type SystemCollector struct {
	DiskPath      string
	ThermalPath   string
	NetworkTarget string
}

func NewSystemCollector(networkTarget string) *SystemCollector {
	return &SystemCollector{
		DiskPath:      "/",
		ThermalPath:   DefaultThermalPath,
		NetworkTarget: networkTarget,
	}
}

func (c *SystemCollector) Collect(ctx context.Context) (Metrics, error) {
	m := Metrics{Timestamp: time.Now()}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return m, fmt.Errorf("failed to read memory: %w", err)
	}
	m.Memory = MemoryMetrics{
		TotalMB:     vm.Total / 1024 / 1024,
		UsedMB:      vm.Used / 1024 / 1024,
		UsedPercent: round1(vm.UsedPercent),
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores <= 0 {
		cores = 1
	}
	m.CPU.Cores = cores
	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.CPU.Load1 = avg.Load1
		m.CPU.Usage = round1(avg.Load1 * 100 / float64(cores))
	}
	m.CPU.Temperature = readThermal(c.ThermalPath)

	if usage, err := disk.UsageWithContext(ctx, c.DiskPath); err == nil {
		m.Storage = StorageMetrics{
			TotalGB:     round1(float64(usage.Total) / (1 << 30)),
			UsedPercent: round1(usage.UsedPercent),
		}
	}

	m.Battery = readBattery(ctx)
	m.NetworkConnected = reachable(ctx, c.NetworkTarget)
	return m, nil
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// readThermal reads a millidegree sysfs value; 0 when unavailable.
func readThermal(path string) float64 {
	if path == "" {
		return 0
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0
	}
	if v > 1000 {
		v /= 1000
	}
	return round1(v)
}

type termuxBattery struct {
	Health      string  `json:"health"`
	Percentage  int     `json:"percentage"`
	Status      string  `json:"status"`
	Temperature float64 `json:"temperature"`
}

func readBattery(ctx context.Context) BatteryMetrics {
	if !utils.HasCommand(batteryCommand) {
		return BatteryMetrics{Level: 100, Status: "N/A"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := utils.RunCommand(ctx, batteryCommand)
	if err != nil {
		return BatteryMetrics{Level: 100, Status: "N/A"}
	}
	b, err := parseBattery(out)
	if err != nil {
		return BatteryMetrics{Level: 100, Status: "N/A"}
	}
	return b
}

func parseBattery(out string) (BatteryMetrics, error) {
	var tb termuxBattery
	if err := json.Unmarshal([]byte(out), &tb); err != nil {
		return BatteryMetrics{}, fmt.Errorf("failed to parse battery status: %w", err)
	}
	return BatteryMetrics{
		Available:   true,
		Level:       tb.Percentage,
		Health:      tb.Health,
		Temperature: tb.Temperature,
		Status:      tb.Status,
	}, nil
}

func reachable(ctx context.Context, target string) bool {
	if target == "" {
		return true
	}
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
