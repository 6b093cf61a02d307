package endpoints

import (
	"net/http"

	"github.com/EasterCompany/dex-athena-service/internal/monitor"
)

// MonitorResponse is the body of GET /monitor.
type MonitorResponse struct {
	Sampled     bool            `json:"sampled"`
	Metrics     monitor.Metrics `json:"metrics"`
	HealthScore int             `json:"health_score"`
	Alerts      []monitor.Alert `json:"alerts"`
}

// MonitorHandler returns the latest hardware sample and the alerts it raised.
func MonitorHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := MonitorResponse{Alerts: m.ActiveAlerts()}
		if resp.Alerts == nil {
			resp.Alerts = []monitor.Alert{}
		}
		if latest, ok := m.Latest(); ok {
			resp.Sampled = true
			resp.Metrics = latest
			resp.HealthScore = monitor.HealthScore(latest)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
