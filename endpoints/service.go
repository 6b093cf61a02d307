package endpoints

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/services"
	"github.com/EasterCompany/dex-athena-service/utils"
)

// ServiceHandler provides a comprehensive status report for the service.
func ServiceHandler(cfg *config.Config, stats *services.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := utils.GetVersion()

		// Display version without the build suffixes.
		displayVersion := utils.Version{
			Str: fmt.Sprintf("%s.%s.%s", version.Obj.Major, version.Obj.Minor, version.Obj.Patch),
			Obj: version.Obj,
		}

		report := utils.ServiceReport{
			Version: displayVersion,
			Health:  utils.GetHealth(),
			Metrics: stats.Snapshot(),
			Config:  cfg.Summary(),
		}

		w.Header().Set("Content-Type", "application/json")
		if report.Health.Status == "OK" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(report); err != nil {
			log.Printf("Endpoints: failed to encode service report: %v", err)
		}
	}
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Endpoints: failed to encode response: %v", err)
	}
}
