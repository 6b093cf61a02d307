package endpoints

import (
	"errors"
	"net/http"

	"github.com/EasterCompany/dex-athena-service/handlers"
	"github.com/EasterCompany/dex-athena-service/types"
)

// PluginsResponse is the body of GET /plugins.
type PluginsResponse struct {
	Manifest string                `json:"manifest"`
	Plugins  []types.HandlerConfig `json:"plugins"`
	Count    int                   `json:"count"`
}

// ReloadResponse is the body of POST /plugins/reload.
type ReloadResponse struct {
	Loaded int                   `json:"loaded"`
	Error  string                `json:"error,omitempty"`
	Fields []handlers.FieldError `json:"fields,omitempty"`
}

// PluginsHandler lists the registered plugin commands.
func PluginsHandler(reg *handlers.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := reg.List()
		writeJSON(w, http.StatusOK, PluginsResponse{Manifest: reg.Path(), Plugins: list, Count: len(list)})
	}
}

// PluginsReloadHandler re-reads the manifest. An invalid manifest is answered
// with 422 and its field errors; the previous plugins stay registered.
func PluginsReloadHandler(reg *handlers.Registry, onReload handlers.ReloadFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := reg.Reload()
		if onReload != nil {
			onReload(n, handlers.SourceHTTP, err)
		}
		if err != nil {
			resp := ReloadResponse{Loaded: reg.Count(), Error: err.Error()}
			var manifestErr *handlers.ManifestError
			if errors.As(err, &manifestErr) {
				resp.Fields = manifestErr.Problems
			}
			writeJSON(w, http.StatusUnprocessableEntity, resp)
			return
		}
		writeJSON(w, http.StatusOK, ReloadResponse{Loaded: n})
	}
}
