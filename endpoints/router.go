package endpoints

import (
	"net/http"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/handlers"
	"github.com/EasterCompany/dex-athena-service/internal/chat"
	"github.com/EasterCompany/dex-athena-service/internal/google"
	"github.com/EasterCompany/dex-athena-service/internal/monitor"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/middleware"
	"github.com/EasterCompany/dex-athena-service/services"
	"github.com/gorilla/mux"
)

// Deps are the components the HTTP API reads from.
type Deps struct {
	Config   *config.Config
	Store    storage.Store
	Stats    *services.Stats
	Monitor  *monitor.Monitor
	Plugins  *handlers.Registry
	OnReload handlers.ReloadFunc
	Google   *google.Client
	Notify   Notifier
	LINE     *chat.LINE // nil disables the webhook
	Handle   chat.HandlerFunc
}

// NewRouter wires every endpoint. /plugins/reload requires the admin token.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	admin := middleware.AdminAuthMiddleware(d.Config.AdminToken)

	r.HandleFunc("/service", ServiceHandler(d.Config, d.Stats)).Methods(http.MethodGet)
	r.HandleFunc("/monitor", MonitorHandler(d.Monitor)).Methods(http.MethodGet)
	r.HandleFunc("/plugins", PluginsHandler(d.Plugins)).Methods(http.MethodGet)
	r.HandleFunc("/plugins/reload", admin(PluginsReloadHandler(d.Plugins, d.OnReload))).Methods(http.MethodPost)
	r.HandleFunc("/oauth2callback", OAuthCallbackHandler(d.Google, d.Store, d.Notify)).Methods(http.MethodGet)
	r.HandleFunc("/timeline", GetTimelineHandler(d.Store)).Methods(http.MethodGet)
	if d.LINE != nil && d.Handle != nil {
		r.HandleFunc("/line/webhook", LINEWebhookHandler(d.LINE, d.Handle)).Methods(http.MethodPost)
	}

	return middleware.CorsMiddleware(r)
}
