package endpoints

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/EasterCompany/dex-athena-service/internal/google"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/utils"
)

const oauthPage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Athena</title></head><body><h2>%s</h2></body></html>`

// Notifier pushes a message to the owner chat.
type Notifier func(ctx context.Context, text string) error

// OAuthCallbackHandler completes the Google consent flow started by /gauth.
func OAuthCallbackHandler(g *google.Client, store storage.Store, notify Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if e := query.Get("error"); e != "" {
			http.Error(w, "Authorization denied: "+e, http.StatusBadRequest)
			return
		}
		if !g.ValidState(query.Get("state")) {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "code parameter is required", http.StatusBadRequest)
			return
		}

		if err := g.Exchange(r.Context(), code); err != nil {
			log.Printf("Endpoints: google authorization failed: %v", err)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = fmt.Fprintf(w, oauthPage, "❌ 授權失敗，請重新使用 /gauth")
			return
		}

		utils.SendEvent(r.Context(), store, utils.ServiceName, templates.EventGoogleAuthorized, nil)
		if notify != nil {
			if err := notify(r.Context(), "✅ Google 授權成功！"); err != nil {
				log.Printf("Endpoints: failed to notify owner: %v", err)
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, oauthPage, "✅ 授權成功！可以關閉此頁面")
	}
}
