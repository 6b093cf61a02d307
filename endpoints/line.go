package endpoints

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/EasterCompany/dex-athena-service/internal/chat"
)

const maxWebhookBody = 1 << 20

// LINEWebhookHandler verifies and parses LINE webhook deliveries and hands
// each text message to handle. LINE expects a fast 200, so messages are
// handled after the response on a context detached from the request.
func LINEWebhookHandler(line *chat.LINE, handle chat.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "Failed to read body", http.StatusBadRequest)
			return
		}
		if !line.VerifySignature(body, r.Header.Get(line.SignatureHeader())) {
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		msgs, err := line.ParseWebhook(body)
		if err != nil {
			log.Printf("Endpoints: bad LINE webhook payload: %v", err)
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		ctx := context.WithoutCancel(r.Context())
		for _, m := range msgs {
			go handle(ctx, m)
		}
		w.WriteHeader(http.StatusOK)
	}
}
