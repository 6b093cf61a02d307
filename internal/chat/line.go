package chat

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
)

const (
	LINEAPIBaseURL   = "https://api.line.me"
	LINEMaxLength    = 5000
	lineMaxMessages  = 5
	lineSignatureHdr = "X-Line-Signature"
)

// LINE is a webhook-driven LINE Messaging API transport.
type LINE struct {
	BaseURL string
	token   string
	secret  string
	client  *http.Client
}

func NewLINE(channelToken, channelSecret string) *LINE {
	return &LINE{
		BaseURL: LINEAPIBaseURL,
		token:   channelToken,
		secret:  channelSecret,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SignatureHeader is the request header carrying the webhook signature.
func (l *LINE) SignatureHeader() string { return lineSignatureHdr }

// VerifySignature checks the base64 HMAC-SHA256 of body against signature.
func (l *LINE) VerifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(l.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type lineWebhook struct {
	Events []struct {
		Type       string `json:"type"`
		ReplyToken string `json:"replyToken"`
		Timestamp  int64  `json:"timestamp"`
		Source     struct {
			Type    string `json:"type"`
			UserID  string `json:"userId"`
			GroupID string `json:"groupId"`
			RoomID  string `json:"roomId"`
		} `json:"source"`
		Message struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"message"`
	} `json:"events"`
}

// ParseWebhook returns the text messages in a webhook body.
func (l *LINE) ParseWebhook(body []byte) ([]types.Message, error) {
	var hook lineWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("failed to parse line webhook: %w", err)
	}

	var msgs []types.Message
	for _, ev := range hook.Events {
		if ev.Type != "message" || ev.Message.Type != "text" {
			continue
		}
		chatID := ev.Source.UserID
		switch ev.Source.Type {
		case "group":
			chatID = ev.Source.GroupID
		case "room":
			chatID = ev.Source.RoomID
		}
		msgs = append(msgs, types.Message{
			Platform:   types.PlatformLINE,
			ChatID:     chatID,
			UserID:     ev.Source.UserID,
			UserName:   ev.Source.UserID,
			Text:       ev.Message.Text,
			ReplyToken: ev.ReplyToken,
			Timestamp:  time.UnixMilli(ev.Timestamp),
		})
	}
	return msgs, nil
}

type lineTextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func lineMessages(text string) [][]lineTextMessage {
	var batches [][]lineTextMessage
	var batch []lineTextMessage
	for _, chunk := range utils.SplitMessage(text, LINEMaxLength) {
		batch = append(batch, lineTextMessage{Type: "text", Text: chunk})
		if len(batch) == lineMaxMessages {
			batches = append(batches, batch)
			batch = nil
		}
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}
	return batches
}

// Reply answers through the reply API. Reply tokens are single-use, so
// overflow batches and a rejected token fall back to push.
func (l *LINE) Reply(ctx context.Context, msg types.Message, text string) error {
	batches := lineMessages(text)
	if len(batches) == 0 {
		return nil
	}

	err := l.post(ctx, "/v2/bot/message/reply", map[string]interface{}{
		"replyToken": msg.ReplyToken,
		"messages":   batches[0],
	})
	if err != nil {
		log.Printf("LINE: reply failed, falling back to push: %v", err)
		return l.push(ctx, msg.ChatID, batches)
	}
	return l.push(ctx, msg.ChatID, batches[1:])
}

// SendMessage pushes text to a user, group or room id.
func (l *LINE) SendMessage(ctx context.Context, chatID string, text string) error {
	return l.push(ctx, chatID, lineMessages(text))
}

func (l *LINE) push(ctx context.Context, to string, batches [][]lineTextMessage) error {
	for _, batch := range batches {
		if err := l.post(ctx, "/v2/bot/message/push", map[string]interface{}{
			"to":       to,
			"messages": batch,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (l *LINE) post(ctx context.Context, path string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call line api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("line api returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
