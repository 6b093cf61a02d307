package chat

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestLINE_VerifySignature(t *testing.T) {
	l := NewLINE("token", "secret")
	body := []byte(`{"events":[]}`)

	assert.True(t, l.VerifySignature(body, sign("secret", body)))
	assert.False(t, l.VerifySignature(body, sign("other", body)))
	assert.False(t, l.VerifySignature(body, ""))
}

func TestLINE_ParseWebhook(t *testing.T) {
	l := NewLINE("token", "secret")
	body := []byte(`{"events":[
		{"type":"message","replyToken":"r1","timestamp":1700000000000,
		 "source":{"type":"user","userId":"U1"},"message":{"type":"text","text":"courses"}},
		{"type":"message","replyToken":"r2","timestamp":1700000000000,
		 "source":{"type":"group","userId":"U2","groupId":"G1"},"message":{"type":"text","text":"schedule"}},
		{"type":"message","replyToken":"r3","source":{"type":"user","userId":"U1"},"message":{"type":"sticker"}},
		{"type":"follow","replyToken":"r4","source":{"type":"user","userId":"U3"}}
	]}`)

	msgs, err := l.ParseWebhook(body)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, types.PlatformLINE, msgs[0].Platform)
	assert.Equal(t, "U1", msgs[0].ChatID)
	assert.Equal(t, "courses", msgs[0].Text)
	assert.Equal(t, "r1", msgs[0].ReplyToken)
	assert.Equal(t, "G1", msgs[1].ChatID)
	assert.Equal(t, "U2", msgs[1].UserID)
}

func TestLINE_ParseWebhookInvalid(t *testing.T) {
	_, err := NewLINE("t", "s").ParseWebhook([]byte("{"))
	assert.Error(t, err)
}

type lineCall struct {
	path    string
	payload map[string]interface{}
}

func newLINEServer(t *testing.T, replyStatus int) (*LINE, *[]lineCall) {
	t.Helper()
	var calls []lineCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		_ = json.Unmarshal(body, &payload)
		calls = append(calls, lineCall{path: r.URL.Path, payload: payload})

		if r.URL.Path == "/v2/bot/message/reply" && replyStatus != http.StatusOK {
			w.WriteHeader(replyStatus)
			_, _ = w.Write([]byte(`{"message":"Invalid reply token"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	l := NewLINE("token", "secret")
	l.BaseURL = srv.URL
	return l, &calls
}

func TestLINE_ReplyUsesReplyToken(t *testing.T) {
	l, calls := newLINEServer(t, http.StatusOK)
	msg := types.Message{Platform: types.PlatformLINE, ChatID: "U1", ReplyToken: "r1"}

	require.NoError(t, Reply(context.Background(), l, msg, "hello"))
	require.Len(t, *calls, 1)
	assert.Equal(t, "/v2/bot/message/reply", (*calls)[0].path)
	assert.Equal(t, "r1", (*calls)[0].payload["replyToken"])
}

func TestLINE_ReplyFallsBackToPush(t *testing.T) {
	l, calls := newLINEServer(t, http.StatusBadRequest)
	msg := types.Message{Platform: types.PlatformLINE, ChatID: "U1", ReplyToken: "expired"}

	require.NoError(t, l.Reply(context.Background(), msg, "hello"))
	require.Len(t, *calls, 2)
	assert.Equal(t, "/v2/bot/message/push", (*calls)[1].path)
	assert.Equal(t, "U1", (*calls)[1].payload["to"])
}

func TestLINE_SendMessageBatches(t *testing.T) {
	l, calls := newLINEServer(t, http.StatusOK)

	text := strings.TrimSuffix(strings.Repeat(strings.Repeat("x", LINEMaxLength)+"\n", 6), "\n")
	require.NoError(t, l.SendMessage(context.Background(), "U1", text))

	require.Len(t, *calls, 2)
	first := (*calls)[0].payload["messages"].([]interface{})
	second := (*calls)[1].payload["messages"].([]interface{})
	assert.Len(t, first, 5)
	assert.Len(t, second, 1)
}
