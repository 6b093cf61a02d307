package chat

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
	chats []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Athena","username":"athena_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.texts = append(f.texts, r.FormValue("text"))
		f.chats = append(f.chats, r.FormValue("chat_id"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func newTestTelegram(t *testing.T) (*Telegram, *fakeBotAPI) {
	t.Helper()
	fake := &fakeBotAPI{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tg, err := NewTelegramWithEndpoint("TOKEN", srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	return tg, fake
}

func TestTelegram_Authorizes(t *testing.T) {
	tg, _ := newTestTelegram(t)
	assert.Equal(t, "athena_bot", tg.BotName())
}

func TestTelegram_LogsAuthorizationOnce(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	newTestTelegram(t)
	assert.Equal(t, 1, strings.Count(buf.String(), "authorized as @athena_bot"))
}

func TestTelegram_SendMessageSplitsLongText(t *testing.T) {
	tg, fake := newTestTelegram(t)

	line := strings.Repeat("a", 3000)
	err := tg.SendMessage(context.Background(), "42", line+"\n"+line)
	require.NoError(t, err)

	require.Len(t, fake.texts, 2)
	assert.Equal(t, line, fake.texts[0])
	assert.Equal(t, "42", fake.chats[0])
}

func TestTelegram_SendMessageInvalidChatID(t *testing.T) {
	tg, fake := newTestTelegram(t)

	err := tg.SendMessage(context.Background(), "not-a-number", "hi")
	assert.Error(t, err)
	assert.Empty(t, fake.texts)
}

func TestTelegram_SendMessageSkipsBlankText(t *testing.T) {
	tg, fake := newTestTelegram(t)

	require.NoError(t, tg.SendMessage(context.Background(), "42", "   "))
	assert.Empty(t, fake.texts)
}
