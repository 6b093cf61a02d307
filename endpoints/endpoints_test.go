package endpoints

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/handlers"
	"github.com/EasterCompany/dex-athena-service/internal/chat"
	"github.com/EasterCompany/dex-athena-service/internal/google"
	"github.com/EasterCompany/dex-athena-service/internal/monitor"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/services"
	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineSecret = "line-secret"

type nopCollector struct{}

func (nopCollector) Collect(ctx context.Context) (monitor.Metrics, error) {
	return monitor.Metrics{NetworkConnected: true}, nil
}

type testServer struct {
	handler  http.Handler
	store    storage.Store
	manifest string

	mu      sync.Mutex
	handled []types.Message
	done    chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.AdminToken = "admin"
	store := storage.NewMemoryStore()

	ts := &testServer{store: store, manifest: filepath.Join(dir, "plugins.yaml"), done: make(chan struct{}, 4)}
	require.NoError(t, os.WriteFile(ts.manifest, []byte("handlers:\n  - name: ping\n    kind: reply\n    reply: pong\n"), 0o644))
	plugins := handlers.NewRegistry(ts.manifest, []string{"help"})
	_, err := plugins.Reload()
	require.NoError(t, err)

	ts.handler = NewRouter(Deps{
		Config:  cfg,
		Store:   store,
		Stats:   services.NewStats(),
		Monitor: monitor.New(nopCollector{}, store, cfg.Monitor, nil),
		Plugins: plugins,
		Google:  google.New(cfg.Google, store, dir),
		LINE:    chat.NewLINE("token", lineSecret),
		Handle: func(ctx context.Context, msg types.Message) {
			ts.mu.Lock()
			ts.handled = append(ts.handled, msg)
			ts.mu.Unlock()
			ts.done <- struct{}{}
		},
	})
	return ts
}

func (ts *testServer) do(method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestServiceEndpoint(t *testing.T) {
	ts := newTestServer(t)
	utils.SetHealthStatus("OK", "Service is running normally")

	rec := ts.do(http.MethodGet, "/service", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report utils.ServiceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "OK", report.Health.Status)
	assert.Contains(t, report.Metrics, "messages_received")
	assert.Equal(t, "unset", report.Config["telegram"])
}

func TestMonitorEndpoint_NotSampled(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/monitor", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MonitorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Sampled)
	assert.Empty(t, resp.Alerts)
}

func TestPluginsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/plugins", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list PluginsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "ping", list.Plugins[0].Name)

	rec = ts.do(http.MethodPost, "/plugins/reload", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, os.WriteFile(ts.manifest, []byte("handlers:\n  - name: Bad-Name\n    kind: reply\n"), 0o644))
	rec = ts.do(http.MethodPost, "/plugins/reload", nil, map[string]string{"Authorization": "Bearer admin"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var failed ReloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Equal(t, 1, failed.Loaded, "previous plugins are kept")
	assert.NotEmpty(t, failed.Fields)

	require.NoError(t, os.WriteFile(ts.manifest, []byte("handlers:\n  - name: ping\n    kind: reply\n    reply: pong\n  - name: pong\n    kind: reply\n    reply: ping\n"), 0o644))
	rec = ts.do(http.MethodPost, "/plugins/reload", nil, map[string]string{"Authorization": "Bearer admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	var reloaded ReloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reloaded))
	assert.Equal(t, 2, reloaded.Loaded)
}

func TestTimelineEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	utils.SendEvent(ctx, ts.store, utils.ServiceName, "model.switched", map[string]interface{}{"model": "groq"})
	utils.SendEvent(ctx, ts.store, utils.ServiceName, "model.switched", map[string]interface{}{"model": "ollama"})

	rec := ts.do(http.MethodGet, "/timeline?max=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.GetTimelineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Contains(t, string(resp.Events[0].Event), "ollama")

	rec = ts.do(http.MethodGet, "/timeline?format=text&timezone=UTC", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "已切換到 groq")
	assert.Contains(t, lines[1], "已切換到 ollama")

	rec = ts.do(http.MethodGet, "/timeline?max=zero", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	utils.SendEvent(ctx, ts.store, utils.ServiceName, "alert.raised", map[string]interface{}{
		"alert_type": "cpu", "severity": "warning", "message": "CPU 使用率過高",
	})
	rec = ts.do(http.MethodGet, "/timeline?type=alert.raised", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	rec = ts.do(http.MethodGet, "/timeline?type=alert", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOAuthCallback_MissingCode(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/oauth2callback", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/oauth2callback?code=abc&state=forged", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(lineSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestLINEWebhook(t *testing.T) {
	ts := newTestServer(t)
	body := []byte(`{"events":[{"type":"message","replyToken":"r1","timestamp":1700000000000,
		"source":{"type":"user","userId":"U1"},"message":{"type":"text","text":"查看課程"}}]}`)

	rec := ts.do(http.MethodPost, "/line/webhook", body, map[string]string{"X-Line-Signature": "bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/line/webhook", body, map[string]string{"X-Line-Signature": sign(body)})
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-ts.done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook message was not handled")
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.Len(t, ts.handled, 1)
	assert.Equal(t, "查看課程", ts.handled[0].Text)
	assert.Equal(t, "r1", ts.handled[0].ReplyToken)
}
