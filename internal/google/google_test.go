package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, store storage.Store) *Client {
	t.Helper()
	return New(config.GoogleConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8200/oauth2callback",
	}, store, t.TempDir())
}

func authorize(t *testing.T, store storage.Store) {
	t.Helper()
	tok := &oauth2.Token{AccessToken: "access", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, store.Set(context.Background(), storage.DocGoogleTokens, tok))
}

func TestAuthURL(t *testing.T) {
	c := newTestClient(t, storage.NewMemoryStore())
	u := c.AuthURL()
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "client_id=id")
	assert.Contains(t, u, "state="+c.state)
	assert.True(t, strings.HasPrefix(c.AuthText(), "🔐 授權：\n"))
	assert.True(t, c.ValidState(c.state))
	assert.False(t, c.ValidState("forged"))
	assert.False(t, c.ValidState(""), "a missing state is rejected")
	assert.NotEqual(t, c.state, newTestClient(t, storage.NewMemoryStore()).state)
}

func TestNotAuthorized(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, storage.NewMemoryStore())

	assert.False(t, c.Authorized(ctx))
	assert.Equal(t, "❌ Google 未授權", c.StatusText(ctx))

	_, err := c.ListFiles(ctx)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = c.UnreadEmails(ctx)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = c.UpcomingEvents(ctx, 1)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = c.Quota(ctx)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	assert.Equal(t, "❌ Google 未授權，請先使用 /gauth", ErrorText(err, DriveFailed))
}

func TestDisabledWithoutCredentials(t *testing.T) {
	c := New(config.GoogleConfig{}, storage.NewMemoryStore(), t.TempDir())
	assert.False(t, c.Enabled())
	assert.Equal(t, "❌ Google OAuth 未設定", c.AuthText())
	assert.ErrorIs(t, c.Exchange(context.Background(), "code"), ErrNotAuthorized)
}

func TestExchange_StoresToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","refresh_token":"r","expires_in":3600}`))
	}))
	defer server.Close()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := newTestClient(t, store)
	c.oauth.Endpoint.TokenURL = server.URL

	require.NoError(t, c.Exchange(ctx, "the-code"))
	assert.True(t, c.Authorized(ctx))

	var tok oauth2.Token
	require.NoError(t, store.Get(ctx, storage.DocGoogleTokens, &tok))
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
}

func TestListFiles_Caches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files"))
		assert.Equal(t, "modifiedTime desc", r.URL.Query().Get("orderBy"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]any{
				{"id": "1", "name": "notes.md", "mimeType": "text/markdown", "size": "4096"},
				{"id": "2", "name": "Projects", "mimeType": folderMimeType},
			},
		})
	}))
	defer server.Close()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	authorize(t, store)
	c := newTestClient(t, store)
	c.serviceOptions = []option.ClientOption{option.WithEndpoint(server.URL + "/"), option.WithHTTPClient(server.Client())}

	files, err := c.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, int64(4096), files[0].Size)

	var cached []File
	require.NoError(t, store.Get(ctx, storage.DocDriveFilesCache, &cached))
	assert.Equal(t, files, cached)

	text := FilesText(files)
	assert.Contains(t, text, "1. notes.md (4KB)")
	assert.Contains(t, text, "2. Projects (資料夾)")
}

func TestDownloadFile_NotInCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	authorize(t, store)
	require.NoError(t, store.Set(ctx, storage.DocDriveFilesCache, []File{{ID: "1", Name: "report.pdf"}}))

	c := newTestClient(t, store)
	_, err := c.DownloadFile(ctx, "budget")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Equal(t, "❌ 文件未找到", ErrorText(err, DriveFailed))
}

func TestQuotaText(t *testing.T) {
	q := quotaFrom(5<<30, 15<<30)
	assert.Equal(t, Quota{UsedGB: 5, LimitGB: 15, Percent: 33}, q)
	assert.Equal(t, "📊 Drive 額度\n已用：5GB / 15GB (33%)\n剩餘：10GB", QuotaText(q))
	assert.Equal(t, int64(0), quotaFrom(1<<30, 0).Percent)
}

func TestEventsAndEmailsText(t *testing.T) {
	assert.Equal(t, "📭 沒有日程", EventsText(nil, nil))
	text := EventsText([]Event{
		{Summary: "Standup", Start: "2026-03-02T09:30:00Z"},
		{Summary: "Holiday", Start: "2026-03-03", AllDay: true, Location: "Home"},
	}, time.UTC)
	assert.Contains(t, text, "1. 03/02 09:30 Standup")
	assert.Contains(t, text, "2. 2026-03-03 Holiday 📍Home")

	assert.Equal(t, "📭 沒有未讀郵件", EmailsText(nil))
	assert.Contains(t, EmailsText([]Email{{ID: "m1", From: "a@b.c", Subject: "Hi"}}), "📬 未讀郵件 (1)")
}

func TestQuoteQuery(t *testing.T) {
	assert.Equal(t, `O\'Brien`, quoteQuery("O'Brien"))
}
