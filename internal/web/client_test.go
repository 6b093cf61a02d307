package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	var got searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(searchResponse{Results: []Result{
			{Title: "Go", URL: "https://go.dev"},
			{Title: "Tour", URL: "https://go.dev/tour"},
		}})
	}))
	defer server.Close()

	c := NewClient("key")
	c.BaseURL = server.URL
	results, err := c.Search(context.Background(), "golang")
	require.NoError(t, err)

	assert.Equal(t, searchRequest{APIKey: "key", Query: "golang", MaxResults: MaxResults}, got)
	require.Len(t, results, 2)

	text := FormatResults("golang", results)
	assert.Contains(t, text, "🌐 搜尋結果：\"golang\"")
	assert.Contains(t, text, "2. Tour\n📎 https://go.dev/tour")
}

func TestSearch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient("key")
	c.BaseURL = server.URL
	_, err := c.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSearch_Disabled(t *testing.T) {
	_, err := NewClient("").Search(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, "❌ 搜尋 \"x\" 無結果", FormatResults("x", nil))
}
