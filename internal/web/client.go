// Package web queries the Tavily search API.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.tavily.com"
	MaxResults     = 5
)

type Client struct {
	BaseURL string
	APIKey  string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.APIKey != "" }

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// Search returns up to MaxResults results for query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("search API key not configured")
	}
	body, err := json.Marshal(searchRequest{APIKey: c.APIKey, Query: query, MaxResults: MaxResults})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search service returned status %d: %s", resp.StatusCode, string(b))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(out.Results) > MaxResults {
		out.Results = out.Results[:MaxResults]
	}
	return out.Results, nil
}

// FormatResults renders search results for chat.
func FormatResults(query string, results []Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("❌ 搜尋 \"%s\" 無結果", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🌐 搜尋結果：\"%s\"\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n📎 %s\n", i+1, r.Title, r.URL)
	}
	return b.String()
}
