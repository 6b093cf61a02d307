// Package llm defines the chat-completion interface and its providers.
package llm

import (
	"context"
	"errors"
)

var (
	ErrUnknownModel  = errors.New("model does not exist")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. Images are base64 JPEG data.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Request is a single chat completion.
type Request struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
}

// Response is the completion text and its token accounting.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens returns prompt plus completion tokens.
func (r Response) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Completer is implemented by every provider and by Registry.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, text string, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: text}},
		MaxTokens: maxTokens,
	}
}

// estimateTokens approximates a token count for providers that do not report usage.
func estimateTokens(s string) int {
	n := len([]rune(s)) / 4
	if n == 0 && s != "" {
		n = 1
	}
	return n
}
