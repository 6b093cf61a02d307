package utils

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"你好世界", 2, "你好..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestClip(t *testing.T) {
	if got := Clip("abcdef", 3); got != "abc" {
		t.Errorf("Expected 'abc', got '%s'", got)
	}
	if got := Clip("ab", 3); got != "ab" {
		t.Errorf("Expected 'ab', got '%s'", got)
	}
}

func TestSplitMessage_ShortMessage(t *testing.T) {
	chunks := SplitMessage("short", 100)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("Expected single chunk, got %v", chunks)
	}
}

func TestSplitMessage_LineBoundaries(t *testing.T) {
	content := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6) + "\n" + strings.Repeat("c", 6)
	chunks := SplitMessage(content, 14)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "aaaaaa\nbbbbbb" {
		t.Errorf("Unexpected first chunk %q", chunks[0])
	}
	if chunks[1] != "cccccc" {
		t.Errorf("Unexpected second chunk %q", chunks[1])
	}
}

func TestSplitMessage_LongLine(t *testing.T) {
	content := strings.Repeat("x", 25)
	chunks := SplitMessage(content, 10)

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 10 {
			t.Errorf("Chunk %d exceeds limit: %d runes", i, len([]rune(c)))
		}
	}
	if strings.Join(chunks, "") != content {
		t.Error("Chunks do not reassemble into the original content")
	}
}

func TestRandomPick(t *testing.T) {
	if RandomPick(nil) != "" {
		t.Error("Expected empty string for empty list")
	}
	if RandomPick([]string{"only"}) != "only" {
		t.Error("Expected the single element")
	}
}
