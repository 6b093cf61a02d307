package utils

import (
	"math/rand"
	"regexp"
	"strings"
)

// ansiRegex is used to strip ANSI escape codes.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes ANSI color codes from a string.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// Truncate shortens s to at most n runes, appending "..." when it was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Clip shortens s to at most n runes without a marker.
func Clip(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// RandomPick returns a random element of items, or "" when empty.
func RandomPick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[rand.Intn(len(items))]
}

// SplitMessage splits content into chunks of at most maxLen runes,
// preferring line boundaries and falling back to hard rune splits for long lines.
func SplitMessage(content string, maxLen int) []string {
	if maxLen <= 0 || len([]rune(content)) <= maxLen {
		return []string{content}
	}

	var chunks []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, string(current))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(content, "\n") {
		lineRunes := []rune(line)

		for len(lineRunes) > maxLen {
			flush()
			chunks = append(chunks, string(lineRunes[:maxLen]))
			lineRunes = lineRunes[maxLen:]
		}

		extra := len(lineRunes)
		if len(current) > 0 {
			extra++
		}
		if len(current)+extra > maxLen {
			flush()
		}
		if len(current) > 0 {
			current = append(current, '\n')
		}
		current = append(current, lineRunes...)
	}
	flush()

	return chunks
}

// GetLoadingMessage returns a random "thinking" message shown while waiting on a model.
func GetLoadingMessage() string {
	phrases := []string{
		"🤔 Thinking...",
		"🧠 Consulting the archives...",
		"⏳ One moment, compiling thoughts...",
		"🔍 Querying the knowledge base...",
		"⚙️ Processing request...",
	}
	return RandomPick(phrases)
}
