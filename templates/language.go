package templates

import "strings"

// DefaultLanguage is the language replies and timeline text use unless asked otherwise.
const DefaultLanguage = "zh-TW"

var languageAliases = map[string]string{
	"zh":                  "zh-TW",
	"zh-tw":               "zh-TW",
	"zh-hant":             "zh-TW",
	"chinese":             "zh-TW",
	"traditional chinese": "zh-TW",
	"中文":                  "zh-TW",
	"繁體中文":                "zh-TW",
	"en":                  "en",
	"en-us":               "en",
	"en-gb":               "en",
	"english":             "en",
}

// ResolveLanguage converts a language parameter to a supported code.
// Unknown input is returned unchanged and falls back to English.
func ResolveLanguage(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return ""
	}
	if code, ok := languageAliases[normalized]; ok {
		return code
	}
	return input
}

// LanguageFallback defines the fallback chain for each supported language
var LanguageFallback = map[string][]string{
	"zh-TW": {"zh-TW", "en"},
	"en":    {"en"},
}

// GetLanguageFallbackChain returns the fallback chain for a language
func GetLanguageFallbackChain(lang string) []string {
	if chain, exists := LanguageFallback[lang]; exists {
		return chain
	}
	return []string{lang, "en"}
}

// GetFormatString retrieves the best format string for a language
func GetFormatString(template EventTemplate, lang string) string {
	if lang == "" {
		return template.Format
	}
	for _, fallbackLang := range GetLanguageFallbackChain(lang) {
		if format, exists := template.Formats[fallbackLang]; exists && format != "" {
			return format
		}
		if fallbackLang == "en" && template.Format != "" {
			return template.Format
		}
	}
	return template.Format
}
