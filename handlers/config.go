package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/EasterCompany/dex-athena-service/internal/classifier"
	"github.com/EasterCompany/dex-athena-service/types"
	"gopkg.in/yaml.v3"
)

var nameRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

// FieldError is one problem found in the plugin manifest.
type FieldError struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("handlers[%d] (%s).%s: %s", e.Index, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("handlers[%d].%s: %s", e.Index, e.Field, e.Message)
}

// ManifestError collects every FieldError of a rejected manifest.
type ManifestError struct {
	Problems []FieldError
}

func (e *ManifestError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return "invalid plugin manifest: " + strings.Join(msgs, "; ")
}

// LoadManifest reads a YAML plugin manifest. A missing file yields an empty registry.
func LoadManifest(path string) (*types.HandlerRegistry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &types.HandlerRegistry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest YAML.
func ParseManifest(data []byte) (*types.HandlerRegistry, error) {
	reg := &types.HandlerRegistry{}
	if err := yaml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to parse plugin manifest: %w", err)
	}
	return reg, nil
}

// Validate checks every plugin against the naming, shadowing and per-kind rules.
func Validate(reg *types.HandlerRegistry, builtins map[string]bool) []FieldError {
	var problems []FieldError
	seen := make(map[string]bool)

	for i, h := range reg.Handlers {
		add := func(field, msg string) {
			problems = append(problems, FieldError{Index: i, Name: h.Name, Field: field, Message: msg})
		}

		switch {
		case h.Name == "":
			add("name", "is required")
		case !nameRegex.MatchString(h.Name):
			add("name", "must match [a-z0-9_]+")
		case builtins[h.Name]:
			add("name", "shadows a built-in command")
		case seen[h.Name]:
			add("name", "is declared more than once")
		}
		seen[h.Name] = true

		if h.Timeout < 0 {
			add("timeout", "must not be negative")
		}
		if h.Topic != "" && !classifier.Known(h.Topic) {
			add("topic", fmt.Sprintf("unknown topic '%s'", h.Topic))
		}

		switch h.Kind {
		case types.PluginKindReply:
			if h.Reply == "" {
				add("reply", "is required for kind reply")
			}
		case types.PluginKindPrompt:
			if h.Prompt == "" {
				add("prompt", "is required for kind prompt")
			}
		case types.PluginKindExec:
			switch {
			case h.Binary == "":
				add("binary", "is required for kind exec")
			case filepath.IsAbs(h.Binary) || strings.HasPrefix(filepath.Clean(h.Binary), ".."):
				add("binary", "must be a path inside the plugin directory")
			}
		case types.PluginKindHTTP:
			u, err := url.Parse(h.URL)
			if h.URL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				add("url", "must be an absolute http(s) URL")
			}
		case "":
			add("kind", "is required")
		default:
			add("kind", fmt.Sprintf("unknown kind '%s'", h.Kind))
		}
	}
	return problems
}
