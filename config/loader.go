package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns ~/Athena/config/athena.yaml.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("Athena", "config", "athena.yaml")
	}
	return filepath.Join(homeDir, "Athena", "config", "athena.yaml")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, "Athena")

	return &Config{
		Port:       8200,
		DataDir:    filepath.Join(root, "data"),
		TopicsDir:  filepath.Join(root, "topics"),
		PluginFile: filepath.Join(root, "config", "plugins.yaml"),
		PluginDir:  filepath.Join(root, "plugins"),
		Timezone:   "Asia/Taipei",
		LLM: LLMConfig{
			DefaultModel:   "groq",
			OpenAIBaseURL:  "https://api.groq.com/openai/v1",
			AnthropicModel: "claude-sonnet-4-5",
			OllamaURL:      "http://127.0.0.1:11434",
			OllamaModel:    "mistral",
			VisionModel:    "llava",
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			DSN:     filepath.Join(root, "data", "athena.db"),
		},
		Google: GoogleConfig{
			RedirectURL: "http://localhost:8200/oauth2callback",
		},
		Monitor: MonitorConfig{
			Interval:      60 * time.Second,
			NetworkTarget: "8.8.8.8:53",
			CPUUsage:      85,
			CPUTemp:       45,
			Memory:        90,
			BatteryLow:    20,
			Disk:          85,
		},
		Tokens: TokenConfig{
			PricePerMillion: 0.05,
			DailyLimit:      10,
			MonthlyLimit:    200,
		},
	}
}

// LoadConfig loads .env, then the YAML file named by ATHENA_CONFIG (or the
// default path), then applies environment overrides.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("ATHENA_CONFIG")
	if path == "" {
		path = DefaultPath()
	}
	return LoadFile(path)
}

// LoadFile reads the YAML file at path, if it exists, over the defaults and
// applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	str("ADMIN_TOKEN", &cfg.AdminToken)
	str("DATA_DIR", &cfg.DataDir)
	str("TOPICS_DIR", &cfg.TopicsDir)
	str("PLUGIN_FILE", &cfg.PluginFile)
	str("PLUGIN_DIR", &cfg.PluginDir)
	str("TZ", &cfg.Timezone)

	str("TELEGRAM_TOKEN", &cfg.Telegram.Token)
	str("OWNER_CHAT_ID", &cfg.Telegram.OwnerChatID)
	str("LINE_CHANNEL_ACCESS_TOKEN", &cfg.LINE.ChannelToken)
	str("LINE_CHANNEL_SECRET", &cfg.LINE.ChannelSecret)

	str("DEFAULT_MODEL", &cfg.LLM.DefaultModel)
	str("GROQ_API_KEY", &cfg.LLM.GroqAPIKey)
	str("OPENAI_BASE_URL", &cfg.LLM.OpenAIBaseURL)
	str("ANTHROPIC_API_KEY", &cfg.LLM.AnthropicAPIKey)
	str("ANTHROPIC_MODEL", &cfg.LLM.AnthropicModel)
	str("OLLAMA_URL", &cfg.LLM.OllamaURL)
	str("OLLAMA_MODEL", &cfg.LLM.OllamaModel)
	str("VISION_MODEL", &cfg.LLM.VisionModel)

	str("STORAGE_BACKEND", &cfg.Storage.Backend)
	str("STORAGE_DSN", &cfg.Storage.DSN)
	str("REDIS_PASSWORD", &cfg.Storage.Password)

	str("GOOGLE_CLIENT_ID", &cfg.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &cfg.Google.ClientSecret)
	str("GOOGLE_REDIRECT_URI", &cfg.Google.RedirectURL)

	str("TAVILY_API_KEY", &cfg.Search.TavilyAPIKey)

	if v := os.Getenv("MONITOR_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Monitor.Interval = d
		}
	}
	str("MONITOR_NETWORK_TARGET", &cfg.Monitor.NetworkTarget)

	num("TOKEN_PRICE_PER_MILLION", &cfg.Tokens.PricePerMillion)
	num("TOKEN_DAILY_LIMIT", &cfg.Tokens.DailyLimit)
	num("TOKEN_MONTHLY_LIMIT", &cfg.Tokens.MonthlyLimit)
}

// Validate returns every problem found. An empty result means the
// configuration is usable; missing integrations only disable features.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, ValidationError{Field: "port", Message: fmt.Sprintf("invalid port %d", c.Port)})
	}

	switch c.Storage.Backend {
	case "redis", "sqlite":
		if c.Storage.DSN == "" {
			errs = append(errs, ValidationError{Field: "storage.dsn", Message: "required for " + c.Storage.Backend})
		}
	case "memory":
	default:
		errs = append(errs, ValidationError{Field: "storage.backend", Message: fmt.Sprintf("unknown backend '%s'", c.Storage.Backend)})
	}

	if c.Monitor.Interval <= 0 {
		errs = append(errs, ValidationError{Field: "monitor.interval", Message: "must be positive"})
	}

	if c.Tokens.DailyLimit < 0 || c.Tokens.MonthlyLimit < 0 || c.Tokens.PricePerMillion < 0 {
		errs = append(errs, ValidationError{Field: "tokens", Message: "limits and price must not be negative"})
	}

	if (c.LINE.ChannelToken == "") != (c.LINE.ChannelSecret == "") {
		errs = append(errs, ValidationError{Field: "line", Message: "channel token and secret must be set together"})
	}

	if c.Telegram.Token != "" && c.Telegram.OwnerChatID == "" {
		errs = append(errs, ValidationError{Field: "telegram.owner_chat_id", Message: "required to deliver alerts and timers"})
	}

	return errs
}
