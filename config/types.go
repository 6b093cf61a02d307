package config

import "time"

// Config is the complete runtime configuration of the assistant.
type Config struct {
	Port       int    `yaml:"port"`
	AdminToken string `yaml:"admin_token"`
	DataDir    string `yaml:"data_dir"`
	TopicsDir  string `yaml:"topics_dir"`
	PluginFile string `yaml:"plugin_file"`
	PluginDir  string `yaml:"plugin_dir"`
	Timezone   string `yaml:"timezone"`

	Telegram TelegramConfig `yaml:"telegram"`
	LINE     LINEConfig     `yaml:"line"`
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Google   GoogleConfig   `yaml:"google"`
	Search   SearchConfig   `yaml:"search"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Tokens   TokenConfig    `yaml:"tokens"`
}

type TelegramConfig struct {
	Token       string `yaml:"token"`
	OwnerChatID string `yaml:"owner_chat_id"`
}

type LINEConfig struct {
	ChannelToken  string `yaml:"channel_token"`
	ChannelSecret string `yaml:"channel_secret"`
}

type LLMConfig struct {
	DefaultModel    string `yaml:"default_model"`
	GroqAPIKey      string `yaml:"groq_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	OllamaURL       string `yaml:"ollama_url"`
	OllamaModel     string `yaml:"ollama_model"`
	VisionModel     string `yaml:"vision_model"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend"` // redis, sqlite or memory
	DSN      string `yaml:"dsn"`     // redis address or sqlite file path
	Password string `yaml:"password"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type SearchConfig struct {
	TavilyAPIKey string `yaml:"tavily_api_key"`
}

type MonitorConfig struct {
	Interval      time.Duration `yaml:"interval"`
	NetworkTarget string        `yaml:"network_target"`
	CPUUsage      float64       `yaml:"cpu_usage"`
	CPUTemp       float64       `yaml:"cpu_temp"`
	Memory        float64       `yaml:"memory"`
	BatteryLow    float64       `yaml:"battery_low"`
	Disk          float64       `yaml:"disk"`
}

type TokenConfig struct {
	PricePerMillion float64 `yaml:"price_per_million"`
	DailyLimit      float64 `yaml:"daily_limit"`
	MonthlyLimit    float64 `yaml:"monthly_limit"`
}

// ValidationError describes a single configuration problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// TelegramEnabled reports whether the Telegram transport can start.
func (c *Config) TelegramEnabled() bool { return c.Telegram.Token != "" }

// LINEEnabled reports whether the LINE webhook can be served.
func (c *Config) LINEEnabled() bool {
	return c.LINE.ChannelToken != "" && c.LINE.ChannelSecret != ""
}

// GoogleEnabled reports whether OAuth credentials are configured.
func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

// Summary returns the configuration with secrets reduced to "set"/"unset".
func (c *Config) Summary() map[string]interface{} {
	set := func(s string) string {
		if s == "" {
			return "unset"
		}
		return "set"
	}
	return map[string]interface{}{
		"port":            c.Port,
		"storage_backend": c.Storage.Backend,
		"default_model":   c.LLM.DefaultModel,
		"plugin_file":     c.PluginFile,
		"topics_dir":      c.TopicsDir,
		"telegram":        set(c.Telegram.Token),
		"line":            set(c.LINE.ChannelToken),
		"groq":            set(c.LLM.GroqAPIKey),
		"anthropic":       set(c.LLM.AnthropicAPIKey),
		"google":          set(c.Google.ClientID),
		"tavily":          set(c.Search.TavilyAPIKey),
		"monitor_every":   c.Monitor.Interval.String(),
	}
}
