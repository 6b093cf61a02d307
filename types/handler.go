package types

// Plugin kinds.
const (
	PluginKindReply  = "reply"
	PluginKindPrompt = "prompt"
	PluginKindExec   = "exec"
	PluginKindHTTP   = "http"
)

// HandlerConfig defines a plugin command declared in the plugin manifest
type HandlerConfig struct {
	Name        string `json:"name" yaml:"name"`                                   // Command name, without the leading slash
	Description string `json:"description,omitempty" yaml:"description,omitempty"` // Shown in /help
	Kind        string `json:"kind" yaml:"kind"`                                   // reply, prompt, exec or http
	Reply       string `json:"reply,omitempty" yaml:"reply,omitempty"`             // Template for kind=reply
	Prompt      string `json:"prompt,omitempty" yaml:"prompt,omitempty"`           // Template for kind=prompt
	Binary      string `json:"binary,omitempty" yaml:"binary,omitempty"`           // Path relative to the plugin dir, kind=exec
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`                 // Endpoint for kind=http
	Timeout     int    `json:"timeout,omitempty" yaml:"timeout,omitempty"`         // Timeout in seconds (default: 30)
	Topic       string `json:"topic,omitempty" yaml:"topic,omitempty"`             // Topic the exchange is classified under
}

// HandlerRegistry is the parsed plugin manifest
type HandlerRegistry struct {
	Handlers []HandlerConfig `json:"handlers" yaml:"handlers"`
}

// HandlerInput is the JSON structure passed to exec and http plugins
type HandlerInput struct {
	Command   string `json:"command"`
	Args      string `json:"args"`
	ChatID    string `json:"chat_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Platform  string `json:"platform"`
	Timestamp int64  `json:"timestamp"`
}

// HandlerOutput is the expected JSON structure returned by exec and http plugins
type HandlerOutput struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PluginRun is one plugin invocation, kept in the plugin_runs collection
type PluginRun struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	ChatID     string `json:"chat_id"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Timestamp  int64  `json:"timestamp"`
}
