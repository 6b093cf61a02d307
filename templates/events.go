package templates

// Timeline event types.
const (
	EventServiceStarted   = "service.started"
	EventMessageReceived  = "message.received"
	EventMessageReplied   = "message.replied"
	EventCommandExecuted  = "command.executed"
	EventIntentDetected   = "intent.detected"
	EventPluginExecuted   = "plugin.executed"
	EventPluginsReloaded  = "plugins.reloaded"
	EventAlertRaised      = "alert.raised"
	EventModelSwitched    = "model.switched"
	EventBookingCreated   = "booking.created"
	EventGoogleAuthorized = "google.authorized"
	EventLLMFailed        = "llm.failed"
)

// GetTemplates returns all available event templates
func GetTemplates() map[string]EventTemplate {
	return map[string]EventTemplate{
		EventServiceStarted: {
			Description: "The service finished starting",
			Format:      "Athena {version} started",
			Formats:     map[string]string{"zh-TW": "雅典娜 {version} 已啟動"},
			Fields: map[string]FieldSpec{
				"version": {Type: KindString, Required: true},
			},
		},
		EventMessageReceived: {
			Description: "A message arrived from a chat platform",
			Format:      "{user} on {platform}: {text}",
			Formats:     map[string]string{"zh-TW": "{user} 在 {platform} 說：{text}"},
			Fields: map[string]FieldSpec{
				"platform": {Type: KindString, Required: true},
				"chat_id":  {Type: KindString, Required: true},
				"user":     {Type: KindString, Required: true},
				"text":     {Type: KindString, Required: true},
				"photo":    {Type: KindBoolean},
			},
		},
		EventMessageReplied: {
			Description: "The bot replied in a chat",
			Format:      "Replied on {platform}: {text}",
			Formats:     map[string]string{"zh-TW": "在 {platform} 回覆：{text}"},
			Fields: map[string]FieldSpec{
				"platform": {Type: KindString, Required: true},
				"chat_id":  {Type: KindString, Required: true},
				"text":     {Type: KindString, Required: true},
			},
		},
		EventCommandExecuted: {
			Description: "A built-in or plugin command ran",
			Format:      "{user} ran /{command}",
			Formats:     map[string]string{"zh-TW": "{user} 執行了 /{command}"},
			Fields: map[string]FieldSpec{
				"command": {Type: KindString, Required: true},
				"chat_id": {Type: KindString, Required: true},
				"user":    {Type: KindString, Required: true},
			},
		},
		EventIntentDetected: {
			Description: "Free text was routed to an intent",
			Format:      "Intent {intent} detected",
			Formats:     map[string]string{"zh-TW": "偵測到意圖 {intent}"},
			Fields: map[string]FieldSpec{
				"intent":  {Type: KindString, Required: true},
				"chat_id": {Type: KindString, Required: true},
			},
		},
		EventPluginExecuted: {
			Description: "A plugin command finished",
			Format:      "Plugin {name} ({kind}) success={success} in {duration_ms}ms",
			Formats:     map[string]string{"zh-TW": "外掛 {name} ({kind}) 成功={success}，耗時 {duration_ms}ms"},
			Fields: map[string]FieldSpec{
				"name":        {Type: KindString, Required: true},
				"kind":        {Type: KindString, Required: true},
				"success":     {Type: KindBoolean, Required: true},
				"duration_ms": {Type: KindNumber, Required: true},
				"error":       {Type: KindString},
			},
		},
		EventPluginsReloaded: {
			Description: "The plugin manifest was reloaded",
			Format:      "Loaded {count} plugins ({source})",
			Formats:     map[string]string{"zh-TW": "已載入 {count} 個外掛（{source}）"},
			Fields: map[string]FieldSpec{
				"count":  {Type: KindNumber, Required: true},
				"source": {Type: KindString, Required: true},
			},
		},
		EventAlertRaised: {
			Description: "The hardware monitor raised an alert",
			Format:      "[{severity}] {message}",
			Fields: map[string]FieldSpec{
				"alert_type": {Type: KindString, Required: true},
				"severity":   {Type: KindString, Required: true},
				"message":    {Type: KindString, Required: true},
			},
		},
		EventModelSwitched: {
			Description: "The active LLM changed",
			Format:      "Switched model to {model}",
			Formats:     map[string]string{"zh-TW": "已切換到 {model}"},
			Fields: map[string]FieldSpec{
				"model": {Type: KindString, Required: true},
			},
		},
		EventBookingCreated: {
			Description: "A course was booked over LINE",
			Format:      "{user_id} booked {course} for {date}",
			Formats:     map[string]string{"zh-TW": "{user_id} 預約了 {date} 的 {course}"},
			Fields: map[string]FieldSpec{
				"course":  {Type: KindString, Required: true},
				"user_id": {Type: KindString, Required: true},
				"date":    {Type: KindString, Required: true},
			},
		},
		EventGoogleAuthorized: {
			Description: "Google OAuth completed",
			Format:      "Google account authorized",
			Formats:     map[string]string{"zh-TW": "Google 已授權"},
			Fields:      map[string]FieldSpec{},
		},
		EventLLMFailed: {
			Description: "A completion failed",
			Format:      "Model {model} failed: {error}",
			Formats:     map[string]string{"zh-TW": "模型 {model} 失敗：{error}"},
			Fields: map[string]FieldSpec{
				"model": {Type: KindString, Required: true},
				"error": {Type: KindString, Required: true},
			},
		},
	}
}
