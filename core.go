package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/endpoints"
	"github.com/EasterCompany/dex-athena-service/handlers"
	"github.com/EasterCompany/dex-athena-service/internal/booking"
	"github.com/EasterCompany/dex-athena-service/internal/bot"
	"github.com/EasterCompany/dex-athena-service/internal/chat"
	"github.com/EasterCompany/dex-athena-service/internal/classifier"
	"github.com/EasterCompany/dex-athena-service/internal/google"
	"github.com/EasterCompany/dex-athena-service/internal/llm"
	"github.com/EasterCompany/dex-athena-service/internal/monitor"
	"github.com/EasterCompany/dex-athena-service/internal/personality"
	"github.com/EasterCompany/dex-athena-service/internal/skills"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/internal/tokens"
	"github.com/EasterCompany/dex-athena-service/internal/web"
	"github.com/EasterCompany/dex-athena-service/services"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
)

// App is the wired runtime of the service.
type App struct {
	cfg      *config.Config
	store    storage.Store
	stats    *services.Stats
	bot      *bot.Bot
	monitor  *monitor.Monitor
	skills   *skills.Skills
	plugins  *handlers.Registry
	google   *google.Client
	telegram *chat.Telegram
	line     *chat.LINE
}

// registerModels adds every configured provider. The local Ollama model is
// always registered so the bot has a fallback.
func registerModels(cfg *config.Config, models *llm.Registry) {
	if cfg.LLM.GroqAPIKey != "" {
		models.Register(llm.ModelInfo{Name: "groq", Model: "llama-3.3-70b-versatile", Status: "✅", LatencyMS: 1200},
			llm.NewOpenAI(cfg.LLM.OpenAIBaseURL, cfg.LLM.GroqAPIKey, "llama-3.3-70b-versatile"))
	}
	if cfg.LLM.AnthropicAPIKey != "" {
		models.Register(llm.ModelInfo{Name: "anthropic", Model: cfg.LLM.AnthropicModel, Status: "✅", LatencyMS: 1500},
			llm.NewAnthropic(cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicModel))
	}
	models.Register(llm.ModelInfo{Name: "local", Model: cfg.LLM.OllamaModel, Status: "⚠️", LatencyMS: 3000},
		llm.NewOllama(cfg.LLM.OllamaURL, cfg.LLM.OllamaModel))
	if cfg.LLM.VisionModel != "" {
		models.Register(llm.ModelInfo{Name: cfg.LLM.VisionModel, Model: cfg.LLM.VisionModel, Status: "👁️", LatencyMS: 5000},
			llm.NewOllama(cfg.LLM.OllamaURL, cfg.LLM.VisionModel))
	}
}

// NewApp opens the store and builds every component from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, store: store, stats: services.NewStats()}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("Core Logic: unknown timezone %q, using local time", cfg.Timezone)
		loc = time.Local
	}

	models := llm.NewRegistry(store)
	registerModels(cfg, models)
	models.Load(ctx, cfg.LLM.DefaultModel)

	pers := personality.New(store)
	if err := pers.Load(ctx); err != nil {
		log.Printf("Personality: %v", err)
	}

	topics := classifier.New(cfg.TopicsDir, store, loc)
	if err := topics.EnsureTopicFiles(); err != nil {
		log.Printf("Classifier: %v", err)
	}

	tm := tokens.NewMonitor(store, cfg.Tokens)
	app.skills = skills.New(models, store, tm, web.NewClient(cfg.Search.TavilyAPIKey))
	app.google = google.New(cfg.Google, store, cfg.DataDir)

	app.plugins = handlers.NewRegistry(cfg.PluginFile, bot.BuiltinNames())
	if _, err := app.plugins.Reload(); err != nil {
		log.Printf("Plugins: starting with no plugins: %v", err)
	}

	senders := chat.Senders{}
	if cfg.TelegramEnabled() {
		app.telegram, err = chat.NewTelegram(cfg.Telegram.Token)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to start telegram: %w", err)
		}
		senders[types.PlatformTelegram] = app.telegram
	}
	if cfg.LINEEnabled() {
		app.line = chat.NewLINE(cfg.LINE.ChannelToken, cfg.LINE.ChannelSecret)
		senders[types.PlatformLINE] = app.line
	}

	// The monitor notifies through the bot, which is built after it.
	app.monitor = monitor.New(monitor.NewSystemCollector(cfg.Monitor.NetworkTarget), store, cfg.Monitor,
		func(ctx context.Context, text string) error { return app.bot.NotifyOwner(ctx, text) })

	app.bot = bot.New(bot.Deps{
		Config:      cfg,
		Store:       store,
		Senders:     senders,
		Models:      models,
		Tokens:      tm,
		Personality: pers,
		Classifier:  topics,
		Monitor:     app.monitor,
		Skills:      app.skills,
		Google:      app.google,
		Booking:     booking.NewService(store, loc),
		Plugins:     app.plugins,
		Executor:    handlers.NewExecutor(models, store, cfg.PluginDir),
		Stats:       app.stats,
	})
	return app, nil
}

// onPluginsReloaded records every reload on the timeline.
func (a *App) onPluginsReloaded(count int, source string, err error) {
	if err != nil {
		log.Printf("Plugins: %s reload failed: %v", source, err)
		return
	}
	utils.SendEvent(context.Background(), a.store, utils.ServiceName, templates.EventPluginsReloaded, map[string]interface{}{
		"count":  count,
		"source": source,
	})
}

// Router builds the HTTP API.
func (a *App) Router() http.Handler {
	return endpoints.NewRouter(endpoints.Deps{
		Config:   a.cfg,
		Store:    a.store,
		Stats:    a.stats,
		Monitor:  a.monitor,
		Plugins:  a.plugins,
		OnReload: a.onPluginsReloaded,
		Google:   a.google,
		Notify:   a.bot.NotifyOwner,
		LINE:     a.line,
		Handle:   a.bot.Handle,
	})
}

// RunCoreLogic runs the monitor loop, the plugin watcher and the Telegram
// poller until ctx is cancelled.
func (a *App) RunCoreLogic(ctx context.Context) error {
	go a.monitor.Run(ctx)

	go func() {
		if err := handlers.Watch(ctx, a.plugins, a.onPluginsReloaded); err != nil {
			log.Printf("Plugins: watcher stopped: %v", err)
			utils.SetHealthStatus("DEGRADED", "Plugin watcher stopped: "+err.Error())
		}
	}()

	utils.SendEvent(ctx, a.store, utils.ServiceName, templates.EventServiceStarted, map[string]interface{}{
		"version": utils.GetVersion().Str,
	})
	utils.SetHealthStatus("OK", "Service is running normally")
	log.Println("Core Logic: Initialization complete, service is healthy")

	if a.telegram == nil {
		log.Println("Core Logic: Telegram disabled, serving HTTP only")
		<-ctx.Done()
		return nil
	}

	a.bot.Announce(ctx)
	return a.telegram.Run(ctx, a.bot.Handle)
}

// Close cancels focus timers and closes the store.
func (a *App) Close() {
	a.skills.Close()
	if err := a.store.Close(); err != nil {
		log.Printf("Core Logic: failed to close store: %v", err)
	}
}

// serve runs the service until SIGINT or SIGTERM.
func serve() error {
	utils.SetHealthStatus("STARTING", "Service is starting")
	utils.SetEventCheck(templates.Check)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	go func() {
		log.Println("Core Logic: Starting...")
		if err := app.RunCoreLogic(ctx); err != nil {
			log.Printf("Core Logic Error: %v", err)
			utils.SetHealthStatus("DEGRADED", "Core logic stopped: "+err.Error())
		}
		log.Println("Core Logic: Stopped")
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting %s on :%d", utils.ServiceName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server crashed: %v", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}
	log.Println("Shutting down service...")

	utils.SetHealthStatus("SHUTTING_DOWN", "Service is shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("Service exited cleanly")
	return nil
}
