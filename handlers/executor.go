package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/EasterCompany/dex-athena-service/internal/llm"
	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
	"github.com/google/uuid"
)

const (
	defaultTimeout  = 30 // seconds
	promptMaxTokens = 500
	maxPluginOutput = 1 << 20
)

var ErrPluginFailed = errors.New("plugin reported failure")

// Executor runs plugin commands and records each run.
type Executor struct {
	LLM       llm.Completer
	Store     storage.Store
	PluginDir string
	HTTP      *http.Client
}

func NewExecutor(completer llm.Completer, store storage.Store, pluginDir string) *Executor {
	return &Executor{
		LLM:       completer,
		Store:     store,
		PluginDir: pluginDir,
		HTTP:      &http.Client{},
	}
}

func vars(in types.HandlerInput) map[string]string {
	return map[string]string{
		"args":    in.Args,
		"user":    in.UserName,
		"chat_id": in.ChatID,
	}
}

// Execute runs a plugin and returns its reply text.
func (e *Executor) Execute(ctx context.Context, h types.HandlerConfig, in types.HandlerInput) (string, error) {
	timeout := h.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	start := time.Now()
	reply, err := e.run(execCtx, h, in)
	if execCtx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("plugin '%s' timed out after %d seconds", h.Name, timeout)
	}
	e.record(ctx, h, in, time.Since(start), err)
	return reply, err
}

func (e *Executor) run(ctx context.Context, h types.HandlerConfig, in types.HandlerInput) (string, error) {
	switch h.Kind {
	case types.PluginKindReply:
		return templates.Interpolate(h.Reply, vars(in)), nil
	case types.PluginKindPrompt:
		return e.runPrompt(ctx, h, in)
	case types.PluginKindExec:
		return e.runExec(ctx, h, in)
	case types.PluginKindHTTP:
		return e.runHTTP(ctx, h, in)
	default:
		return "", fmt.Errorf("plugin '%s' has unknown kind '%s'", h.Name, h.Kind)
	}
}

func (e *Executor) runPrompt(ctx context.Context, h types.HandlerConfig, in types.HandlerInput) (string, error) {
	if e.LLM == nil {
		return "", fmt.Errorf("no model available for plugin '%s'", h.Name)
	}
	resp, err := e.LLM.Complete(ctx, llm.UserPrompt("", templates.Interpolate(h.Prompt, vars(in)), promptMaxTokens))
	if err != nil {
		return "", fmt.Errorf("plugin '%s' completion failed: %w", h.Name, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func decodeOutput(name string, data []byte) (string, error) {
	var out types.HandlerOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("plugin '%s' returned invalid output: %w", name, err)
	}
	if !out.Success {
		return "", fmt.Errorf("%w: %s", ErrPluginFailed, out.Error)
	}
	return out.Reply, nil
}

func (e *Executor) runExec(ctx context.Context, h types.HandlerConfig, in types.HandlerInput) (string, error) {
	input, err := json.Marshal(in)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, filepath.Join(e.PluginDir, filepath.Clean(h.Binary)))
	cmd.Dir = e.PluginDir
	cmd.Stdin = bytes.NewReader(input)
	stdout := &cappedBuffer{limit: maxPluginOutput}
	stderr := &cappedBuffer{limit: maxPluginOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("plugin '%s' exited: %w: %s", h.Name, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.overflow {
		return "", fmt.Errorf("plugin '%s' output exceeds %d bytes", h.Name, maxPluginOutput)
	}
	return decodeOutput(h.Name, stdout.Bytes())
}

// cappedBuffer keeps the first limit bytes written and drops the rest.
type cappedBuffer struct {
	bytes.Buffer
	limit    int
	overflow bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	room := c.limit - c.Len()
	if len(p) > room {
		c.overflow = true
		if room > 0 {
			c.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return c.Buffer.Write(p)
}

func (e *Executor) runHTTP(ctx context.Context, h types.HandlerConfig, in types.HandlerInput) (string, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("plugin '%s' request failed: %w", h.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPluginOutput))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("plugin '%s' returned status %d: %s", h.Name, resp.StatusCode, string(data))
	}
	return decodeOutput(h.Name, data)
}

func (e *Executor) record(ctx context.Context, h types.HandlerConfig, in types.HandlerInput, elapsed time.Duration, runErr error) {
	run := types.PluginRun{
		ID:         uuid.New().String(),
		Name:       h.Name,
		Kind:       h.Kind,
		ChatID:     in.ChatID,
		Success:    runErr == nil,
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  time.Now().Unix(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
		log.Printf("Plugins: %s failed: %v", h.Name, runErr)
	}
	if e.Store == nil {
		return
	}
	if err := storage.AppendCapped(ctx, e.Store, storage.PluginRuns, run); err != nil {
		log.Printf("Plugins: failed to record run of %s: %v", h.Name, err)
	}
	utils.SendEvent(ctx, e.Store, utils.ServiceName, templates.EventPluginExecuted, map[string]interface{}{
		"name":        run.Name,
		"kind":        run.Kind,
		"success":     run.Success,
		"duration_ms": run.DurationMS,
		"error":       run.Error,
	})
}
