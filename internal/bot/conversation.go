package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/EasterCompany/dex-athena-service/internal/classifier"
	"github.com/EasterCompany/dex-athena-service/internal/llm"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
)

const (
	chatMaxTokens   = 500
	visionMaxTokens = 500
	chatFailedText  = "❌ 對話失敗"
	photoFailedText = "❌ 圖片分析失敗"
	photoPrompt     = "請用繁體中文描述這張圖片"
)

// handleChat is the default path: a personality-driven completion that also
// feeds the token monitor, the personality, the history and the classifier.
func (b *Bot) handleChat(ctx context.Context, msg types.Message) {
	req := llm.Request{
		System:    b.Personality.SystemPrompt(),
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: msg.Text}},
		MaxTokens: chatMaxTokens,
	}
	resp, err := b.complete(ctx, "", req)
	if err != nil {
		b.fail(ctx, msg, "chat", err, chatFailedText)
		return
	}

	if err := b.Personality.Update(ctx, msg.Text, resp.Text); err != nil {
		log.Printf("Bot: failed to update personality: %v", err)
	}
	if err := b.Skills.AppendHistory(ctx, msg.Text, resp.Text, b.now()); err != nil {
		log.Printf("Bot: failed to append history: %v", err)
	}

	b.Stats.IncrementChats()
	b.reply(ctx, msg, resp.Text)
	b.classify(ctx, classifier.Detect(msg.Text), fmt.Sprintf("用户：%s\n回應：%s", msg.Text, resp.Text), "自由對話")
}

// handlePhoto sends the scaled photo and its caption to the vision model.
func (b *Bot) handlePhoto(ctx context.Context, msg types.Message) {
	img, err := utils.DownloadImageAsJPEG(ctx, msg.PhotoURL)
	if err != nil {
		b.fail(ctx, msg, "photo download", err, photoFailedText)
		return
	}

	prompt := msg.Text
	if prompt == "" {
		prompt = photoPrompt
	}
	req := llm.Request{
		System:    b.Personality.SystemPrompt(),
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt, Images: []string{img}}},
		MaxTokens: visionMaxTokens,
	}
	resp, err := b.complete(ctx, b.Config.LLM.VisionModel, req)
	if err != nil {
		b.fail(ctx, msg, "vision", err, photoFailedText)
		return
	}
	if err := b.Skills.AppendHistory(ctx, "[圖片] "+prompt, resp.Text, b.now()); err != nil {
		log.Printf("Bot: failed to append history: %v", err)
	}
	b.reply(ctx, msg, resp.Text)
	b.classify(ctx, classifier.Detect(prompt), fmt.Sprintf("用户：[圖片] %s\n回應：%s", prompt, resp.Text), "圖片對話")
}

// complete routes req to model, or to the active model when model is empty
// or not registered, and records the token usage.
func (b *Bot) complete(ctx context.Context, model string, req llm.Request) (llm.Response, error) {
	var (
		resp llm.Response
		err  error
	)
	if model != "" {
		resp, err = b.Models.CompleteWith(ctx, model, req)
		if errors.Is(err, llm.ErrUnknownModel) {
			resp, err = b.Models.Complete(ctx, req)
		}
	} else {
		resp, err = b.Models.Complete(ctx, req)
	}
	if err != nil {
		name := model
		if info, ok := b.Models.Active(); ok && name == "" {
			name = info.Name
		}
		utils.SendEvent(ctx, b.Store, utils.ServiceName, templates.EventLLMFailed, map[string]interface{}{
			"model": name,
			"error": err.Error(),
		})
		return llm.Response{}, err
	}

	if _, err := b.Tokens.Record(ctx, resp.Model, resp.PromptTokens, resp.CompletionTokens); err != nil {
		log.Printf("Bot: failed to record token usage: %v", err)
	}
	return resp, nil
}
