package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	domain "github.com/ericlunden/foodlab-core/internal/domain/analysis"
	"github.com/ericlunden/foodlab-core/internal/infra/ai/prompt"
)

const maxTokens = 1024

type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// AnalyzeText asks the model for a nutritional analysis of a named food.
func (c *Client) AnalyzeText(ctx context.Context, foodName string) (domain.RawAnalysis, error) {
	msg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.GetUserPrompt(foodName),
	}
	return c.analyze(ctx, msg)
}

// AnalyzeImage asks the model for a nutritional analysis of a food photo.
// The image travels inline as a data URL; the raw bytes are what the cache
// key was derived from, so nothing is resized or re-encoded here.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte) (domain.RawAnalysis, error) {
	dataURL := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(image))
	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt.GetImagePrompt()},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL,
				Detail: openai.ImageURLDetailAuto,
			}},
		},
	}
	return c.analyze(ctx, msg)
}

func (c *Client) analyze(ctx context.Context, userMsg openai.ChatCompletionMessage) (domain.RawAnalysis, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			userMsg,
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			err = fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
		}
		return domain.RawAnalysis{}, &domain.ProviderError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return domain.RawAnalysis{}, &domain.ProviderError{Op: "chat completion", Err: errors.New("empty response")}
	}

	raw, err := prompt.ParseAnalysis(resp.Choices[0].Message.Content, time.Now())
	if err != nil {
		return domain.RawAnalysis{}, &domain.ProviderError{Op: "parse response", Err: err}
	}
	return raw, nil
}
