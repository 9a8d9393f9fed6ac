package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/madc0w/playlister/internal/shared"
)

// OpenAIService implements [CompletionClient] with the OpenAI chat completions API.
type OpenAIService struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	configured  bool
}

// NewOpenAIService creates a completion client. httpClient may be nil.
func NewOpenAIService(creds shared.OpenAIConfig, gen shared.GeneratorConfig, httpClient *http.Client) *OpenAIService {
	config := openai.DefaultConfig(creds.APIKey)
	if creds.BaseURL != "" {
		config.BaseURL = creds.BaseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	model := gen.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIService{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: gen.Temperature,
		maxTokens:   gen.MaxTokens,
		configured:  creds.APIKey != "",
	}
}

// Configured reports whether an API key was provided.
func (o *OpenAIService) Configured() bool {
	return o.configured
}

// Complete returns the first choice's content, or "" when the model returned no choices.
func (o *OpenAIService) Complete(ctx context.Context, system, prompt string) (string, error) {
	if !o.configured {
		return "", fmt.Errorf("%w: openai api key", shared.ErrMissingCredentials)
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: chat completion (status %d): %s", shared.ErrAPIRequest, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: chat completion: %v", shared.ErrAPIRequest, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

var _ CompletionClient = (*OpenAIService)(nil)
