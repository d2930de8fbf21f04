package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// openAIProvider implements the Provider interface on top of the OpenAI
// chat completions API (POST {base}/chat/completions). OpenRouter and
// Mistral speak the same protocol and reuse it under their own names.
type openAIProvider struct {
	name   string
	config ProviderConfig
	client *http.Client
}

// newOpenAI creates a new OpenAI provider.
func newOpenAI(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return newChatCompletions("openai", cfg)
}

func newChatCompletions(name string, cfg ProviderConfig) *openAIProvider {
	return &openAIProvider{
		name:   name,
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *openAIProvider) Name() string { return p.name }

// Generate sends a chat completion request and returns the assistant's
// response text. A blank system prompt is left out of the message list.
func (p *openAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body := openAIRequest{
		Model:    p.config.Model,
		Messages: promptMessages(systemPrompt, userPrompt, true),
	}

	headers := map[string]string{"Authorization": "Bearer " + p.config.APIKey}
	for k, v := range p.config.Headers {
		headers[k] = v
	}

	var result openAIResponse
	if err := postJSON(ctx, p.client, p.name, p.config.BaseURL+"/chat/completions", headers, body, &result); err != nil {
		return "", err
	}

	// Some OpenAI-compatible gateways answer with a flat {"content": "..."}
	// instead of a choices array.
	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}
	if result.Content != "" {
		return result.Content, nil
	}

	return "", fmt.Errorf("%s: no choices returned", p.name)
}

// --- OpenAI-compatible request/response types ---

type openAIRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Content string         `json:"content,omitempty"`
}

type openAIChoice struct {
	Message chatMessage `json:"message"`
}
