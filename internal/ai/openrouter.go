// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

// newOpenRouter creates an OpenRouter provider. OpenRouter fronts many
// models behind an OpenAI-compatible API; Model takes the vendor-prefixed
// form, e.g. "openai/gpt-4o-mini". The optional HTTP-Referer and X-Title
// headers attribute traffic to the app on openrouter.ai.
func newOpenRouter(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	return newChatCompletions("openrouter", cfg)
}

// OpenRouterHeaders builds the attribution headers for an OpenRouter config.
// Empty values are dropped when the request is sent.
func OpenRouterHeaders(referer, title string) map[string]string {
	return map[string]string{
		"HTTP-Referer": referer,
		"X-Title":      title,
	}
}
