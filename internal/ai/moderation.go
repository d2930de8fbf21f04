// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// ModerationResult contains the outcome of a prompt safety check.
type ModerationResult struct {
	Safe       bool     // true if the prompt passes moderation
	Categories []string // flagged category names, sorted (empty when safe)
}

// Moderator checks chat messages for policy violations before they are
// sent to a provider.
type Moderator interface {
	// CheckSafety evaluates a text prompt and returns whether it is safe
	// to send to an AI provider. If not safe, Categories lists the reasons.
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

// postModeration sends a moderation request and decodes the JSON answer
// into out. Non-200 answers come back as *statusError.
func postModeration(ctx context.Context, client *http.Client, service, url, apiKey string, body, out any) error {
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	return postJSON(ctx, client, service+" moderation", url, headers, body, out)
}

// flaggedNames turns a category map into sorted display names:
// "hate/threatening" becomes "hate (threatening)", "self_harm" becomes "self harm".
func flaggedNames(categories map[string]bool) []string {
	var flagged []string
	for cat, isFlagged := range categories {
		if !isFlagged {
			continue
		}
		display := cat
		if strings.Contains(cat, "/") {
			display = strings.ReplaceAll(cat, "/", " (") + ")"
		}
		flagged = append(flagged, strings.ReplaceAll(display, "_", " "))
	}
	sort.Strings(flagged)
	return flagged
}

// --- OpenAI Moderation (free endpoint) ---

// openAIModerator uses the OpenAI Moderation API (POST /v1/moderations)
// which is free for all OpenAI API key holders.
type openAIModerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newOpenAIModerator(apiKey, baseURL string) *openAIModerator {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &openAIModerator{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *openAIModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	var result openAIModResponse
	body := moderationRequest{Model: "omni-moderation-latest", Input: text}
	if err := postModeration(ctx, m.client, "openai", m.baseURL+"/moderations", m.apiKey, body, &result); err != nil {
		return nil, err
	}

	if len(result.Results) == 0 || !result.Results[0].Flagged {
		return &ModerationResult{Safe: true}, nil
	}

	return &ModerationResult{
		Safe:       false,
		Categories: flaggedNames(result.Results[0].Categories),
	}, nil
}

// --- Mistral Moderation (paid, fallback) ---

// mistralModerator uses the Mistral Moderation API (POST /v1/moderations).
type mistralModerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// newMistralModerator accepts the same base URL as the chat provider
// (".../v1") and also a bare host.
func newMistralModerator(apiKey, baseURL string) *mistralModerator {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
	}
	return &mistralModerator{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *mistralModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	var result mistralModResponse
	body := moderationRequest{Model: "mistral-moderation-latest", Input: text}
	if err := postModeration(ctx, m.client, "mistral", m.baseURL+"/moderations", m.apiKey, body, &result); err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return &ModerationResult{Safe: true}, nil
	}

	// Mistral has no top-level "flagged"; any flagged category counts.
	flagged := flaggedNames(result.Results[0].Categories)
	return &ModerationResult{
		Safe:       len(flagged) == 0,
		Categories: flagged,
	}, nil
}

// --- Fallback ---

// fallbackModerator asks primary first and moves to secondary for good once
// primary rejects the credentials (project-scoped OpenAI keys cannot call
// the moderation endpoint). Other primary errors fall through per call.
type fallbackModerator struct {
	primary   Moderator
	secondary Moderator

	mu            sync.Mutex
	primaryDenied bool
}

func newFallbackModerator(primary, secondary Moderator) *fallbackModerator {
	return &fallbackModerator{primary: primary, secondary: secondary}
}

func (m *fallbackModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	m.mu.Lock()
	denied := m.primaryDenied
	m.mu.Unlock()

	if !denied {
		res, err := m.primary.CheckSafety(ctx, text)
		if err == nil {
			return res, nil
		}

		var statusErr *statusError
		if errors.As(err, &statusErr) &&
			(statusErr.status == http.StatusUnauthorized || statusErr.status == http.StatusForbidden) {
			m.mu.Lock()
			m.primaryDenied = true
			m.mu.Unlock()
			slog.Warn("primary moderation rejected credentials, using fallback", "error", err)
		} else {
			slog.Warn("primary moderation failed, trying fallback", "error", err)
		}
	}

	return m.secondary.CheckSafety(ctx, text)
}

// --- Request/Response types ---

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIModResponse struct {
	Results []openAIModResult `json:"results"`
}

type openAIModResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories"`
}

type mistralModResponse struct {
	Results []mistralModResult `json:"results"`
}

type mistralModResult struct {
	Categories map[string]bool `json:"categories"`
}
