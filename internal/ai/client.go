// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// statusError is returned when a provider endpoint answers with a non-200
// status. The fallback moderator switches on 401 and 403.
type statusError struct {
	op     string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.op, e.status, e.body)
}

// postJSON sends in as a JSON POST to url and decodes a 200 answer into out.
// Headers with an empty value are not sent. op names the call in every
// error, e.g. "claude" or "openai moderation".
func postJSON(ctx context.Context, client *http.Client, op, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s marshal: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s http: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s read body: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return &statusError{op: op, status: resp.StatusCode, body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s unmarshal: %w", op, err)
	}
	return nil
}

// chatMessage is one role-tagged turn. The OpenAI-compatible and Anthropic
// message APIs share this shape.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// systemText returns the system prompt to send, or "" when it is blank.
// Every provider leaves a blank system prompt out of the request.
func systemText(systemPrompt string) string {
	if strings.TrimSpace(systemPrompt) == "" {
		return ""
	}
	return systemPrompt
}

// promptMessages builds the turns of a single-turn chat. With inlineSystem
// a non-blank system prompt leads the list as a "system" turn; otherwise the
// caller sends it in a field of its own.
func promptMessages(systemPrompt, userPrompt string, inlineSystem bool) []chatMessage {
	msgs := make([]chatMessage, 0, 2)
	if sys := systemText(systemPrompt); inlineSystem && sys != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: sys})
	}
	return append(msgs, chatMessage{Role: "user", Content: userPrompt})
}
