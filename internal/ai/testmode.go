// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import "context"

// TestModeReply is what the test-mode provider answers to every prompt.
const TestModeReply = "Mock response (test mode)"

// testModeProvider stands in for a real provider configured with TestModeKey.
type testModeProvider struct{}

func newTestMode() *testModeProvider { return &testModeProvider{} }

func (p *testModeProvider) Name() string { return "mock" }

func (p *testModeProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return TestModeReply, nil
}
