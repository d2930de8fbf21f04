// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// ProviderSwitcher exposes the provider registry. *ai.Registry implements it.
type ProviderSwitcher interface {
	ActiveName() string
	Available() []string
	SetActive(name string) error
}

// Providers lists and switches the active AI provider at runtime.
type Providers struct {
	registry ProviderSwitcher
}

// NewProviders creates the provider handler group.
func NewProviders(registry ProviderSwitcher) *Providers {
	return &Providers{registry: registry}
}

// ProvidersResponse is the body of both provider endpoints.
type ProvidersResponse struct {
	Active    string   `json:"active"`
	Available []string `json:"available"`
}

// Status handles GET /api/providers.
func (p *Providers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.status())
}

// SetActive handles PUT /api/providers/active with a {"provider": name}
// body.
func (p *Providers) SetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
	}
	if err := decodeJSON(w, r, &req, maxChatBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	name := strings.TrimSpace(req.Provider)
	if name == "" {
		writeError(w, http.StatusBadRequest, "No provider specified")
		return
	}

	if err := p.registry.SetActive(name); err != nil {
		slog.Warn("failed to switch AI provider", "provider", name, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot switch to %q: provider not available", name))
		return
	}

	slog.Info("ai provider switched", "provider", name)
	writeJSON(w, http.StatusOK, p.status())
}

func (p *Providers) status() ProvidersResponse {
	return ProvidersResponse{
		Active:    p.registry.ActiveName(),
		Available: p.registry.Available(),
	}
}
