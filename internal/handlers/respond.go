// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP endpoints of the chat API and the
// server-rendered transcript pages.
package handlers

import (
	"encoding/json"
	"net/http"

	"aichat/internal/middleware"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes the API's {error, timestamp} body.
func writeError(w http.ResponseWriter, status int, msg string) {
	middleware.WriteError(w, status, msg)
}
