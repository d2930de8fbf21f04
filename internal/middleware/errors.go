// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// ErrorTimeLayout is the timestamp format of JSON error bodies.
const ErrorTimeLayout = "2006-01-02T15:04:05"

// ErrorBody is the JSON body of every API error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// WriteError writes an ErrorBody with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorBody{
		Error:     msg,
		Timestamp: time.Now().Format(ErrorTimeLayout),
	})
}

// isAPI reports whether the request targets the JSON API.
func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
