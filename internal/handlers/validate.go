package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"aichat/internal/chat"
)

// Request limits for JSON bodies.
const (
	maxChatBodyBytes   = 64 << 10
	maxRenderBodyBytes = 1 << 20
	maxRenderTextLen   = 100_000
)

// decodeJSON reads a single JSON object from the request body into dst.
// The returned error is safe to show to the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errors.New("request body is too large")
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return errors.New("request body is not valid JSON")
		}
	}
	return nil
}

// validationMessage strips the sentinel prefix from a chat validation error
// so the client sees only the reason.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), chat.ErrInvalidRequest.Error()+": ")
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// validateRenderText checks the text of a render request.
func validateRenderText(text string) string {
	if utf8.RuneCountInString(text) > maxRenderTextLen {
		return "Text is too long (max 100,000 characters)."
	}
	return ""
}
