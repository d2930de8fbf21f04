package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// DemoSessionID is the session the development seed writes to. Open
// /chat/demo-session to see every construct the reply renderer supports.
const DemoSessionID = "demo-session"

const demoQuestion = "What can you format?"

const demoReply = "# Formatting tour\n" +
	"Replies support **bold**, __bold__, *italic*, _italic_ and `inline code`.\n" +
	"## Lists\n" +
	"- unordered item\n" +
	"- another one\n" +
	"1. first step\n" +
	"2. second step\n" +
	"> Quoted text renders as a blockquote.\n" +
	"---\n" +
	"```\nfmt.Println(\"hello\")\n```\n" +
	"Read more at [the Go site](https://go.dev)."

// Seed populates the database with a demo conversation for development.
// It does nothing when the demo session already exists.
func Seed(db *sql.DB) error {
	var exists bool
	err := db.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM conversations WHERE session_id = $1)", DemoSessionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("seed check conversations: %w", err)
	}

	if exists {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var convID int64
	if err := tx.QueryRow(
		"INSERT INTO conversations (session_id) VALUES ($1) RETURNING id", DemoSessionID,
	).Scan(&convID); err != nil {
		return fmt.Errorf("seed insert conversation: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO messages (conversation_id, content, role, timestamp)
		VALUES ($1, $2, 'user', now()), ($1, $3, 'assistant', now() + interval '1 millisecond')
	`, convID, demoQuestion, demoReply)
	if err != nil {
		return fmt.Errorf("seed insert messages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo conversation", "session_id", DemoSessionID)
	return nil
}
