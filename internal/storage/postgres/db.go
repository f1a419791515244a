// Package postgres implements the chat stores on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/storage"
	"github.com/lib/pq" // PostgreSQL driver
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	avatar     TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS conversations (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL DEFAULT '',
	is_group          BOOLEAN NOT NULL DEFAULT FALSE,
	admin_id          TEXT NOT NULL DEFAULT '',
	direct_key        TEXT UNIQUE,
	latest_message_id TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS conversation_members (
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	user_id         TEXT NOT NULL,
	joined_at       TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
	PRIMARY KEY (conversation_id, user_id)
);
CREATE INDEX IF NOT EXISTS conversation_members_user_idx ON conversation_members (user_id);

CREATE TABLE IF NOT EXISTS conversation_mutes (
	user_id         TEXT NOT NULL,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, conversation_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	sender_id       TEXT NOT NULL,
	content         TEXT NOT NULL DEFAULT '',
	attachments     JSONB NOT NULL DEFAULT '[]',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS messages_conversation_idx ON messages (conversation_id, created_at);

CREATE TABLE IF NOT EXISTS notifications (
	id              TEXT PRIMARY KEY,
	recipient_id    TEXT NOT NULL,
	sender_id       TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	message_id      TEXT NOT NULL,
	type            TEXT NOT NULL,
	content         TEXT NOT NULL DEFAULT '',
	is_read         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (message_id, recipient_id)
);
CREATE INDEX IF NOT EXISTS notifications_unread_idx ON notifications (recipient_id, is_read);

CREATE TABLE IF NOT EXISTS call_logs (
	id          TEXT PRIMARY KEY,
	caller_id   TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	status      TEXT NOT NULL,
	duration    INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS call_logs_caller_idx ON call_logs (caller_id);
CREATE INDEX IF NOT EXISTS call_logs_receiver_idx ON call_logs (receiver_id);
`

// Open connects to PostgreSQL, configures the pool and applies the schema.
func Open(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database.")
	return db, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// NewStores returns the PostgreSQL stores sharing db.
func NewStores(db *sql.DB) storage.Stores {
	return storage.Stores{
		Conversations: NewConversationStore(db),
		Messages:      NewMessageStore(db),
		Notifications: NewNotificationStore(db),
		CallLogs:      NewCallLogStore(db),
		Users:         NewUserStore(db),
	}
}
