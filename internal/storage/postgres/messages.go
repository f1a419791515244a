package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
	"github.com/google/uuid"
)

// MessageStore implements message persistence on PostgreSQL.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// CreateMessage inserts msg if the sender belongs to the conversation and
// advances the conversation's latest message.
func (s *MessageStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	raw, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create message: %w", err)
	}
	defer tx.Rollback()

	var member bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM conversation_members WHERE conversation_id = $1 AND user_id = $2)
	`, msg.ConversationID, msg.SenderID).Scan(&member)
	if err != nil {
		return nil, fmt.Errorf("check sender membership: %w", err)
	}
	if !member {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, msg.ConversationID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check conversation: %w", err)
		}
		if !exists {
			return nil, storage.ErrNotFound
		}
		return nil, storage.ErrNotMember
	}

	stored := &models.Message{}
	var storedRaw []byte
	err = tx.QueryRowContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, attachments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, conversation_id, sender_id, content, attachments, created_at
	`, uuid.NewString(), msg.ConversationID, msg.SenderID, msg.Content, raw).Scan(
		&stored.ID, &stored.ConversationID, &stored.SenderID, &stored.Content, &storedRaw, &stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if err := json.Unmarshal(storedRaw, &stored.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversations SET latest_message_id = $2, updated_at = $3 WHERE id = $1
	`, stored.ConversationID, stored.ID, stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("update latest message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit message: %w", err)
	}

	log.Printf("Added message %s to conversation %s from sender %s", stored.ID, stored.ConversationID, stored.SenderID)
	return stored, nil
}

func (s *MessageStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	msg := &models.Message{}
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender_id, content, attachments, created_at
		FROM messages WHERE id = $1
	`, id).Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &raw, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &msg.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments of %s: %w", id, err)
	}
	return msg, nil
}

// GetMessages retrieves the history of a conversation, oldest first.
func (s *MessageStore) GetMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, content, attachments, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get messages for %s: %w", conversationID, err)
	}
	defer rows.Close()

	msgs := []*models.Message{}
	for rows.Next() {
		msg := &models.Message{}
		var raw []byte
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &raw, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message for %s: %w", conversationID, err)
		}
		if err := json.Unmarshal(raw, &msg.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments of %s: %w", msg.ID, err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages for %s: %w", conversationID, err)
	}
	return msgs, nil
}
