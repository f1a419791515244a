package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ConversationStore implements conversation persistence on PostgreSQL.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// directKey orders the pair so the UNIQUE constraint matches either direction.
func directKey(user1, user2 string) string {
	pair := []string{user1, user2}
	sort.Strings(pair)
	return pair[0] + ":" + pair[1]
}

// StartOrGetDirect finds the one-to-one conversation between two users or creates it.
func (s *ConversationStore) StartOrGetDirect(ctx context.Context, user1, user2 string) (*models.Conversation, error) {
	key := directKey(user1, user2)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin direct conversation: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, direct_key) VALUES ($1, $2)
		ON CONFLICT (direct_key) DO NOTHING
	`, id, key)
	if err != nil {
		return nil, fmt.Errorf("insert direct conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversation_members (conversation_id, user_id)
			VALUES ($1, $2), ($1, $3)
		`, id, user1, user2)
		if err != nil {
			return nil, fmt.Errorf("insert direct members: %w", err)
		}
		log.Printf("Created new direct conversation: %s between %s and %s", id, user1, user2)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit direct conversation: %w", err)
	}

	var existing string
	err = s.db.QueryRowContext(ctx, `SELECT id FROM conversations WHERE direct_key = $1`, key).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("lookup direct conversation: %w", err)
	}
	return s.GetConversation(ctx, existing)
}

// CreateGroup inserts a group conversation with the admin as first member.
func (s *ConversationStore) CreateGroup(ctx context.Context, name, adminID string, members []string) (*models.Conversation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create group: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, name, is_group, admin_id) VALUES ($1, $2, TRUE, $3)
	`, id, name, adminID)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}

	all := append([]string{adminID}, members...)
	for _, userID := range all {
		if userID == "" {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversation_members (conversation_id, user_id) VALUES ($1, $2)
			ON CONFLICT (conversation_id, user_id) DO NOTHING
		`, id, userID)
		if err != nil {
			return nil, fmt.Errorf("insert group member %s: %w", userID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create group: %w", err)
	}

	log.Printf("Group created in DB: ID=%s, Name=%s, AdminID=%s", id, name, adminID)
	return s.GetConversation(ctx, id)
}

// GetConversation loads a conversation with its members in join order.
func (s *ConversationStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.is_group, c.admin_id, c.latest_message_id, c.created_at, c.updated_at,
			COALESCE(ARRAY(
				SELECT m.user_id FROM conversation_members m
				WHERE m.conversation_id = c.id
				ORDER BY m.joined_at, m.user_id
			), '{}')
		FROM conversations c
		WHERE c.id = $1
	`, id).Scan(
		&conv.ID, &conv.Name, &conv.IsGroup, &conv.AdminID, &conv.LatestMessageID,
		&conv.CreatedAt, &conv.UpdatedAt, pq.Array(&conv.Members),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return conv, nil
}

// ConversationsForUser lists a user's conversations, most recently active first.
func (s *ConversationStore) ConversationsForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.is_group, c.admin_id, c.latest_message_id, c.created_at, c.updated_at,
			COALESCE(ARRAY(
				SELECT m.user_id FROM conversation_members m
				WHERE m.conversation_id = c.id
				ORDER BY m.joined_at, m.user_id
			), '{}')
		FROM conversations c
		JOIN conversation_members me ON me.conversation_id = c.id AND me.user_id = $1
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations for %s: %w", userID, err)
	}
	defer rows.Close()

	convs := []*models.Conversation{}
	for rows.Next() {
		conv := &models.Conversation{}
		if err := rows.Scan(
			&conv.ID, &conv.Name, &conv.IsGroup, &conv.AdminID, &conv.LatestMessageID,
			&conv.CreatedAt, &conv.UpdatedAt, pq.Array(&conv.Members),
		); err != nil {
			return nil, fmt.Errorf("scan conversation for %s: %w", userID, err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations for %s: %w", userID, err)
	}
	return convs, nil
}

func (s *ConversationStore) requireGroup(ctx context.Context, conversationID string) error {
	var isGroup bool
	err := s.db.QueryRowContext(ctx, `SELECT is_group FROM conversations WHERE id = $1`, conversationID).Scan(&isGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get conversation %s: %w", conversationID, err)
	}
	if !isGroup {
		return storage.ErrNotGroup
	}
	return nil
}

// AddMember adds userID to a group.
func (s *ConversationStore) AddMember(ctx context.Context, conversationID, userID string) error {
	if err := s.requireGroup(ctx, conversationID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_members (conversation_id, user_id) VALUES ($1, $2)
	`, conversationID, userID)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("add member %s to %s: %w", userID, conversationID, err)
	}
	s.touch(ctx, conversationID)
	log.Printf("User %s added to group %s", userID, conversationID)
	return nil
}

// RemoveMember removes userID from a group.
func (s *ConversationStore) RemoveMember(ctx context.Context, conversationID, userID string) error {
	if err := s.requireGroup(ctx, conversationID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM conversation_members WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("remove member %s from %s: %w", userID, conversationID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotMember
	}
	s.touch(ctx, conversationID)
	log.Printf("User %s removed from group %s", userID, conversationID)
	return nil
}

func (s *ConversationStore) touch(ctx context.Context, conversationID string) {
	_, err := s.db.ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID)
	if err != nil {
		log.Printf("Error updating conversation %s timestamp: %v", conversationID, err)
	}
}

// SetMuted mutes or unmutes a conversation for one member.
func (s *ConversationStore) SetMuted(ctx context.Context, userID, conversationID string, muted bool) error {
	var member bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM conversation_members WHERE conversation_id = $1 AND user_id = $2)
	`, conversationID, userID).Scan(&member)
	if err != nil {
		return fmt.Errorf("check membership of %s in %s: %w", userID, conversationID, err)
	}
	if !member {
		if _, err := s.GetConversation(ctx, conversationID); err != nil {
			return err
		}
		return storage.ErrNotMember
	}

	if muted {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO conversation_mutes (user_id, conversation_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, userID, conversationID)
	} else {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM conversation_mutes WHERE user_id = $1 AND conversation_id = $2
		`, userID, conversationID)
	}
	if err != nil {
		return fmt.Errorf("set muted %s/%s: %w", userID, conversationID, err)
	}
	return nil
}

// MutedConversations returns the conversation ids userID has muted.
func (s *ConversationStore) MutedConversations(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id FROM conversation_mutes WHERE user_id = $1 ORDER BY conversation_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list mutes for %s: %w", userID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan mute for %s: %w", userID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TouchLatest records messageID as the latest message of the conversation.
func (s *ConversationStore) TouchLatest(ctx context.Context, conversationID, messageID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET latest_message_id = $2, updated_at = $3 WHERE id = $1
	`, conversationID, messageID, at)
	if err != nil {
		return fmt.Errorf("touch conversation %s: %w", conversationID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
