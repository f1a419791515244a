package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// NotificationStore implements notification persistence on PostgreSQL.
type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// CreateNotification inserts n as unread. The (message, recipient) pair is
// unique; a duplicate returns storage.ErrConflict.
func (s *NotificationStore) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	out := &models.Notification{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, recipient_id, sender_id, conversation_id, message_id, type, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, recipient_id, sender_id, conversation_id, message_id, type, content, is_read, created_at
	`, uuid.NewString(), n.RecipientID, n.SenderID, n.ConversationID, n.MessageID, n.Type, n.Content).Scan(
		&out.ID, &out.RecipientID, &out.SenderID, &out.ConversationID, &out.MessageID,
		&out.Type, &out.Content, &out.IsRead, &out.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, storage.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert notification for %s: %w", n.RecipientID, err)
	}
	return out, nil
}

// NotificationsForUser lists a user's notifications, newest first.
func (s *NotificationStore) NotificationsForUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient_id, sender_id, conversation_id, message_id, type, content, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	out := []*models.Notification{}
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.ConversationID, &n.MessageID,
			&n.Type, &n.Content, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification for %s: %w", userID, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadByConversation counts unread notifications per conversation for
// userID, skipping muted conversations, most recent first.
func (s *NotificationStore) UnreadByConversation(ctx context.Context, userID string, muted []string) ([]models.UnreadCount, error) {
	if muted == nil {
		muted = []string{}
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id, COUNT(*), MAX(created_at) AS latest
		FROM notifications
		WHERE recipient_id = $1 AND is_read = FALSE AND NOT (conversation_id = ANY($2))
		GROUP BY conversation_id
		ORDER BY latest DESC, conversation_id
	`, userID, pq.Array(muted))
	if err != nil {
		return nil, fmt.Errorf("aggregate unread for %s: %w", userID, err)
	}
	defer rows.Close()

	out := []models.UnreadCount{}
	for rows.Next() {
		var c models.UnreadCount
		if err := rows.Scan(&c.ConversationID, &c.Count, &c.LatestAt); err != nil {
			return nil, fmt.Errorf("scan unread for %s: %w", userID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkConversationRead marks every unread notification of a conversation as read.
func (s *NotificationStore) MarkConversationRead(ctx context.Context, userID, conversationID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE recipient_id = $1 AND conversation_id = $2 AND is_read = FALSE
	`, userID, conversationID)
	if err != nil {
		return 0, fmt.Errorf("mark %s read for %s: %w", conversationID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark %s read for %s: %w", conversationID, userID, err)
	}
	return int(n), nil
}
