package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/google/uuid"
)

// CallLogStore implements call history persistence on PostgreSQL.
type CallLogStore struct {
	db *sql.DB
}

func NewCallLogStore(db *sql.DB) *CallLogStore {
	return &CallLogStore{db: db}
}

func (s *CallLogStore) CreateCallLog(ctx context.Context, l *models.CallLog) (*models.CallLog, error) {
	out := *l
	out.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO call_logs (id, caller_id, receiver_id, status, duration, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, out.ID, out.CallerID, out.ReceiverID, out.Status, out.Duration, out.StartedAt, out.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("insert call log %s -> %s: %w", l.CallerID, l.ReceiverID, err)
	}
	return &out, nil
}

// CallLogsForUser lists calls the user took part in, most recent first.
func (s *CallLogStore) CallLogsForUser(ctx context.Context, userID string) ([]*models.CallLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, caller_id, receiver_id, status, duration, started_at, ended_at
		FROM call_logs
		WHERE caller_id = $1 OR receiver_id = $1
		ORDER BY ended_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list call logs for %s: %w", userID, err)
	}
	defer rows.Close()

	out := []*models.CallLog{}
	for rows.Next() {
		l := &models.CallLog{}
		if err := rows.Scan(&l.ID, &l.CallerID, &l.ReceiverID, &l.Status, &l.Duration, &l.StartedAt, &l.EndedAt); err != nil {
			return nil, fmt.Errorf("scan call log for %s: %w", userID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
