package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/google/uuid"
)

// CallLogStore keeps finished calls in memory.
type CallLogStore struct {
	mu   sync.RWMutex
	logs []*models.CallLog
}

func NewCallLogStore() *CallLogStore {
	return &CallLogStore{}
}

func (s *CallLogStore) CreateCallLog(ctx context.Context, l *models.CallLog) (*models.CallLog, error) {
	stored := *l
	stored.ID = uuid.NewString()

	s.mu.Lock()
	s.logs = append(s.logs, &stored)
	s.mu.Unlock()

	out := stored
	return &out, nil
}

// CallLogsForUser lists calls the user took part in, most recent first.
func (s *CallLogStore) CallLogsForUser(ctx context.Context, userID string) ([]*models.CallLog, error) {
	s.mu.RLock()
	out := make([]*models.CallLog, 0)
	for _, l := range s.logs {
		if l.CallerID == userID || l.ReceiverID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	return out, nil
}
