package chats

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/storage/memory"
)

type recordingRelay struct {
	mu   sync.Mutex
	sent []*models.Message
}

func (r *recordingRelay) Dispatch(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	return nil
}

func newRouter() (*mux.Router, *memory.ConversationStore, *recordingRelay) {
	convs := memory.NewConversationStore()
	relay := &recordingRelay{}
	r := mux.NewRouter()
	RegisterChatRoutes(r, &ChatHandler{
		Conversations: convs,
		Messages:      memory.NewMessageStore(convs),
		Relay:         relay,
	})
	return r, convs, relay
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestStartOrGetDirect(t *testing.T) {
	r, _, _ := newRouter()

	rec := do(r, http.MethodPost, "/chats/direct", map[string]string{"userId": "a", "otherId": "b"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var first models.Conversation
	json.NewDecoder(rec.Body).Decode(&first)

	rec = do(r, http.MethodPost, "/chats/direct", map[string]string{"userId": "b", "otherId": "a"})
	var second models.Conversation
	json.NewDecoder(rec.Body).Decode(&second)
	if first.ID == "" || first.ID != second.ID {
		t.Fatalf("conversations %q and %q differ", first.ID, second.ID)
	}

	if rec := do(r, http.MethodPost, "/chats/direct", map[string]string{"userId": "a", "otherId": "a"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("self chat status = %d", rec.Code)
	}
	if rec := do(r, http.MethodPost, "/chats/direct", map[string]string{"otherId": "b"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing user status = %d", rec.Code)
	}
}

func TestSendAndReadMessages(t *testing.T) {
	r, convs, relay := newRouter()
	dm, _ := convs.StartOrGetDirect(context.Background(), "a", "b")
	path := "/chats/" + dm.ID + "/messages"

	rec := do(r, http.MethodPost, path, map[string]string{"senderId": "a", "content": "hey"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send status = %d: %s", rec.Code, rec.Body)
	}
	if len(relay.sent) != 1 || relay.sent[0].Content != "hey" {
		t.Fatalf("dispatched %+v", relay.sent)
	}

	if rec := do(r, http.MethodPost, path, map[string]string{"senderId": "a"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty message status = %d", rec.Code)
	}
	if rec := do(r, http.MethodPost, path, map[string]string{"senderId": "z", "content": "x"}); rec.Code != http.StatusForbidden {
		t.Fatalf("non-member send status = %d", rec.Code)
	}
	if rec := do(r, http.MethodPost, "/chats/missing/messages", map[string]string{"senderId": "a", "content": "x"}); rec.Code != http.StatusNotFound {
		t.Fatalf("missing chat status = %d", rec.Code)
	}
	if len(relay.sent) != 1 {
		t.Fatal("failed sends were dispatched")
	}

	rec = do(r, http.MethodGet, path+"?user_id=b", nil)
	var msgs []models.Message
	json.NewDecoder(rec.Body).Decode(&msgs)
	if rec.Code != http.StatusOK || len(msgs) != 1 {
		t.Fatalf("history status = %d, %d messages", rec.Code, len(msgs))
	}
	if rec := do(r, http.MethodGet, path+"?user_id=z", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("non-member history status = %d", rec.Code)
	}
}

func TestListConversations(t *testing.T) {
	r, convs, _ := newRouter()
	ctx := context.Background()
	convs.StartOrGetDirect(ctx, "a", "b")
	convs.CreateGroup(ctx, "g", "a", []string{"c"})

	rec := do(r, http.MethodGet, "/chats?user_id=a", nil)
	var list []models.Conversation
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 2 {
		t.Fatalf("a lists %d conversations", len(list))
	}

	rec = do(r, http.MethodGet, "/chats?user_id=nobody", nil)
	if rec.Code != http.StatusOK || bytes.TrimSpace(rec.Body.Bytes())[0] != '[' {
		t.Fatalf("empty list response = %d %s", rec.Code, rec.Body)
	}
}
