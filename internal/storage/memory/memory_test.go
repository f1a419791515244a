package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/Vasu1712/scenyx-chat/internal/storage"
)

func TestStartOrGetDirectIsSymmetric(t *testing.T) {
	ctx := context.Background()
	s := NewConversationStore()
	first, err := s.StartOrGetDirect(ctx, "a", "b")
	if err != nil {
		t.Fatalf("StartOrGetDirect: %v", err)
	}
	second, _ := s.StartOrGetDirect(ctx, "b", "a")
	if first.ID != second.ID {
		t.Fatalf("got two conversations %s and %s for the same pair", first.ID, second.ID)
	}
	other, _ := s.StartOrGetDirect(ctx, "a", "c")
	if other.ID == first.ID {
		t.Fatal("different pair reused the conversation")
	}
	list, _ := s.ConversationsForUser(ctx, "a")
	if len(list) != 2 {
		t.Fatalf("a has %d conversations, want 2", len(list))
	}
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	s := NewConversationStore()
	g, err := s.CreateGroup(ctx, "crew", "a", []string{"b", "a", "", "c", "b"})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if len(g.Members) != 3 || g.Members[0] != "a" {
		t.Fatalf("members = %v", g.Members)
	}

	if err := s.AddMember(ctx, g.ID, "b"); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate add err = %v", err)
	}
	if err := s.AddMember(ctx, g.ID, "d"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := s.RemoveMember(ctx, g.ID, "b"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := s.RemoveMember(ctx, g.ID, "b"); !errors.Is(err, storage.ErrNotMember) {
		t.Fatalf("second remove err = %v", err)
	}
	if list, _ := s.ConversationsForUser(ctx, "b"); len(list) != 0 {
		t.Fatalf("removed member still lists %d conversations", len(list))
	}

	dm, _ := s.StartOrGetDirect(ctx, "a", "b")
	if err := s.AddMember(ctx, dm.ID, "c"); !errors.Is(err, storage.ErrNotGroup) {
		t.Fatalf("add to direct chat err = %v", err)
	}
	if err := s.AddMember(ctx, "missing", "c"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("add to missing group err = %v", err)
	}
}

func TestGetConversationReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewConversationStore()
	g, _ := s.CreateGroup(ctx, "crew", "a", []string{"b"})
	got, _ := s.GetConversation(ctx, g.ID)
	got.Members[0] = "mallory"
	again, _ := s.GetConversation(ctx, g.ID)
	if again.Members[0] != "a" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestCreateMessage(t *testing.T) {
	ctx := context.Background()
	convs := NewConversationStore()
	msgs := NewMessageStore(convs)
	dm, _ := convs.StartOrGetDirect(ctx, "a", "b")

	m, err := msgs.CreateMessage(ctx, &models.Message{ConversationID: dm.ID, SenderID: "a", Content: "hi"})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == "" || m.CreatedAt.IsZero() {
		t.Fatalf("stored message = %+v", m)
	}
	conv, _ := convs.GetConversation(ctx, dm.ID)
	if conv.LatestMessageID != m.ID {
		t.Fatalf("latest message = %q, want %q", conv.LatestMessageID, m.ID)
	}
	if got, _ := msgs.GetMessage(ctx, m.ID); got.Content != "hi" {
		t.Fatalf("GetMessage = %+v", got)
	}

	if _, err := msgs.CreateMessage(ctx, &models.Message{ConversationID: dm.ID, SenderID: "z", Content: "x"}); !errors.Is(err, storage.ErrNotMember) {
		t.Fatalf("non-member err = %v", err)
	}
	if _, err := msgs.CreateMessage(ctx, &models.Message{ConversationID: "nope", SenderID: "a"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing conversation err = %v", err)
	}
	history, _ := msgs.GetMessages(ctx, dm.ID)
	if len(history) != 1 {
		t.Fatalf("history has %d messages", len(history))
	}
}

func TestNotificationUniquePerMessageAndRecipient(t *testing.T) {
	ctx := context.Background()
	s := NewNotificationStore()
	n := &models.Notification{RecipientID: "b", MessageID: "m1", ConversationID: "c1", Type: models.NotificationTypeMessage}
	if _, err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if _, err := s.CreateNotification(ctx, n); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate err = %v", err)
	}
	n2 := *n
	n2.RecipientID = "c"
	if _, err := s.CreateNotification(ctx, &n2); err != nil {
		t.Fatalf("other recipient: %v", err)
	}
}

func TestUnreadByConversation(t *testing.T) {
	ctx := context.Background()
	s := NewNotificationStore()
	add := func(conv, msg string) {
		t.Helper()
		if _, err := s.CreateNotification(ctx, &models.Notification{RecipientID: "u", ConversationID: conv, MessageID: msg}); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	add("old", "m1")
	add("muted", "m2")
	add("busy", "m3")
	add("busy", "m4")
	add("old", "m5")
	add("read", "m6")

	if _, err := s.MarkConversationRead(ctx, "u", "read"); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}

	counts, err := s.UnreadByConversation(ctx, "u", []string{"muted"})
	if err != nil {
		t.Fatalf("UnreadByConversation: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("counts = %+v, want 2 conversations", counts)
	}
	if counts[0].ConversationID != "old" || counts[0].Count != 2 {
		t.Fatalf("first = %+v, want old/2", counts[0])
	}
	if counts[1].ConversationID != "busy" || counts[1].Count != 2 {
		t.Fatalf("second = %+v, want busy/2", counts[1])
	}

	if n, _ := s.MarkConversationRead(ctx, "u", "old"); n != 2 {
		t.Fatalf("marked %d, want 2", n)
	}
	counts, _ = s.UnreadByConversation(ctx, "u", nil)
	if len(counts) != 2 || counts[0].ConversationID != "busy" || counts[1].ConversationID != "muted" {
		t.Fatalf("counts without mutes = %+v", counts)
	}
}

func TestMutes(t *testing.T) {
	ctx := context.Background()
	s := NewConversationStore()
	dm, _ := s.StartOrGetDirect(ctx, "a", "b")
	if err := s.SetMuted(ctx, "a", dm.ID, true); err != nil {
		t.Fatalf("SetMuted: %v", err)
	}
	if err := s.SetMuted(ctx, "z", dm.ID, true); !errors.Is(err, storage.ErrNotMember) {
		t.Fatalf("outsider mute err = %v", err)
	}
	muted, _ := s.MutedConversations(ctx, "a")
	if len(muted) != 1 || muted[0] != dm.ID {
		t.Fatalf("muted = %v", muted)
	}
	s.SetMuted(ctx, "a", dm.ID, false)
	if muted, _ = s.MutedConversations(ctx, "a"); len(muted) != 0 {
		t.Fatalf("muted after unmute = %v", muted)
	}
}

func TestMembershipCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMembershipCache(time.Millisecond)
	c.Set(ctx, &models.Membership{ConversationID: "c1", Members: []string{"a"}})
	time.Sleep(5 * time.Millisecond)
	if m, err := c.Get(ctx, "c1"); m != nil || err != nil {
		t.Fatalf("expired entry returned %+v, %v", m, err)
	}

	c = NewMembershipCache(time.Minute)
	c.Set(ctx, &models.Membership{ConversationID: "c1", Members: []string{"a"}})
	if m, _ := c.Get(ctx, "c1"); m == nil || !m.Has("a") {
		t.Fatalf("cached entry = %+v", m)
	}
	c.Invalidate(ctx, "c1")
	if m, _ := c.Get(ctx, "c1"); m != nil {
		t.Fatal("entry survived Invalidate")
	}
}

func TestCallLogsForUser(t *testing.T) {
	ctx := context.Background()
	s := NewCallLogStore()
	base := time.Now()
	s.CreateCallLog(ctx, &models.CallLog{CallerID: "a", ReceiverID: "b", Status: models.CallMissed, EndedAt: base})
	s.CreateCallLog(ctx, &models.CallLog{CallerID: "b", ReceiverID: "a", Status: models.CallCompleted, EndedAt: base.Add(time.Second)})
	s.CreateCallLog(ctx, &models.CallLog{CallerID: "c", ReceiverID: "d", Status: models.CallRejected, EndedAt: base})

	logs, _ := s.CallLogsForUser(ctx, "a")
	if len(logs) != 2 || logs[0].Status != models.CallCompleted {
		t.Fatalf("logs = %+v", logs)
	}
}
