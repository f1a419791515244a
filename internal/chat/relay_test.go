package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/Vasu1712/scenyx-chat/internal/models"
)

func fixtures() staticConversations {
	return staticConversations{
		"group": {ID: "group", Name: "Friends", IsGroup: true, Members: []string{"A", "B", "C"}, AdminID: "A"},
		"dm":    {ID: "dm", Members: []string{"A", "B"}},
	}
}

func TestDispatchGroupNotifiesEachOtherMemberOnce(t *testing.T) {
	hub := newFakeHub("A", "B", "C")
	hub.roomSize = 2
	store := &recordingNotifications{}
	relay := NewRelay(hub, NewResolver(fixtures(), nil), store, staticProfiles{"A": {ID: "A", Name: "Ann"}}, nil)

	msg := &models.Message{ID: "m1", ConversationID: "group", SenderID: "A", Content: "hello"}
	if err := relay.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	got := store.recipients()
	if len(got) != 2 || got[0] != "B" || got[1] != "C" {
		t.Fatalf("notifications created for %v, want [B C]", got)
	}
	if len(hub.rooms) != 1 || hub.rooms[0].roomID != "group" || hub.rooms[0].except != "A" {
		t.Fatalf("room sends = %+v", hub.rooms)
	}
	if m := hub.rooms[0].members; len(m) != 3 || m[0] != "A" || m[1] != "B" || m[2] != "C" {
		t.Fatalf("room send limited to %v, want the resolved members", m)
	}
	if n := len(hub.sentTo("A", EventNewNotification)); n != 0 {
		t.Fatalf("sender got %d notifications", n)
	}

	pushes := hub.sentTo("B", EventNewNotification)
	if len(pushes) != 1 {
		t.Fatalf("B got %d notification pushes, want 1", len(pushes))
	}
	push := pushes[0].payload.(NotificationPush)
	if push.ChatID != "group" || push.Notification.Sender == nil || push.Notification.Sender.Name != "Ann" {
		t.Fatalf("push = %+v", push)
	}
	if push.Notification.Conversation == nil || !push.Notification.Conversation.IsGroup {
		t.Fatalf("push conversation = %+v", push.Notification.Conversation)
	}
	if push.Notification.Content != "hello" {
		t.Fatalf("preview = %q", push.Notification.Content)
	}
}

func TestDispatchDirectToOfflineRecipient(t *testing.T) {
	hub := newFakeHub("A")
	store := &recordingNotifications{}
	relay := NewRelay(hub, NewResolver(fixtures(), nil), store, nil, nil)

	msg := &models.Message{ID: "m1", ConversationID: "dm", SenderID: "A", Content: "are you there?"}
	if err := relay.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(hub.sends) != 0 {
		t.Fatalf("offline recipient got live pushes: %+v", hub.sends)
	}
	if got := store.recipients(); len(got) != 1 || got[0] != "B" {
		t.Fatalf("notifications created for %v, want [B]", got)
	}
}

func TestDispatchDirectToOnlineRecipient(t *testing.T) {
	hub := newFakeHub("A", "B")
	relay := NewRelay(hub, NewResolver(fixtures(), nil), &recordingNotifications{}, nil, nil)

	msg := &models.Message{ID: "m1", ConversationID: "dm", SenderID: "A", Content: "hi"}
	if err := relay.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if n := len(hub.sentTo("B", EventMessageReceived)); n != 1 {
		t.Fatalf("B got %d messages, want 1", n)
	}
	if n := len(hub.sentTo("A", EventMessageReceived)); n != 0 {
		t.Fatalf("sender got its own message %d times", n)
	}
	if len(hub.rooms) != 0 {
		t.Fatal("direct message went through a room")
	}
}

func TestDispatchIsolatesRecipientFailures(t *testing.T) {
	hub := newFakeHub("A", "B", "C")
	store := &recordingNotifications{failFor: map[string]bool{"B": true}}
	relay := NewRelay(hub, NewResolver(fixtures(), nil), store, nil, nil)

	msg := &models.Message{ID: "m1", ConversationID: "group", SenderID: "A", Content: "x"}
	if err := relay.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("Dispatch returned %v, want nil despite one failing recipient", err)
	}
	if got := store.recipients(); len(got) != 1 || got[0] != "C" {
		t.Fatalf("notifications created for %v, want [C]", got)
	}
	if n := len(hub.sentTo("C", EventNewNotification)); n != 1 {
		t.Fatalf("C got %d pushes, want 1", n)
	}
}

func TestDispatchOnlyOncePerMessage(t *testing.T) {
	hub := newFakeHub("A", "B")
	store := &recordingNotifications{}
	relay := NewRelay(hub, NewResolver(fixtures(), nil), store, nil, nil)

	msg := &models.Message{ID: "m1", ConversationID: "dm", SenderID: "A", Content: "x"}
	if err := relay.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	if err := relay.Dispatch(context.Background(), msg); !errors.Is(err, ErrAlreadyDispatched) {
		t.Fatalf("second Dispatch err = %v, want ErrAlreadyDispatched", err)
	}
	if n := len(store.recipients()); n != 1 {
		t.Fatalf("%d notifications created, want 1", n)
	}
}

func TestDispatchRejectsNonMemberAndAllowsRetry(t *testing.T) {
	convs := fixtures()
	hub := newFakeHub("A", "B", "D")
	store := &recordingNotifications{}
	relay := NewRelay(hub, NewResolver(convs, nil), store, nil, nil)

	msg := &models.Message{ID: "m1", ConversationID: "dm", SenderID: "D", Content: "x"}
	if err := relay.Dispatch(context.Background(), msg); !errors.Is(err, ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}
	if len(store.recipients()) != 0 || len(hub.sends) != 0 {
		t.Fatal("rejected message produced side effects")
	}

	if err := relay.Dispatch(context.Background(), &models.Message{ID: "m1"}); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("err = %v, want ErrInvalidMessage", err)
	}

	convs["dm"].Members = append(convs["dm"].Members, "D")
	if err := relay.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestTypingNeverReachesSender(t *testing.T) {
	hub := newFakeHub("A", "B", "C")
	relay := NewRelay(hub, NewResolver(fixtures(), nil), &recordingNotifications{}, nil, nil)

	if err := relay.Typing(context.Background(), "group", "A", true); err != nil {
		t.Fatalf("Typing: %v", err)
	}
	if err := relay.Typing(context.Background(), "group", "A", false); err != nil {
		t.Fatalf("stop Typing: %v", err)
	}

	if n := len(hub.sentTo("A", EventTyping)) + len(hub.sentTo("A", EventStopTyping)); n != 0 {
		t.Fatalf("sender received %d typing events", n)
	}
	for _, u := range []string{"B", "C"} {
		starts, stops := hub.sentTo(u, EventTyping), hub.sentTo(u, EventStopTyping)
		if len(starts) != 1 || len(stops) != 1 {
			t.Fatalf("%s got %d typing / %d stop typing, want 1/1", u, len(starts), len(stops))
		}
		p := starts[0].payload.(TypingPayload)
		if p.UserID != "A" || p.ConversationID != "group" {
			t.Fatalf("payload = %+v", p)
		}
	}

	if err := relay.Typing(context.Background(), "group", "Z", true); !errors.Is(err, ErrNotMember) {
		t.Fatalf("typing from non-member err = %v", err)
	}
}
