package memory

import "github.com/Vasu1712/scenyx-chat/internal/storage"

// NewStores returns a full set of in-memory stores.
func NewStores() storage.Stores {
	conversations := NewConversationStore()
	return storage.Stores{
		Conversations: conversations,
		Messages:      NewMessageStore(conversations),
		Notifications: NewNotificationStore(),
		CallLogs:      NewCallLogStore(),
		Users:         NewUserStore(),
	}
}
