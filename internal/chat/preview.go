package chat

import (
	"strings"

	"github.com/Vasu1712/scenyx-chat/internal/models"
)

const previewLength = 50

// Preview is the short notification text for msg: the first 50 characters
// of its text, or a label describing its attachments when it has no text.
func Preview(msg *models.Message) string {
	text := strings.TrimSpace(msg.Content)
	if text != "" {
		runes := []rune(text)
		if len(runes) > previewLength {
			return string(runes[:previewLength]) + "..."
		}
		return text
	}

	for _, a := range msg.Attachments {
		if a.Kind == models.AttachmentImage {
			return "sent an image"
		}
	}
	if len(msg.Attachments) > 0 {
		return "sent a file"
	}
	return ""
}
