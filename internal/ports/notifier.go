package ports

import "context"

// Notifier is the notification transport capability: send a new message or
// edit a previously sent one.
type Notifier interface {
	// SendMessage delivers text to the recipient and returns the
	// transport-assigned message identifier.
	SendMessage(ctx context.Context, chatID, text string, markdown bool) (int64, error)
	// EditMessage replaces the text of a previously sent message in place.
	EditMessage(ctx context.Context, chatID string, messageID int64, text string, markdown bool) error
}
