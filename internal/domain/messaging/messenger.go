// Package messaging defines the outbound chat channel used to reach customers and the owner.
package messaging

import "context"

// Messenger delivers messages to a chat identity (a WhatsApp phone number).
type Messenger interface {
	// SendText sends a plain text message
	SendText(ctx context.Context, to, body string) error

	// SendImage uploads the image at filePath and sends it with an optional caption.
	// When the upload fails the recipient is told so in a text message and an
	// error is returned.
	SendImage(ctx context.Context, to, filePath, caption string) error
}
