package whatsapp

// MessagingProduct is the fixed product tag of every Cloud API payload
const MessagingProduct = "whatsapp"

// Outbound message types
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// ---------------------------------------------------------------------------
// Outbound
// ---------------------------------------------------------------------------

type outboundMessage struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textContent  `json:"text,omitempty"`
	Image            *imageContent `json:"image,omitempty"`
}

type textContent struct {
	Body string `json:"body"`
}

type imageContent struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

type mediaUploadResponse struct {
	ID string `json:"id"`
}

// SendResponse is the Cloud API answer to POST /messages
type SendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// ---------------------------------------------------------------------------
// Inbound webhook
// ---------------------------------------------------------------------------

// WebhookPayload is the envelope Meta posts to the webhook
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry groups changes for one business account
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange carries one field update
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue holds inbound messages; delivery statuses are ignored
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is a single message received from a customer
type InboundMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Messages flattens every inbound message of the payload in delivery order
func (p *WebhookPayload) Messages() []InboundMessage {
	var out []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			out = append(out, change.Value.Messages...)
		}
	}
	return out
}
