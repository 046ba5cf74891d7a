package session

import "sync"

// Part is one content element of a multimodal message, matching the chat
// completions wire shape.
type Part struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an embedded image reference (a data: URL).
type ImageURL struct {
	URL string `json:"url"`
}

// Message is a single turn in the conversation. System and assistant
// messages carry one text part; user messages carry text plus an image.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"content"`
}

// TextMessage builds a text-only message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Parts: []Part{{Type: "text", Text: text}}}
}

// UserMessage builds a user turn from a question and an embedded image URL.
func UserMessage(text, imageURL string) Message {
	return Message{
		Role: "user",
		Parts: []Part{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
		},
	}
}

// Text returns the first text part, or "" if there is none.
func (m Message) Text() string {
	for _, p := range m.Parts {
		if p.Type == "text" {
			return p.Text
		}
	}
	return ""
}

// Conversation is the append-only message log shared by all sessions in a
// process run: one fixed system instruction followed by strictly alternating
// user/assistant pairs. It is never trimmed. Appends go through AppendTurn
// so overlapping sessions cannot interleave half-turns, and failed query
// turns are simply never appended.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

// NewConversation creates a conversation seeded with the system instruction.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{
		messages: []Message{TextMessage("system", systemPrompt)},
	}
}

// Snapshot returns a copy of the log, safe to extend and marshal without
// holding the lock.
func (c *Conversation) Snapshot() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// AppendTurn appends a completed user/assistant pair atomically.
func (c *Conversation) AppendTurn(user, assistant Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, user, assistant)
}

// Len returns the number of messages, including the system instruction.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
