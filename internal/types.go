package internal

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript turn. It is never modified after it has been
// appended to a history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistory struct {
	Messages []Message `json:"messages"`
}

// InputSource records how the user produced the text of an event.
type InputSource string

const (
	SourceTyped  InputSource = "typed"
	SourceSpeech InputSource = "speech"
)

// Attachment is a file handed over by a front-end. Data wins over Path when
// both are set.
type Attachment struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
	Path     string `json:"path,omitempty"`
}

// Event is what every front-end hands to the turn controller.
type Event struct {
	Text       string      `json:"text"`
	Source     InputSource `json:"source"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Reply is the single response string of an exchange.
type Reply struct {
	Text     string `json:"response"`
	Empty    bool   `json:"-"`
	Fallback bool   `json:"-"`
}

type AskResponse struct {
	Response string `json:"response"`
}

type ModelResponse struct {
	Model string `json:"model"`
}
