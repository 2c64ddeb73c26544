package notify

import (
	"context"
	"regexp"
)

// Sender delivers a single email.
type Sender interface {
	SendEmail(ctx context.Context, msg Message) error
}

// Message is one outbound email.
type Message struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks the message is deliverable before it reaches a provider.
func (m Message) Validate() error {
	if !emailRegex.MatchString(m.SendTo) {
		return ErrInvalidRecipient
	}
	if m.Subject == "" {
		return ErrEmptySubject
	}
	if m.BodyHTML == "" {
		return ErrEmptyBody
	}
	return nil
}
