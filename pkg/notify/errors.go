package notify

import "errors"

var (
	ErrFailedToSendEmail = errors.New("failed to send email")
	ErrInvalidConfig     = errors.New("invalid notify configuration")
	ErrInvalidRecipient  = errors.New("invalid recipient email address")
	ErrEmptySubject      = errors.New("email subject is empty")
	ErrEmptyBody         = errors.New("email body is empty")
)
