package mailer

import "context"

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (+Data) or Subject with Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // signup_otp, welcome, login_notification
	Data     map[string]any `json:"data,omitempty"`
}

// Publisher enqueues jobs for the email worker
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}
