package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/recipe-pantry/internal/metrics"
	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

const MagicLinkSubject = "Log in to Remix Recipes!"

var magicLinkTemplate = template.Must(template.New("magic-link").Parse(
	`<div><h1>Log in to Remix Recipes</h1>` +
		`<p>Hey, there! Click the link below to finish logging in to the Remix Recipes app.</p>` +
		`<a href="{{.}}">Log In</a></div>`,
))

// RenderMagicLink returns the HTML body of the login email.
func RenderMagicLink(link string) (string, error) {
	var buf bytes.Buffer
	if err := magicLinkTemplate.Execute(&buf, link); err != nil {
		return "", fmt.Errorf("render magic link email: %w", err)
	}
	return buf.String(), nil
}

// LogSender logs emails instead of sending them. Used outside production.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "magic link email (dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API. Used in production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// instrumented records how long each send takes.
type instrumented struct {
	next Sender
	name string
}

func Instrument(next Sender, name string) Sender {
	return &instrumented{next: next, name: name}
}

func (s *instrumented) Send(ctx context.Context, to, subject, body string) error {
	start := time.Now()
	err := s.next.Send(ctx, to, subject, body)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EmailSendDuration.WithLabelValues(s.name, status).Observe(time.Since(start).Seconds())
	return err
}

// NewSender returns a ResendSender in production and a LogSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env != "production" {
		return Instrument(NewLogSender(logger.With("component", "email")), "log")
	}
	return Instrument(NewResendSender(apiKey, from), "resend")
}
