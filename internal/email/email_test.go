package email_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ErlanBelekov/recipe-pantry/internal/email"
	"github.com/ErlanBelekov/recipe-pantry/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type failingSender struct{ err error }

func (s *failingSender) Send(context.Context, string, string, string) error { return s.err }

func TestRenderMagicLink_EmbedsEscapedLink(t *testing.T) {
	link := "http://localhost:8080/validate-magic-link?magic=abc&x=1"

	body, err := email.RenderMagicLink(link)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, `href="http://localhost:8080/validate-magic-link?magic=abc&amp;x=1"`) {
		t.Errorf("body does not contain escaped link: %s", body)
	}
	if !strings.Contains(body, "Log In") {
		t.Errorf("body missing call to action: %s", body)
	}
}

func TestLogSender_LogsInsteadOfSending(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := email.NewLogSender(logger).Send(context.Background(), "test@example.com", "subject", "http://link")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"test@example.com", "http://link"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestNewSender_NonProductionLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	for _, env := range []string{"local", "staging"} {
		buf.Reset()
		s := email.NewSender(env, "", "", logger)
		if err := s.Send(context.Background(), "test@example.com", "s", "b"); err != nil {
			t.Fatalf("%s: unexpected error: %v", env, err)
		}
		if !strings.Contains(buf.String(), "test@example.com") {
			t.Errorf("%s: expected the email to be logged", env)
		}
	}
}

func TestInstrument_PropagatesErrorAndObserves(t *testing.T) {
	sendErr := errors.New("provider down")
	s := email.Instrument(&failingSender{err: sendErr}, "test-failing")

	if err := s.Send(context.Background(), "a@b.c", "s", "b"); !errors.Is(err, sendErr) {
		t.Fatalf("want sendErr, got %v", err)
	}

	if n := testutil.CollectAndCount(metrics.EmailSendDuration, "recipes_email_send_duration_seconds"); n == 0 {
		t.Error("expected at least one email duration series")
	}
}
