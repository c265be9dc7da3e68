package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
)

func TestMagicLinkPayload_Expired(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := &domain.MagicLinkPayload{Email: "test@example.com", Nonce: "n", CreatedAt: created}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just issued", created, false},
		{"nine minutes", created.Add(9 * time.Minute), false},
		{"exactly at expiry", created.Add(domain.MagicLinkMaxAge), false},
		{"one ms past expiry", created.Add(domain.MagicLinkMaxAge + time.Millisecond), true},
		{"eleven minutes", created.Add(11 * time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Expired(tc.now); got != tc.want {
				t.Errorf("Expired(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestIsMagicLinkError(t *testing.T) {
	wrapped := fmt.Errorf("decode: %w", domain.ErrMalformedPayload)
	if !domain.IsMagicLinkError(wrapped) {
		t.Error("wrapped ErrMalformedPayload should be a magic link error")
	}
	if domain.IsMagicLinkError(domain.ErrUserNotFound) {
		t.Error("ErrUserNotFound should not be a magic link error")
	}
}
