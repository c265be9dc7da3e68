// Package session holds the per-browser login state carried in a signed
// cookie: the pending magic-link nonce and, once logged in, the user ID.
package session

import (
	"context"
	"time"
)

type Session struct {
	UserID string
	Nonce  string
	// NonceVerifiedAt is stamped when a magic link for an unknown email was
	// redeemed, allowing the sign-up submission that follows.
	NonceVerifiedAt *time.Time

	isNew bool
}

func New() *Session {
	return &Session{isNew: true}
}

// IsNew reports whether the session did not come from a valid cookie.
func (s *Session) IsNew() bool { return s.isNew }

func (s *Session) LoggedIn() bool { return s.UserID != "" }

func (s *Session) SetNonce(nonce string) {
	s.Nonce = nonce
	s.NonceVerifiedAt = nil
}

func (s *Session) ClearNonce() {
	s.Nonce = ""
}

func (s *Session) MarkNonceVerified(now time.Time) {
	t := now.UTC()
	s.NonceVerifiedAt = &t
}

func (s *Session) ClearNonceVerified() {
	s.NonceVerifiedAt = nil
}

// NonceVerifiedWithin reports whether a nonce was verified no longer than
// ttl before now.
func (s *Session) NonceVerifiedWithin(now time.Time, ttl time.Duration) bool {
	if s.NonceVerifiedAt == nil {
		return false
	}
	return !now.After(s.NonceVerifiedAt.Add(ttl))
}

func (s *Session) SetUser(userID string) {
	s.UserID = userID
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
