package domain

import (
	"errors"
	"time"
)

// MagicLinkMaxAge is how long an issued magic link can be redeemed.
const MagicLinkMaxAge = 10 * time.Minute

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user with this email already exists")
	ErrUnauthorized = errors.New("unauthorized")

	// Magic-link redemption failures. The error text is shown to the user.
	ErrMissingMagicParameter = errors.New("'magic' search parameter does not exist")
	ErrMalformedPayload      = errors.New("invalid magic link payload")
	ErrExpiredLink           = errors.New("the magic link has expired")
	ErrNonceMismatch         = errors.New("invalid nonce")
)

type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MagicLinkPayload is the data sealed inside a magic link. It is never stored.
type MagicLinkPayload struct {
	Email     string
	Nonce     string
	CreatedAt time.Time
}

func (p *MagicLinkPayload) ExpiresAt() time.Time {
	return p.CreatedAt.Add(MagicLinkMaxAge)
}

// Expired reports whether now is past the link's expiry. A link is still
// valid at exactly ExpiresAt.
func (p *MagicLinkPayload) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt())
}

// IsMagicLinkError reports whether err is one of the redemption failures
// that should be surfaced to the user as a 400.
func IsMagicLinkError(err error) bool {
	return errors.Is(err, ErrMissingMagicParameter) ||
		errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, ErrExpiredLink) ||
		errors.Is(err, ErrNonceMismatch)
}
