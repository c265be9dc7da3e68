// Package magiclink builds and reads the encrypted login links that are
// emailed to users. A link carries {email, nonce, createdAt} sealed with the
// server's secret; checking expiry and nonce is left to the caller.
package magiclink

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	// ValidatePath is the route that redeems a magic link.
	ValidatePath = "/validate-magic-link"
	// QueryParam carries the encrypted payload.
	QueryParam = "magic"

	// Same shape as JavaScript's Date.toISOString.
	createdAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

// wirePayload is the JSON sealed inside the token.
type wirePayload struct {
	Email     string `json:"email"     validate:"required,email"`
	Nonce     string `json:"nonce"     validate:"required"`
	CreatedAt string `json:"createdAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

type Option func(*Codec)

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

type Codec struct {
	cipher   *Cipher
	origin   *url.URL
	validate *validator.Validate
	now      func() time.Time
}

// NewCodec fails if secret or origin are missing so that misconfiguration
// surfaces at startup instead of on the first login.
func NewCodec(secret, origin string, opts ...Option) (*Codec, error) {
	c, err := NewCipher(secret)
	if err != nil {
		return nil, err
	}
	if origin == "" {
		return nil, errors.New("origin must not be empty")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("origin %q must be an absolute URL", origin)
	}

	codec := &Codec{
		cipher:   c,
		origin:   u,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Generate returns the absolute URL a user follows to log in as email.
func (c *Codec) Generate(email, nonce string) (string, error) {
	token, err := c.Encode(&domain.MagicLinkPayload{
		Email:     email,
		Nonce:     nonce,
		CreatedAt: c.now(),
	})
	if err != nil {
		return "", err
	}

	u := *c.origin
	u.Path = ValidatePath
	u.RawPath = ""
	u.Fragment = ""
	q := url.Values{}
	q.Set(QueryParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Codec) Encode(p *domain.MagicLinkPayload) (string, error) {
	raw, err := json.Marshal(wirePayload{
		Email:     p.Email,
		Nonce:     p.Nonce,
		CreatedAt: p.CreatedAt.UTC().Format(createdAtLayout),
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	token, err := c.cipher.Encrypt(raw)
	if err != nil {
		return "", fmt.Errorf("encrypt payload: %w", err)
	}
	return token, nil
}

// Payload reads the magic parameter off r and decodes it. Expiry and nonce
// are not checked here.
func (c *Codec) Payload(r *http.Request) (*domain.MagicLinkPayload, error) {
	values := r.URL.Query()
	if !values.Has(QueryParam) {
		return nil, domain.ErrMissingMagicParameter
	}
	return c.Decode(values.Get(QueryParam))
}

// Decode decrypts token and checks the payload shape. Every failure wraps
// domain.ErrMalformedPayload.
func (c *Codec) Decode(token string) (*domain.MagicLinkPayload, error) {
	raw, err := c.cipher.Decrypt(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}

	var wire wirePayload
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if err := c.validate.Struct(wire); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}

	createdAt, err := time.Parse(time.RFC3339, wire.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}

	return &domain.MagicLinkPayload{
		Email:     wire.Email,
		Nonce:     wire.Nonce,
		CreatedAt: createdAt,
	}, nil
}
