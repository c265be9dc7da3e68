package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "recipe-pantry"

type claims struct {
	UserID          string           `json:"uid,omitempty"`
	Nonce           string           `json:"nonce,omitempty"`
	NonceVerifiedAt *jwt.NumericDate `json:"nva,omitempty"`
	jwt.RegisteredClaims
}

type StoreOption func(*Store)

// WithSecure controls the cookie's Secure attribute. Default true.
func WithSecure(secure bool) StoreOption {
	return func(s *Store) { s.secure = secure }
}

func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store keeps sessions entirely in an HS256-signed cookie. Load and Commit
// are the only ways a session crosses the HTTP boundary.
type Store struct {
	key        []byte
	cookieName string
	maxAge     time.Duration
	secure     bool
	now        func() time.Time
}

func NewStore(secret, cookieName string, maxAge time.Duration, opts ...StoreOption) (*Store, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	if cookieName == "" {
		return nil, errors.New("session cookie name must not be empty")
	}
	if maxAge <= 0 {
		return nil, errors.New("session max age must be positive")
	}

	s := &Store{
		key:        []byte(secret),
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) CookieName() string { return s.cookieName }

// Load reads the session out of a raw Cookie header. A missing, tampered or
// expired cookie yields a new empty session.
func (s *Store) Load(cookieHeader string) *Session {
	if cookieHeader == "" {
		return New()
	}

	r := &http.Request{Header: http.Header{"Cookie": []string{cookieHeader}}}
	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return New()
	}

	var cl claims
	_, err = jwt.ParseWithClaims(c.Value, &cl, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return New()
	}

	sess := &Session{UserID: cl.UserID, Nonce: cl.Nonce}
	if cl.NonceVerifiedAt != nil {
		t := cl.NonceVerifiedAt.Time.UTC()
		sess.NonceVerifiedAt = &t
	}
	return sess
}

// Commit signs the session and returns the Set-Cookie header value.
func (s *Store) Commit(sess *Session) (string, error) {
	now := s.now()
	cl := claims{
		UserID: sess.UserID,
		Nonce:  sess.Nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	}
	if sess.NonceVerifiedAt != nil {
		cl.NonceVerifiedAt = jwt.NewNumericDate(*sess.NonceVerifiedAt)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	c := s.cookie(signed)
	c.MaxAge = int(s.maxAge.Seconds())
	return c.String(), nil
}

// Destroy returns a Set-Cookie header value that clears the session cookie.
func (s *Store) Destroy() string {
	c := s.cookie("")
	c.MaxAge = -1
	return c.String()
}

func (s *Store) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
