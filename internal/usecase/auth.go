package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
	"github.com/ErlanBelekov/recipe-pantry/internal/email"
	"github.com/ErlanBelekov/recipe-pantry/internal/metrics"
	"github.com/ErlanBelekov/recipe-pantry/internal/repository"
	"github.com/ErlanBelekov/recipe-pantry/internal/session"
	"github.com/google/uuid"
)

const (
	defaultEmailTimeout = 10 * time.Second
	// defaultSignupTTL bounds how long a verified nonce can be used to submit
	// the sign-up form.
	defaultSignupTTL = domain.MagicLinkMaxAge
)

// linkGenerator builds magic links; satisfied by *magiclink.Codec.
type linkGenerator interface {
	Generate(email, nonce string) (string, error)
}

type Outcome int

const (
	// OutcomeLoggedIn: the email belongs to a user who is now logged in.
	OutcomeLoggedIn Outcome = iota
	// OutcomeSignupRequired: the link was valid but no user exists yet.
	OutcomeSignupRequired
)

type ValidationResult struct {
	Outcome Outcome
	Email   string
	User    *domain.User // nil unless OutcomeLoggedIn
}

type AuthOption func(*AuthUsecase)

func WithClock(now func() time.Time) AuthOption {
	return func(u *AuthUsecase) { u.now = now }
}

func WithEmailTimeout(d time.Duration) AuthOption {
	return func(u *AuthUsecase) { u.emailTimeout = d }
}

func WithNonceGenerator(gen func() string) AuthOption {
	return func(u *AuthUsecase) { u.newNonce = gen }
}

type AuthUsecase struct {
	users        repository.UserRepository
	links        linkGenerator
	email        email.Sender
	logger       *slog.Logger
	emailTimeout time.Duration
	signupTTL    time.Duration
	now          func() time.Time
	newNonce     func() string
}

func NewAuthUsecase(
	users repository.UserRepository,
	links linkGenerator,
	emailSender email.Sender,
	logger *slog.Logger,
	opts ...AuthOption,
) *AuthUsecase {
	u := &AuthUsecase{
		users:        users,
		links:        links,
		email:        emailSender,
		logger:       logger.With("component", "auth_usecase"),
		emailTimeout: defaultEmailTimeout,
		signupTTL:    defaultSignupTTL,
		now:          time.Now,
		newNonce:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RequestMagicLink binds a fresh nonce to sess and emails a link carrying it.
// The caller must commit sess afterwards so the nonce reaches the browser.
func (u *AuthUsecase) RequestMagicLink(ctx context.Context, sess *session.Session, emailAddr string) error {
	nonce := u.newNonce()
	sess.SetNonce(nonce)

	link, err := u.links.Generate(emailAddr, nonce)
	if err != nil {
		return fmt.Errorf("generate magic link: %w", err)
	}
	metrics.MagicLinksIssuedTotal.Inc()

	body, err := email.RenderMagicLink(link)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, u.emailTimeout)
	defer cancel()
	if err := u.email.Send(sendCtx, emailAddr, email.MagicLinkSubject, body); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}
	return nil
}

// ValidateMagicLink checks expiry and the session nonce, then either logs the
// user in or marks sess as cleared for sign-up. On success the session nonce
// is always cleared, so a link works once. The caller commits sess.
func (u *AuthUsecase) ValidateMagicLink(ctx context.Context, sess *session.Session, p *domain.MagicLinkPayload) (*ValidationResult, error) {
	now := u.now()

	if p.Expired(now) {
		metrics.MagicLinkValidationsTotal.WithLabelValues(metrics.OutcomeExpired).Inc()
		return nil, domain.ErrExpiredLink
	}
	if sess.Nonce == "" || sess.Nonce != p.Nonce {
		metrics.MagicLinkValidationsTotal.WithLabelValues(metrics.OutcomeNonceMismatch).Inc()
		return nil, domain.ErrNonceMismatch
	}

	user, err := u.users.FindByEmail(ctx, p.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	sess.ClearNonce()

	if user == nil {
		sess.MarkNonceVerified(now)
		metrics.MagicLinkValidationsTotal.WithLabelValues(metrics.OutcomeSignupRequired).Inc()
		return &ValidationResult{Outcome: OutcomeSignupRequired, Email: p.Email}, nil
	}

	sess.SetUser(user.ID)
	sess.ClearNonceVerified()
	metrics.MagicLinkValidationsTotal.WithLabelValues(metrics.OutcomeLoggedIn).Inc()
	u.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &ValidationResult{Outcome: OutcomeLoggedIn, Email: p.Email, User: user}, nil
}

// CompleteSignup creates the user behind a validated link. It requires the
// verified stamp left by ValidateMagicLink and consumes it.
func (u *AuthUsecase) CompleteSignup(ctx context.Context, sess *session.Session, p *domain.MagicLinkPayload, firstName, lastName string) (*domain.User, error) {
	now := u.now()

	if p.Expired(now) {
		return nil, domain.ErrExpiredLink
	}
	if !sess.NonceVerifiedWithin(now, u.signupTTL) {
		return nil, domain.ErrNonceMismatch
	}

	user, err := u.users.Create(ctx, p.Email, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
	if errors.Is(err, domain.ErrUserExists) {
		// Signed up from another tab in the meantime.
		user, err = u.users.FindByEmail(ctx, p.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	sess.SetUser(user.ID)
	sess.ClearNonce()
	sess.ClearNonceVerified()
	metrics.SignupsTotal.Inc()
	u.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// CurrentUser returns the user sess is logged in as.
func (u *AuthUsecase) CurrentUser(ctx context.Context, sess *session.Session) (*domain.User, error) {
	if !sess.LoggedIn() {
		return nil, domain.ErrUserNotFound
	}
	return u.users.FindByID(ctx, sess.UserID)
}
