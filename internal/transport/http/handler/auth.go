package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
	"github.com/ErlanBelekov/recipe-pantry/internal/metrics"
	"github.com/ErlanBelekov/recipe-pantry/internal/ratelimit"
	"github.com/ErlanBelekov/recipe-pantry/internal/session"
	"github.com/ErlanBelekov/recipe-pantry/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gin-gonic/gin/render"
	"github.com/go-playground/validator/v10"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestMagicLink(ctx context.Context, sess *session.Session, email string) error
	ValidateMagicLink(ctx context.Context, sess *session.Session, p *domain.MagicLinkPayload) (*usecase.ValidationResult, error)
	CompleteSignup(ctx context.Context, sess *session.Session, p *domain.MagicLinkPayload, firstName, lastName string) (*domain.User, error)
}

// payloadReader is satisfied by *magiclink.Codec.
type payloadReader interface {
	Payload(r *http.Request) (*domain.MagicLinkPayload, error)
}

type sessionStore interface {
	Load(cookieHeader string) *session.Session
	Commit(sess *session.Session) (string, error)
	Destroy() string
}

type AuthHandler struct {
	authUsecase authUsecaser
	links       payloadReader
	sessions    sessionStore
	limiter     ratelimit.Limiter
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, links payloadReader, sessions sessionStore, limiter ratelimit.Limiter, logger *slog.Logger) *AuthHandler {
	if limiter == nil {
		limiter = ratelimit.NoopLimiter{}
	}
	return &AuthHandler{
		authUsecase: authUsecase,
		links:       links,
		sessions:    sessions,
		limiter:     limiter,
		logger:      logger.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	Email string `form:"email" json:"email" binding:"required,email,max=254"`
}

type signupRequest struct {
	FirstName string `form:"firstName" json:"firstName" binding:"required,max=100"`
	LastName  string `form:"lastName"  json:"lastName"  binding:"required,max=100"`
}

// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{Template: loginTemplate, Data: loginView{}})
}

// POST /login
// Binds a fresh nonce to the caller's session and emails them a magic link.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindForm(c, &req, func() { req.Email = strings.TrimSpace(req.Email) }) {
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors(err), "email": req.Email})
		return
	}

	ctx := c.Request.Context()

	res, err := h.limiter.Allow(ctx, ratelimit.LoginKey(req.Email))
	if err != nil {
		h.logger.WarnContext(ctx, "rate limiter unavailable", "error", err)
	}
	if !res.Allowed {
		metrics.LoginRateLimitedTotal.Inc()
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{"message": errTooManyRequests})
		return
	}

	sess := h.session(c)
	if err := h.authUsecase.RequestMagicLink(ctx, sess, req.Email); err != nil {
		h.logger.ErrorContext(ctx, "request magic link", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}
	if !h.commit(c, sess) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgCheckEmail})
}

// GET /validate-magic-link?magic=<token>
// Existing users are logged in and redirected; new users get the sign-up form.
func (h *AuthHandler) ValidateMagicLink(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := h.links.Payload(c.Request)
	if err != nil {
		metrics.MagicLinkValidationsTotal.WithLabelValues(metrics.OutcomeMalformed).Inc()
		h.magicLinkError(c, err)
		return
	}

	sess := h.session(c)
	res, err := h.authUsecase.ValidateMagicLink(ctx, sess, payload)
	if err != nil {
		h.magicLinkError(c, err)
		return
	}
	if !h.commit(c, sess) {
		return
	}

	if res.Outcome == usecase.OutcomeLoggedIn {
		c.Redirect(http.StatusSeeOther, PathApp)
		return
	}
	c.Render(http.StatusOK, render.HTML{Template: signupTemplate, Data: signupView{Email: res.Email}})
}

// POST /validate-magic-link?magic=<token>
// Sign-up form submission for a first-time user.
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := h.links.Payload(c.Request)
	if err != nil {
		h.magicLinkError(c, err)
		return
	}

	var req signupRequest
	if !bindForm(c, &req, func() {
		req.FirstName = strings.TrimSpace(req.FirstName)
		req.LastName = strings.TrimSpace(req.LastName)
	}) {
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors":    fieldErrors(err),
			"firstName": req.FirstName,
			"lastName":  req.LastName,
		})
		return
	}

	sess := h.session(c)
	if _, err := h.authUsecase.CompleteSignup(ctx, sess, payload, req.FirstName, req.LastName); err != nil {
		h.magicLinkError(c, err)
		return
	}
	if !h.commit(c, sess) {
		return
	}

	c.Redirect(http.StatusSeeOther, PathApp)
}

// GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.Header("Set-Cookie", h.sessions.Destroy())
	c.JSON(http.StatusOK, gin.H{"message": msgLogoutSuccessful})
}

func (h *AuthHandler) magicLinkError(c *gin.Context, err error) {
	if domain.IsMagicLinkError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"message": errMagicLinkPrefix + magicLinkReason(err)})
		return
	}
	h.logger.ErrorContext(c.Request.Context(), "validate magic link", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
}

// magicLinkReason returns the user-facing text of the sentinel behind err,
// dropping any wrapped detail (decryption internals and the like).
func magicLinkReason(err error) string {
	for _, sentinel := range []error{
		domain.ErrMissingMagicParameter,
		domain.ErrMalformedPayload,
		domain.ErrExpiredLink,
		domain.ErrNonceMismatch,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func (h *AuthHandler) session(c *gin.Context) *session.Session {
	if sess := session.FromContext(c.Request.Context()); sess != nil {
		return sess
	}
	return h.sessions.Load(c.GetHeader("Cookie"))
}

func (h *AuthHandler) commit(c *gin.Context, sess *session.Session) bool {
	setCookie, err := h.sessions.Commit(sess)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "commit session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return false
	}
	c.Header("Set-Cookie", setCookie)
	return true
}

// bindForm decodes the body into req, then runs normalize. Validation is left
// to the caller so it sees normalized values; a malformed body is answered
// with 400 here.
func bindForm(c *gin.Context, req any, normalize func()) bool {
	err := c.ShouldBind(req)
	var verrs validator.ValidationErrors
	if err != nil && !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"form": errInvalidForm}})
		return false
	}
	normalize()
	return true
}
