package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
	"github.com/ErlanBelekov/recipe-pantry/internal/reqctx"
	"github.com/ErlanBelekov/recipe-pantry/internal/repository"
	"github.com/ErlanBelekov/recipe-pantry/internal/session"
	"github.com/gin-gonic/gin"
)

// UserKey is the gin context key RequireLoggedIn stores the *domain.User under.
const UserKey = "user"

// SessionLoader is satisfied by *session.Store.
type SessionLoader interface {
	Load(cookieHeader string) *session.Session
}

// LoadSession decodes the session cookie once per request and stores the
// result in the request context.
func LoadSession(store SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := store.Load(c.GetHeader("Cookie"))
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))
		c.Next()
	}
}

// RequireLoggedIn sends anonymous visitors to /login. A session pointing at
// a deleted user counts as anonymous.
func RequireLoggedIn(users repository.UserRepository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess := session.FromContext(ctx)
		if sess == nil || !sess.LoggedIn() {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		user, err := users.FindByID(ctx, sess.UserID)
		if errors.Is(err, domain.ErrUserNotFound) {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		if err != nil {
			logger.ErrorContext(ctx, "load session user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		c.Set(UserKey, user)
		c.Request = c.Request.WithContext(reqctx.WithUserID(ctx, user.ID))
		c.Next()
	}
}

// RequireLoggedOut sends visitors with a live session to /app.
func RequireLoggedOut(users repository.UserRepository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess := session.FromContext(ctx)
		if sess == nil || !sess.LoggedIn() {
			c.Next()
			return
		}

		_, err := users.FindByID(ctx, sess.UserID)
		if err == nil {
			c.Redirect(http.StatusSeeOther, "/app")
			c.Abort()
			return
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			logger.WarnContext(ctx, "load session user", "error", err)
		}
		c.Next()
	}
}
