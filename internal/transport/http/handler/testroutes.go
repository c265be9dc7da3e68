package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
	"github.com/ErlanBelekov/recipe-pantry/internal/repository"
	"github.com/gin-gonic/gin"
)

// TestRoutesHandler backs the /__tests routes used by browser end-to-end
// suites. The router only mounts it outside production.
type TestRoutesHandler struct {
	users    repository.UserRepository
	sessions sessionStore
	logger   *slog.Logger
}

func NewTestRoutesHandler(users repository.UserRepository, sessions sessionStore, logger *slog.Logger) *TestRoutesHandler {
	return &TestRoutesHandler{
		users:    users,
		sessions: sessions,
		logger:   logger.With("component", "test_routes"),
	}
}

// GET /__tests/login?email=&firstName=&lastName=
// Logs in as email, creating the user first if needed.
func (h *TestRoutesHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email is required"})
		return
	}

	user, err := h.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		firstName, lastName := c.Query("firstName"), c.Query("lastName")
		if firstName == "" || lastName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "firstName and lastName are required to create a user"})
			return
		}
		user, err = h.users.Create(ctx, email, firstName, lastName)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "test login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}

	sess := h.sessions.Load(c.GetHeader("Cookie"))
	sess.SetUser(user.ID)
	sess.ClearNonce()
	sess.ClearNonceVerified()
	setCookie, err := h.sessions.Commit(sess)
	if err != nil {
		h.logger.ErrorContext(ctx, "commit session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}
	c.Header("Set-Cookie", setCookie)
	c.Redirect(http.StatusSeeOther, PathApp)
}

// GET /__tests/delete-user?email=
func (h *TestRoutesHandler) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email is required"})
		return
	}

	if err := h.users.DeleteByEmail(ctx, email); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		h.logger.ErrorContext(ctx, "test delete user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}
	c.Redirect(http.StatusSeeOther, PathHome)
}
