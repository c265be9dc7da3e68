package handler

import (
	"net/http"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
	"github.com/ErlanBelekov/recipe-pantry/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type AppHandler struct{}

func NewAppHandler() *AppHandler {
	return &AppHandler{}
}

// GET /app
func (h *AppHandler) Home(c *gin.Context) {
	user, ok := c.Get(middleware.UserKey)
	if !ok {
		c.Redirect(http.StatusSeeOther, PathLogin)
		return
	}
	u := user.(*domain.User)
	c.JSON(http.StatusOK, gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
	})
}
