package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/recipe-pantry/internal/magiclink"
	"github.com/ErlanBelekov/recipe-pantry/internal/repository"
	"github.com/ErlanBelekov/recipe-pantry/internal/transport/http/handler"
	"github.com/ErlanBelekov/recipe-pantry/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type RouterConfig struct {
	// HSTS enables Strict-Transport-Security; off for plain-HTTP local runs.
	HSTS bool
	// TestRoutes mounts /__tests. Never set in production.
	TestRoutes bool
}

func NewRouter(
	cfg RouterConfig,
	logger *slog.Logger,
	sessions middleware.SessionLoader,
	userRepo repository.UserRepository,
	authHandler *handler.AuthHandler,
	appHandler *handler.AppHandler,
	testHandler *handler.TestRoutesHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(cfg.HSTS))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.NoStore())
	r.Use(middleware.LoadSession(sessions))

	loggedOut := middleware.RequireLoggedOut(userRepo, logger)
	loggedIn := middleware.RequireLoggedIn(userRepo, logger)

	r.GET(handler.PathLogin, loggedOut, authHandler.LoginPage)
	r.POST(handler.PathLogin, loggedOut, authHandler.Login)
	r.GET(magiclink.ValidatePath, authHandler.ValidateMagicLink)
	r.POST(magiclink.ValidatePath, authHandler.Signup)
	r.GET("/logout", authHandler.Logout)

	app := r.Group(handler.PathApp, loggedIn)
	app.GET("", appHandler.Home)

	if cfg.TestRoutes && testHandler != nil {
		tests := r.Group("/__tests")
		tests.GET("/login", testHandler.Login)
		tests.GET("/delete-user", testHandler.DeleteUser)
	}

	return r
}
