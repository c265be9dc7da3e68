package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
	"github.com/ErlanBelekov/recipe-pantry/internal/reqctx"
	"github.com/ErlanBelekov/recipe-pantry/internal/session"
	"github.com/ErlanBelekov/recipe-pantry/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserRepo struct {
	findByID func(ctx context.Context, id string) (*domain.User, error)
}

func (r *fakeUserRepo) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id)
}

func (r *fakeUserRepo) Create(context.Context, string, string, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeUserRepo) DeleteByEmail(context.Context, string) error {
	return errors.New("not implemented")
}

// fixedLoader hands every request the same session.
type fixedLoader struct {
	sess *session.Session
}

func (l fixedLoader) Load(string) *session.Session { return l.sess }

func loggedInAs(id string) fixedLoader {
	s := session.New()
	s.SetUser(id)
	return fixedLoader{sess: s}
}

func newEngine(loader middleware.SessionLoader, guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.LoadSession(loader))
	r.GET("/protected", guard, func(c *gin.Context) {
		c.String(http.StatusOK, "%s", reqctx.UserID(c.Request.Context()))
	})
	return r
}

func serve(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	return w
}

func TestRequireLoggedIn_Anonymous_RedirectsToLogin(t *testing.T) {
	repo := &fakeUserRepo{}
	w := serve(newEngine(fixedLoader{sess: session.New()}, middleware.RequireLoggedIn(repo, slog.Default())))

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Errorf("got %d %q, want 303 /login", w.Code, w.Header().Get("Location"))
	}
}

func TestRequireLoggedIn_UserGone_RedirectsToLogin(t *testing.T) {
	repo := &fakeUserRepo{findByID: func(context.Context, string) (*domain.User, error) {
		return nil, domain.ErrUserNotFound
	}}
	w := serve(newEngine(loggedInAs("user-1"), middleware.RequireLoggedIn(repo, slog.Default())))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
}

func TestRequireLoggedIn_RepoError_Returns500(t *testing.T) {
	repo := &fakeUserRepo{findByID: func(context.Context, string) (*domain.User, error) {
		return nil, errors.New("db down")
	}}
	w := serve(newEngine(loggedInAs("user-1"), middleware.RequireLoggedIn(repo, slog.Default())))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestRequireLoggedIn_SetsUserIDOnContext(t *testing.T) {
	repo := &fakeUserRepo{findByID: func(_ context.Context, id string) (*domain.User, error) {
		return &domain.User{ID: id}, nil
	}}
	w := serve(newEngine(loggedInAs("user-1"), middleware.RequireLoggedIn(repo, slog.Default())))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "user-1" {
		t.Errorf("body = %q, want user-1", w.Body.String())
	}
}

func TestRequireLoggedOut(t *testing.T) {
	tests := []struct {
		name     string
		loader   fixedLoader
		findByID func(context.Context, string) (*domain.User, error)
		want     int
	}{
		{
			name:   "anonymous passes",
			loader: fixedLoader{sess: session.New()},
			want:   http.StatusOK,
		},
		{
			name:   "logged in redirects",
			loader: loggedInAs("user-1"),
			findByID: func(_ context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id}, nil
			},
			want: http.StatusSeeOther,
		},
		{
			name:   "stale session passes",
			loader: loggedInAs("user-1"),
			findByID: func(context.Context, string) (*domain.User, error) {
				return nil, domain.ErrUserNotFound
			},
			want: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUserRepo{findByID: tt.findByID}
			w := serve(newEngine(tt.loader, middleware.RequireLoggedOut(repo, slog.Default())))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequestID_PreservesIncomingHeader(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "%s", reqctx.RequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)

	if w.Body.String() != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("body %q header %q, want abc-123", w.Body.String(), w.Header().Get("X-Request-ID"))
	}
}
