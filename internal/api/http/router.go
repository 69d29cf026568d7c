package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/config"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/models"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/service"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/session"
)

const (
	// loginPagePath is where unauthenticated browser traffic is sent.
	loginPagePath = "/login/login.html"
	// postLoginPath is the redirect target after a successful login.
	postLoginPath = "/shortener/index.html"
)

// ShortenerService defines the core URL shortening business logic.
type ShortenerService interface {
	// Shorten returns the short link for rawURL, minting one if needed.
	Shorten(ctx context.Context, rawURL string, createdBy int64) (*models.ShortLink, error)

	// Resolve looks a short link up for redirecting and records the visit.
	Resolve(ctx context.Context, shortID string) (*models.ShortLink, error)
}

// AuthService verifies credentials against the user store.
type AuthService interface {
	Login(ctx context.Context, in service.LoginInput) (*models.User, error)
}

// SessionStore holds server-side session state keyed by cookie token.
type SessionStore interface {
	New(user *models.User) *session.Session
	Get(token string) (*session.Session, bool)
	Destroy(token string)
}

// getValidate initializes a validator instance that reports field names from
// JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes the HTTP router with all routes and middleware
// configured.
func NewRouter(logger *httplog.Logger, cfg *config.Config, shortener ShortenerService, auth AuthService, sessions SessionStore) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, loginPagePath, http.StatusFound)
	})

	r.Post("/login", handleLogin(auth, sessions, cfg))
	r.Post("/logout", handleLogout(sessions, cfg))

	r.Route("/api", func(r chi.Router) {
		r.Use(requireAuth(sessions, cfg.Session.CookieName))

		r.Post("/shorten", handleShorten(shortener, validate, cfg))
	})

	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/login/*", fs)
		r.Handle("/shortener/*", fs)
	}

	r.Get("/{shortID}", handleRedirect(shortener))

	return r
}
