package http

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/config"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/grist"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/service"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/pkg/response"
)

// User-facing login messages, kept from the original UI language.
const (
	msgMissingCredentials = "กรุณากรอกชื่อผู้ใช้และรหัสผ่าน"
	msgBadCredentials     = "ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง"
)

// reservedSegments are path prefixes owned by other routes; the redirect
// handler must never treat them as short ids.
var reservedSegments = map[string]struct{}{
	"login":     {},
	"shortener": {},
	"api":       {},
}

// isJSONRequest reports whether the client submitted a JSON body, which also
// decides the response shape for login.
func isJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// baseURL resolves the public base of issued short links: the configured
// value wins, then forwarded headers, then the request host.
func baseURL(cfg *config.Config, r *http.Request) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}

	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}

	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}

	return scheme + "://" + host
}

// clientIP returns the caller address. middleware.RealIP has already folded
// forwarded headers into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin handles POST requests to authenticate a user.
//
// It accepts a JSON or form body. On success it establishes a session,
// sets the session cookie and tells the client where to go next. Unknown
// users and wrong passwords get the same generic message.
func handleLogin(auth AuthService, sessions SessionStore, cfg *config.Config) http.HandlerFunc {
	const op = "api.http.handleLogin"

	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest

		if isJSONRequest(r) {
			// a malformed body carries no credentials
			_ = render.DecodeJSON(r.Body, &req)
		} else {
			req.Username = r.PostFormValue("username")
			req.Password = r.PostFormValue("password")
		}

		user, err := auth.Login(r.Context(), service.LoginInput{
			Identifier: req.Username,
			Password:   req.Password,
			IP:         clientIP(r),
			UserAgent:  r.UserAgent(),
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrMissingCredentials):
				loginError(w, r, http.StatusBadRequest, msgMissingCredentials)
			case errors.Is(err, service.ErrInvalidCredentials):
				loginError(w, r, http.StatusUnauthorized, msgBadCredentials)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		sess := sessions.New(user)
		setSessionCookie(w, cfg, sess.Token, int(cfg.Session.TTL.Std().Seconds()))

		if isJSONRequest(r) {
			render.Status(r, http.StatusOK)
			render.JSON(w, r, response.LoginOK(postLoginPath))
			return
		}

		http.Redirect(w, r, postLoginPath, http.StatusSeeOther)
	}
}

func loginError(w http.ResponseWriter, r *http.Request, statusCode int, msg string) {
	if isJSONRequest(r) {
		render.Status(r, statusCode)
		render.JSON(w, r, response.LoginFailed(msg))
		return
	}

	http.Error(w, msg, statusCode)
}

// handleLogout destroys the caller's session, if any, and clears the
// cookie. Logging out without a session is not an error.
func handleLogout(sessions SessionStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(cfg.Session.CookieName); err == nil {
			sessions.Destroy(cookie.Value)
		}
		setSessionCookie(w, cfg, "", -1)

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.Login{OK: true})
	}
}

func setSessionCookie(w http.ResponseWriter, cfg *config.Config, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.Env == config.EnvProd,
	})
}

type shortenRequest struct {
	URL string `json:"url" validate:"required"`
}

// handleShorten handles POST requests to shorten a URL. Requires an
// authenticated session.
//
// Shortening the same URL again returns the existing short link instead of
// minting a new one.
func handleShorten(svc ShortenerService, validate *validator.Validate, cfg *config.Config) http.HandlerFunc {
	const op = "api.http.handleShorten"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidURLResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidURLResponse)
			return
		}

		var createdBy int64
		if sess, ok := sessionFromContext(r.Context()); ok {
			createdBy = sess.UserID
		}

		link, err := svc.Shorten(r.Context(), req.URL, createdBy)
		if err != nil {
			if errors.Is(err, service.ErrInvalidURL) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.Shorten{
			ShortURL: baseURL(cfg, r) + "/" + link.ShortID,
		})
	}
}

// handleRedirect handles GET requests on a bare short id and issues the
// redirect. The visit is counted best-effort inside the service.
func handleRedirect(svc ShortenerService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortID := chi.URLParam(r, "shortID")

		if _, reserved := reservedSegments[shortID]; reserved {
			http.NotFound(w, r)
			return
		}

		link, err := svc.Resolve(r.Context(), shortID)
		if err != nil {
			if errors.Is(err, grist.ErrNotFound) {
				http.Error(w, "Not found", http.StatusNotFound)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, link.LongURL, http.StatusFound)
	}
}
