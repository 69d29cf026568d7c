package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/session"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/pkg/response"
)

type ctxKey int

const sessionKey ctxKey = 0

// sessionFromContext returns the session injected by requireAuth.
func sessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok
}

// requireAuth rejects requests without a valid session. API callers get a
// structured 401; browser callers are redirected to the login page.
func requireAuth(sessions SessionStore, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err == nil {
				if sess, ok := sessions.Get(cookie.Value); ok {
					ctx := context.WithValue(r.Context(), sessionKey, sess)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			if strings.Contains(r.Header.Get("Accept"), "text/html") {
				http.Redirect(w, r, loginPagePath, http.StatusFound)
				return
			}

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
		})
	}
}
