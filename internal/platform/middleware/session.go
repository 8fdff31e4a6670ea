package middleware

import (
	"net/http"
	"time"

	"placelist/pkg/requestcontext"
)

const (
	accessCookie  = "pl_access_token"
	refreshCookie = "pl_refresh_token"
)

// Session loads the caller's session cookies into the request context and
// installs a writer so the identity adapter can persist sessions it
// establishes or refreshes. Cookie writes happen immediately, which is safe
// because provider calls always precede response rendering.
func Session(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var access, refresh string
			if c, err := r.Cookie(accessCookie); err == nil {
				access = c.Value
			}
			if c, err := r.Cookie(refreshCookie); err == nil {
				refresh = c.Value
			}

			ctx := requestcontext.WithSessionTokens(r.Context(), access, refresh)
			ctx = requestcontext.WithWriter(ctx, &cookieWriter{w: w, secure: secure})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// cookieWriter persists session material as HttpOnly cookies.
type cookieWriter struct {
	w      http.ResponseWriter
	secure bool
}

func (c *cookieWriter) EstablishSession(accessToken, refreshToken string, expiresAt time.Time) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     accessCookie,
		Value:    accessToken,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	// Refresh tokens outlive the access token; the provider bounds their
	// lifetime server-side.
	http.SetCookie(c.w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refreshToken,
		Path:     "/",
		Expires:  expiresAt.Add(30 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *cookieWriter) ClearSession() {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(c.w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
