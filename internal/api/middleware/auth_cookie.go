package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/eventease/server/internal/api/flash"
	"github.com/eventease/server/internal/auth"
)

type contextKeySession string

const sessionClaimsKey contextKeySession = "sessionClaims"

// SessionCookie validates the session cookie when present and stores the
// claims in the request context. Requests without a valid session pass
// through anonymously; pair with RequireUser or RequireAdmin for routes
// that need an identity.
func SessionCookie(manager *auth.SessionManager, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || strings.TrimSpace(cookie.Value) == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := manager.Validate(cookie.Value)
			if err != nil {
				// Expired or tampered cookie. Drop it so the browser
				// stops resending a dead session.
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
				})
				next.ServeHTTP(w, r)
				return
			}

			ctx := contextWithSessionClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser redirects anonymous requests to the login page.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionClaims(r) == nil {
			flash.Add(w, r, flash.CategoryWarning, "Please log in to continue.")
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin turns away non-admin sessions. Anonymous requests go to
// the login page; logged-in regular users go home with a flash message.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := SessionClaims(r)
		if claims == nil {
			flash.Add(w, r, flash.CategoryWarning, "Please log in to continue.")
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}
		if !claims.IsAdmin() {
			flash.Add(w, r, flash.CategoryDanger, "Access denied.")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func contextWithSessionClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// SessionClaims returns the authenticated session claims, or nil for
// anonymous requests.
func SessionClaims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(sessionClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// RequestWithClaims returns a copy of r carrying the given claims. Test
// helper for handlers that read SessionClaims.
func RequestWithClaims(r *http.Request, claims *auth.Claims) *http.Request {
	return r.WithContext(contextWithSessionClaims(r.Context(), claims))
}
