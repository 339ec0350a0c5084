package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eventease/server/internal/auth"
)

const testCookieName = "eventease_session"

func sessionHandler(manager *auth.SessionManager, inner http.Handler) http.Handler {
	return SessionCookie(manager, testCookieName)(inner)
}

func TestSessionCookieAnonymousPassesThrough(t *testing.T) {
	manager := auth.NewSessionManager("secret", time.Hour, "test")
	h := sessionHandler(manager, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Nil(t, SessionClaims(r))
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, res.Code)
}

func TestSessionCookieSetsClaims(t *testing.T) {
	manager := auth.NewSessionManager("secret", time.Hour, "test")
	token, err := manager.Issue(7, "alice", auth.RoleUser)
	require.NoError(t, err)

	h := sessionHandler(manager, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := SessionClaims(r)
		require.NotNil(t, claims)
		require.Equal(t, "alice", claims.Username)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestSessionCookieClearsInvalidToken(t *testing.T) {
	manager := auth.NewSessionManager("secret", time.Hour, "test")
	h := sessionHandler(manager, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Nil(t, SessionClaims(r))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "garbage"})
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, testCookieName, cookies[0].Name)
	require.Negative(t, cookies[0].MaxAge)
}

func TestRequireUserRedirectsAnonymous(t *testing.T) {
	h := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/registrations", nil))

	require.Equal(t, http.StatusFound, res.Code)
	require.Equal(t, "/auth/login", res.Header().Get("Location"))
}

func TestRequireAdminRedirectsRegularUser(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := RequestWithClaims(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), &auth.Claims{
		Username: "bob",
		Role:     auth.RoleUser,
	})
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusFound, res.Code)
	require.Equal(t, "/", res.Header().Get("Location"))
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := RequestWithClaims(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), &auth.Claims{
		Username: "root",
		Role:     auth.RoleAdmin,
	})
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}
