package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, "eventease")

	token, err := manager.Issue(42, "alice", RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, RoleUser, claims.Role)
	require.False(t, claims.IsAdmin())

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestSessionAdminPredicate(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, "eventease")

	token, err := manager.Issue(1, "root", RoleAdmin)
	require.NoError(t, err)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	require.True(t, claims.IsAdmin())
}

func TestSessionRejectsEmptyToken(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, "eventease")

	_, err := manager.Validate("  ")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestSessionRejectsWrongSecret(t *testing.T) {
	issuing := NewSessionManager("secret-a", time.Hour, "eventease")
	validating := NewSessionManager("secret-b", time.Hour, "eventease")

	token, err := issuing.Issue(7, "bob", RoleUser)
	require.NoError(t, err)

	_, err = validating.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	manager := NewSessionManager("test-secret", -time.Minute, "eventease")

	token, err := manager.Issue(7, "bob", RoleUser)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionIssueValidation(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, "eventease")

	_, err := manager.Issue(0, "alice", RoleUser)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Issue(1, "", RoleUser)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hash)

	require.True(t, CheckPassword(hash, "s3cret-password"))
	require.False(t, CheckPassword(hash, "wrong"))
}
