package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sitepulse/sitepulse/internal/database/testutil"
	"github.com/sitepulse/sitepulse/internal/models"
	"github.com/sitepulse/sitepulse/pkg/crypto"
)

func seedAdmin(t *testing.T, db *gorm.DB, username, password string) models.AdminUser {
	t.Helper()

	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)

	user := models.AdminUser{Username: username, PasswordHash: hash}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestAuthenticateSuccessUpdatesLastLogin(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	seedAdmin(t, db, "admin", "hunter2hunter2")

	loginAt := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	authenticator, err := NewLocalAuthenticator(db, LocalConfig{
		Clock: func() time.Time { return loginAt },
	})
	require.NoError(t, err)

	user, err := authenticator.Authenticate(context.Background(), "admin", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, "admin", user.Username)
	require.NotNil(t, user.LastLogin)
	require.True(t, user.LastLogin.Equal(loginAt))

	var stored models.AdminUser
	require.NoError(t, db.Take(&stored, "username = ?", "admin").Error)
	require.NotNil(t, stored.LastLogin)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	seedAdmin(t, db, "admin", "hunter2hunter2")

	authenticator, err := NewLocalAuthenticator(db, LocalConfig{})
	require.NoError(t, err)

	_, err = authenticator.Authenticate(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownUserMatchesWrongPassword(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	seedAdmin(t, db, "admin", "hunter2hunter2")

	authenticator, err := NewLocalAuthenticator(db, LocalConfig{})
	require.NoError(t, err)

	_, unknownErr := authenticator.Authenticate(context.Background(), "nouser", "anything")
	_, wrongErr := authenticator.Authenticate(context.Background(), "admin", "wrong")

	// Both failures must collapse into the same error so handlers cannot
	// accidentally leak which usernames exist.
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthenticateEmptyFields(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	authenticator, err := NewLocalAuthenticator(db, LocalConfig{})
	require.NoError(t, err)

	_, err = authenticator.Authenticate(context.Background(), "", "password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authenticator.Authenticate(context.Background(), "admin", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateFailureLeavesLastLoginUntouched(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	seedAdmin(t, db, "admin", "hunter2hunter2")

	authenticator, err := NewLocalAuthenticator(db, LocalConfig{})
	require.NoError(t, err)

	_, err = authenticator.Authenticate(context.Background(), "admin", "wrong")
	require.Error(t, err)

	var stored models.AdminUser
	require.NoError(t, db.Take(&stored, "username = ?", "admin").Error)
	require.Nil(t, stored.LastLogin)
}
