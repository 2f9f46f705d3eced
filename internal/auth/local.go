package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sitepulse/sitepulse/internal/models"
	"github.com/sitepulse/sitepulse/pkg/crypto"
	"github.com/sitepulse/sitepulse/pkg/logger"
)

// ErrInvalidCredentials is returned for both an unknown username and a wrong
// password. Callers must not translate the two cases into distinguishable
// responses.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// LocalConfig defines tunable behaviour for the local authenticator.
type LocalConfig struct {
	Clock func() time.Time
}

// LocalAuthenticator verifies admin credentials against the admin_users table.
type LocalAuthenticator struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewLocalAuthenticator builds an authenticator bound to the given database.
func NewLocalAuthenticator(db *gorm.DB, cfg LocalConfig) (*LocalAuthenticator, error) {
	if db == nil {
		return nil, errors.New("local auth: db is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LocalAuthenticator{db: db, clock: clock}, nil
}

// Authenticate verifies the supplied credentials and returns the matching
// admin on success. The last_login update is best effort: a failure there is
// logged but never fails an otherwise valid login.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.AdminUser
	err := a.db.WithContext(ctx).Take(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local auth: query admin: %w", err)
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := a.clock()
	if err := a.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		logger.WithModule("auth").Warn("failed to update last_login",
			zap.Uint64("user_id", user.ID),
			zap.Error(err),
		)
	} else {
		user.LastLogin = &now
	}

	return &user, nil
}
