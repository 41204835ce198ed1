package platform

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/publora/publora/internal/models"
)

// Tokens within this window of expiry are refreshed before use.
const refreshSkew = 5 * time.Minute

// AccountStore persists refreshed tokens. The new token must be stored
// before any subsequent vendor call uses it.
type AccountStore interface {
	UpdateTokens(ctx context.Context, acc *models.SocialAccount) error
}

// RefreshFunc performs the vendor-specific refresh exchange.
type RefreshFunc func(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error)

// TokenManager decides when a token needs refreshing and serializes the
// refresh per account id. Concurrent callers share one in-flight refresh;
// most vendors invalidate the previous refresh token on use, so a race
// permanently breaks the losing caller.
type TokenManager struct {
	store  AccountStore
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

func NewTokenManager(store AccountStore, logger *slog.Logger) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{store: store, logger: logger, now: time.Now}
}

// NeedsRefresh reports whether the access token is within the refresh window.
func (m *TokenManager) NeedsRefresh(acc *models.SocialAccount) bool {
	if acc.AccessTokenExpiresAt == nil {
		return acc.RefreshToken != ""
	}
	return acc.AccessTokenExpiresAt.Sub(m.now()) <= refreshSkew
}

// Ensure returns an account whose token is safe to use, refreshing through
// the single-flight group when needed. Refresh failures surface as
// TOKEN_EXPIRED so callers prompt re-authentication instead of retrying.
func (m *TokenManager) Ensure(ctx context.Context, acc *models.SocialAccount, refresh RefreshFunc) (*models.SocialAccount, error) {
	if !m.NeedsRefresh(acc) {
		return acc, nil
	}

	v, err, shared := m.group.Do(acc.ID, func() (any, error) {
		refreshed, err := refresh(ctx, acc)
		if err != nil {
			if IsCode(err, ErrCodeNetwork) {
				return nil, err
			}
			return nil, NewTokenExpiredError(acc.Platform, err)
		}

		if m.store != nil {
			if err := m.store.UpdateTokens(ctx, refreshed); err != nil {
				return nil, err
			}
		}
		return refreshed, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		m.logger.Debug("token refresh shared with in-flight caller", "account_id", acc.ID)
	}

	return v.(*models.SocialAccount), nil
}
