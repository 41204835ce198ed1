package platform

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

type recordingStore struct {
	mu      sync.Mutex
	updates []*models.SocialAccount
}

func (s *recordingStore) UpdateTokens(ctx context.Context, acc *models.SocialAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, acc)
	return nil
}

func accountExpiringIn(d time.Duration) *models.SocialAccount {
	expiry := time.Now().Add(d)
	return &models.SocialAccount{
		ID:                   "acc-1",
		Platform:             models.PlatformPinterest,
		AuthToken:            "old-token",
		RefreshToken:         "refresh-token",
		AccessTokenExpiresAt: &expiry,
	}
}

func TestEnsureSkipsFreshToken(t *testing.T) {
	store := &recordingStore{}
	m := NewTokenManager(store, nil)

	acc := accountExpiringIn(time.Hour)
	var calls int32
	got, err := m.Ensure(context.Background(), acc, func(ctx context.Context, a *models.SocialAccount) (*models.SocialAccount, error) {
		atomic.AddInt32(&calls, 1)
		return a, nil
	})

	require.NoError(t, err)
	require.Same(t, acc, got)
	require.Zero(t, atomic.LoadInt32(&calls))
	require.Empty(t, store.updates)
}

func TestEnsureRefreshesWithinWindow(t *testing.T) {
	store := &recordingStore{}
	m := NewTokenManager(store, nil)

	acc := accountExpiringIn(time.Minute)
	refreshed := accountExpiringIn(time.Hour)
	refreshed.AuthToken = "new-token"

	got, err := m.Ensure(context.Background(), acc, func(ctx context.Context, a *models.SocialAccount) (*models.SocialAccount, error) {
		return refreshed, nil
	})

	require.NoError(t, err)
	require.Equal(t, "new-token", got.AuthToken)
	require.Len(t, store.updates, 1)
	require.Equal(t, "new-token", store.updates[0].AuthToken)
}

func TestEnsureMissingExpiryRefreshesWhenRefreshTokenPresent(t *testing.T) {
	m := NewTokenManager(&recordingStore{}, nil)

	acc := &models.SocialAccount{ID: "acc-2", RefreshToken: "r"}
	require.True(t, m.NeedsRefresh(acc))

	acc.RefreshToken = ""
	require.False(t, m.NeedsRefresh(acc))
}

func TestEnsureConcurrentCallersShareOneRefresh(t *testing.T) {
	store := &recordingStore{}
	m := NewTokenManager(store, nil)

	acc := accountExpiringIn(time.Minute)
	var calls int32
	refresh := func(ctx context.Context, a *models.SocialAccount) (*models.SocialAccount, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		out := *a
		out.AuthToken = "new-token"
		expiry := time.Now().Add(time.Hour)
		out.AccessTokenExpiresAt = &expiry
		return &out, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Ensure(context.Background(), acc, refresh)
			require.NoError(t, err)
			require.Equal(t, "new-token", got.AuthToken)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Len(t, store.updates, 1)
}

func TestEnsureRefreshFailureBecomesTokenExpired(t *testing.T) {
	m := NewTokenManager(&recordingStore{}, nil)

	acc := accountExpiringIn(time.Minute)
	_, err := m.Ensure(context.Background(), acc, func(ctx context.Context, a *models.SocialAccount) (*models.SocialAccount, error) {
		return nil, errors.New("vendor said no")
	})

	require.Error(t, err)
	require.Equal(t, ErrCodeTokenExpired, CodeOf(err))
}

func TestEnsureNetworkFailurePassesThrough(t *testing.T) {
	m := NewTokenManager(&recordingStore{}, nil)

	acc := accountExpiringIn(time.Minute)
	_, err := m.Ensure(context.Background(), acc, func(ctx context.Context, a *models.SocialAccount) (*models.SocialAccount, error) {
		return nil, NewNetworkError(a.Platform, errors.New("connection reset"))
	})

	require.Error(t, err)
	require.Equal(t, ErrCodeNetwork, CodeOf(err))
}

func TestEnsureStoreFailureSurfaces(t *testing.T) {
	m := NewTokenManager(storeFunc(func(ctx context.Context, acc *models.SocialAccount) error {
		return errors.New("db down")
	}), nil)

	acc := accountExpiringIn(time.Minute)
	_, err := m.Ensure(context.Background(), acc, func(ctx context.Context, a *models.SocialAccount) (*models.SocialAccount, error) {
		return a, nil
	})
	require.EqualError(t, err, "db down")
}

type storeFunc func(ctx context.Context, acc *models.SocialAccount) error

func (f storeFunc) UpdateTokens(ctx context.Context, acc *models.SocialAccount) error {
	return f(ctx, acc)
}
