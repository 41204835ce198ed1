package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/pkg/utils"
)

type capturingAccountRepo struct {
	last *models.SocialAccount
}

func (r *capturingAccountRepo) UpdateTokens(ctx context.Context, sa *models.SocialAccount) error {
	r.last = sa
	return nil
}

func TestEncryptedAccountStoreSealsTokens(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	repo := &capturingAccountRepo{}
	store := &EncryptedAccountStore{Repo: repo, SecretKey: secret}

	acc := &models.SocialAccount{
		ID:           "acc-1",
		Platform:     models.PlatformPinterest,
		AuthToken:    "plain-access",
		RefreshToken: "plain-refresh",
	}

	require.NoError(t, store.UpdateTokens(context.Background(), acc))

	// the caller's copy stays plaintext, only the persisted copy is sealed
	require.Equal(t, "plain-access", acc.AuthToken)
	require.NotEqual(t, "plain-access", repo.last.AuthToken)
	require.NotEqual(t, "plain-refresh", repo.last.RefreshToken)

	decrypted, err := utils.Decrypt(repo.last.AuthToken, []byte(secret))
	require.NoError(t, err)
	require.Equal(t, "plain-access", decrypted)

	refresh, err := utils.Decrypt(repo.last.RefreshToken, []byte(secret))
	require.NoError(t, err)
	require.Equal(t, "plain-refresh", refresh)
}

func TestEncryptedAccountStoreSkipsEmptyRefreshToken(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	repo := &capturingAccountRepo{}
	store := &EncryptedAccountStore{Repo: repo, SecretKey: secret}

	acc := &models.SocialAccount{ID: "acc-2", AuthToken: "plain-access"}
	require.NoError(t, store.UpdateTokens(context.Background(), acc))
	require.Empty(t, repo.last.RefreshToken)
}
