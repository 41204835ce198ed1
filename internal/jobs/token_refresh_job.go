package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/service"
)

// TokenRefreshJob sweeps accounts whose access tokens are close to expiry
// and refreshes them ahead of time, so publish tasks rarely hit an expired
// token. Runs on a cron schedule.
type TokenRefreshJob struct {
	sr       repository.SocialAccountRepository
	accounts service.AccountService
}

func NewTokenRefreshJob(sr repository.SocialAccountRepository, accounts service.AccountService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr:       sr,
		accounts: accounts,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	cutoff := time.Now().Add(24 * time.Hour)
	accounts, err := c.sr.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := c.accounts.FreshAccount(ctx, acc.ID); err != nil {
				slog.Info("unable to refresh tokens",
					"platform", acc.Platform,
					"account_id", acc.ID,
					"error", err.Error())
			}
		}(acc)
	}

	wg.Wait()
}
