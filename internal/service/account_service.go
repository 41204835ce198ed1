package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/pkg/utils"
)

// AccountService runs the connect / refresh / disconnect lifecycle for
// social accounts and their destination pages. Tokens are encrypted at rest,
// drivers only ever see plaintext copies.
type AccountService interface {
	GetAuthURL(ctx context.Context, p models.Platform, method string) (string, error)
	ConnectCallback(ctx context.Context, userID int64, p models.Platform, method, code string) (*models.SocialAccount, error)
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListPages(ctx context.Context, userID int64) ([]*models.SocialPage, error)
	SyncPages(ctx context.Context, userID int64, accountID string) ([]*models.SocialPage, error)
	CheckPageStatus(ctx context.Context, userID int64, pageID string) (*models.SocialPage, error)
	Disconnect(ctx context.Context, userID int64, accountID string) error
	FreshAccount(ctx context.Context, accountID string) (*models.SocialAccount, error)
	PagePostHistory(ctx context.Context, userID int64, pageID string, limit int, cursor string) ([]*models.PostHistory, string, error)
	PagePostAnalytics(ctx context.Context, userID int64, pageID string, postID string) (*models.PostAnalytics, error)
}

type accountService struct {
	cfg     *config.Config
	factory *platform.Factory
	manager *platform.TokenManager
	sa      repository.SocialAccountRepository
	sp      repository.SocialPageRepository
}

func NewAccountService(
	cfg *config.Config,
	factory *platform.Factory,
	manager *platform.TokenManager,
	sa repository.SocialAccountRepository,
	sp repository.SocialPageRepository) AccountService {
	return &accountService{
		cfg:     cfg,
		factory: factory,
		manager: manager,
		sa:      sa,
		sp:      sp,
	}
}

// TokenUpdater is the slice of the account repository the encrypted store
// needs.
type TokenUpdater interface {
	UpdateTokens(ctx context.Context, acc *models.SocialAccount) error
}

// EncryptedAccountStore persists refreshed tokens, sealing them before they
// touch the database. Implements the token manager's store contract.
type EncryptedAccountStore struct {
	Repo      TokenUpdater
	SecretKey string
}

func (s *EncryptedAccountStore) UpdateTokens(ctx context.Context, acc *models.SocialAccount) error {
	sealed := *acc

	var err error
	if sealed.AuthToken, err = utils.Encrypt([]byte(acc.AuthToken), []byte(s.SecretKey)); err != nil {
		return err
	}
	if acc.RefreshToken != "" {
		if sealed.RefreshToken, err = utils.Encrypt([]byte(acc.RefreshToken), []byte(s.SecretKey)); err != nil {
			return err
		}
	}

	return s.Repo.UpdateTokens(ctx, &sealed)
}

func (s *accountService) driverFor(p models.Platform, method string) (platform.Driver, error) {
	return s.factory.Driver(p, method)
}

func (s *accountService) GetAuthURL(ctx context.Context, p models.Platform, method string) (string, error) {
	driver, err := s.driverFor(p, method)
	if err != nil {
		return "", err
	}
	return driver.AuthURL()
}

func (s *accountService) ConnectCallback(ctx context.Context, userID int64, p models.Platform, method, code string) (*models.SocialAccount, error) {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return nil, err
	}

	driver, err := s.driverFor(p, method)
	if err != nil {
		return nil, err
	}

	account, err := driver.ConnectAccount(ctx, code)
	if err != nil {
		return nil, err
	}
	account.UserID = userID

	stored := *account
	if stored.AuthToken, err = utils.Encrypt([]byte(account.AuthToken), []byte(s.cfg.SecretKey)); err != nil {
		return nil, err
	}
	if account.RefreshToken != "" {
		if stored.RefreshToken, err = utils.Encrypt([]byte(account.RefreshToken), []byte(s.cfg.SecretKey)); err != nil {
			return nil, err
		}
	}

	if err := s.sa.Create(ctx, nil, &stored); err != nil {
		return nil, fmt.Errorf("error saving social account: %w", err)
	}

	// page discovery is best effort, the account is already connected
	pages, err := driver.ListPages(ctx, account)
	if err != nil {
		slog.Info(err.Error())
		return account, nil
	}
	if err := s.storePages(ctx, pages); err != nil {
		slog.Info(err.Error())
	}

	return account, nil
}

func (s *accountService) storePages(ctx context.Context, pages []*models.SocialPage) error {
	for _, page := range pages {
		sealed := *page
		token, err := utils.Encrypt([]byte(page.AuthToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
		sealed.AuthToken = token

		if err := s.sp.Upsert(ctx, nil, &sealed); err != nil {
			return err
		}
	}
	return nil
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	if userID == 0 {
		err := errors.New("user id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts")
	}

	// never hand tokens to the API layer
	for _, acc := range accounts {
		acc.AuthToken = ""
		acc.RefreshToken = ""
	}
	return accounts, nil
}

func (s *accountService) ListPages(ctx context.Context, userID int64) ([]*models.SocialPage, error) {
	pages, err := s.sp.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting pages")
	}
	for _, page := range pages {
		page.AuthToken = ""
	}
	return pages, nil
}

// SyncPages re-runs page discovery for an account and refreshes the stored
// destinations.
func (s *accountService) SyncPages(ctx context.Context, userID int64, accountID string) ([]*models.SocialPage, error) {
	account, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	fresh, err := s.ensureFresh(ctx, account)
	if err != nil {
		return nil, err
	}

	driver, err := s.driverForAccount(fresh)
	if err != nil {
		return nil, err
	}

	pages, err := driver.ListPages(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if err := s.storePages(ctx, pages); err != nil {
		slog.Info(err.Error())
	}

	for _, page := range pages {
		page.AuthToken = ""
	}
	return pages, nil
}

func (s *accountService) CheckPageStatus(ctx context.Context, userID int64, pageID string) (*models.SocialPage, error) {
	page, err := s.sp.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		err = errors.New("page doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	owned, err := s.sa.CheckByUserID(ctx, page.AccountID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		err = errors.New("page doesn't belong to this user")
		slog.Info(err.Error())
		return nil, err
	}

	account, err := s.FreshAccount(ctx, page.AccountID)
	if err != nil {
		return nil, err
	}

	driver, err := s.driverForAccount(account)
	if err != nil {
		return nil, err
	}

	probe := *page
	probe.AuthToken = account.AuthToken
	checked := driver.CheckPageStatus(ctx, &probe)

	if err := s.sp.SetStatus(ctx, page.ID, checked.Status); err != nil {
		slog.Info(err.Error())
	}

	checked.AuthToken = ""
	return checked, nil
}

func (s *accountService) Disconnect(ctx context.Context, userID int64, accountID string) error {
	account, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}

	driver, err := s.driverForAccount(account)
	if err != nil {
		return err
	}

	if err := driver.DisconnectAccount(ctx, account); err != nil {
		slog.Info(err.Error())
	}

	// pages can't publish without their account, drop them too
	pages, err := s.sp.ListByAccountID(ctx, accountID)
	if err != nil {
		slog.Info(err.Error())
	}
	for _, page := range pages {
		if err := s.sp.Remove(ctx, page.ID); err != nil {
			slog.Info(err.Error())
		}
	}

	if err := s.sa.Remove(ctx, accountID); err != nil {
		return fmt.Errorf("error removing account: %w", err)
	}
	return nil
}

// FreshAccount loads an account, decrypts its tokens and refreshes them when
// within the expiry window.
func (s *accountService) FreshAccount(ctx context.Context, accountID string) (*models.SocialAccount, error) {
	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.New("social account doesn't exist")
	}

	if err := s.decryptTokens(account); err != nil {
		return nil, err
	}
	return s.ensureFresh(ctx, account)
}

func (s *accountService) ensureFresh(ctx context.Context, account *models.SocialAccount) (*models.SocialAccount, error) {
	driver, err := s.driverForAccount(account)
	if err != nil {
		return nil, err
	}
	return s.manager.Ensure(ctx, account, driver.RefreshToken)
}

func (s *accountService) ownedAccount(ctx context.Context, userID int64, accountID string) (*models.SocialAccount, error) {
	owned, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		err = errors.New("social account doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil || account == nil {
		return nil, fmt.Errorf("unable to get social account info")
	}

	if err := s.decryptTokens(account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) decryptTokens(account *models.SocialAccount) error {
	token, err := utils.Decrypt(account.AuthToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}
	account.AuthToken = token

	if account.RefreshToken != "" {
		refresh, err := utils.Decrypt(account.RefreshToken, []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
		account.RefreshToken = refresh
	}
	return nil
}

func (s *accountService) driverForAccount(account *models.SocialAccount) (platform.Driver, error) {
	method, _ := account.Metadata["login_method"].(string)
	return s.driverFor(account.Platform, method)
}

func (s *accountService) PagePostHistory(ctx context.Context, userID int64, pageID string, limit int, cursor string) ([]*models.PostHistory, string, error) {
	page, driver, err := s.armedPage(ctx, userID, pageID)
	if err != nil {
		return nil, "", err
	}
	return driver.GetPostHistory(ctx, page, limit, cursor)
}

func (s *accountService) PagePostAnalytics(ctx context.Context, userID int64, pageID string, postID string) (*models.PostAnalytics, error) {
	page, driver, err := s.armedPage(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	return driver.GetPostAnalytics(ctx, page, postID)
}

// armedPage loads an owned page with a usable token attached. Facebook and
// Instagram pages carry their own tokens, the rest borrow the account token.
func (s *accountService) armedPage(ctx context.Context, userID int64, pageID string) (*models.SocialPage, platform.Driver, error) {
	page, err := s.sp.GetByID(ctx, pageID)
	if err != nil {
		return nil, nil, err
	}
	if page == nil {
		err = errors.New("page doesn't exist")
		slog.Info(err.Error())
		return nil, nil, err
	}

	owned, err := s.sa.CheckByUserID(ctx, page.AccountID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !owned {
		err = errors.New("page doesn't belong to this user")
		slog.Info(err.Error())
		return nil, nil, err
	}

	account, err := s.FreshAccount(ctx, page.AccountID)
	if err != nil {
		return nil, nil, err
	}

	armed := *page
	switch page.Platform {
	case models.PlatformFacebook, models.PlatformInstagram:
		token, err := utils.Decrypt(page.AuthToken, []byte(s.cfg.SecretKey))
		if err != nil {
			return nil, nil, err
		}
		armed.AuthToken = token
	default:
		armed.AuthToken = account.AuthToken
	}

	driver, err := s.driverForAccount(account)
	if err != nil {
		return nil, nil, err
	}
	return &armed, driver, nil
}
