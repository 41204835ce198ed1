package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/publora/publora/internal/models"
)

type SocialAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) error
	GetByID(ctx context.Context, id string) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error)
	CheckByUserID(ctx context.Context, accountID string, userID int64) (bool, error)
	UpdateTokens(ctx context.Context, sa *models.SocialAccount) error
	SetStatus(ctx context.Context, id string, status models.AccountStatus) error
	Remove(ctx context.Context, id string) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `
	id, user_id, platform, name, account_id,
	auth_token, refresh_token,
	access_token_expires_at, refresh_token_expires_at, token_issued_at,
	connected, status, metadata, created_at, updated_at`

func (r *socialAccountRepository) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) error {
	insertQuery := `
		INSERT INTO social_accounts(
			id,
			user_id,
			platform,
			name,
			account_id,
			auth_token,
			refresh_token,
			access_token_expires_at,
			refresh_token_expires_at,
			token_issued_at,
			connected,
			status,
			metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	metadata, err := json.Marshal(sa.Metadata)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	args := []interface{}{
		sa.ID,
		sa.UserID,
		sa.Platform,
		sa.Name,
		sa.AccountID,
		sa.AuthToken,
		sa.RefreshToken,
		sa.AccessTokenExpiresAt,
		sa.RefreshTokenExpiresAt,
		sa.TokenIssuedAt,
		sa.Connected,
		sa.Status,
		metadata,
	}

	if tx != nil {
		_, err = tx.ExecContext(ctx, insertQuery, args...)
	} else {
		_, err = r.db.ExecContext(ctx, insertQuery, args...)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func scanSocialAccount(row interface{ Scan(...any) error }) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	var metadata []byte
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.Name, &sa.AccountID,
		&sa.AuthToken, &sa.RefreshToken,
		&sa.AccessTokenExpiresAt, &sa.RefreshTokenExpiresAt, &sa.TokenIssuedAt,
		&sa.Connected, &sa.Status, &metadata, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &sa.Metadata); err != nil {
			slog.Info(err.Error())
		}
	}
	return &sa, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, rows.Err()
}

// ListExpiringBefore returns connected accounts whose access token expires
// before the cutoff and that hold a refresh token. Fed to the refresh sweep.
func (r *socialAccountRepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE connected = TRUE
		AND refresh_token <> ''
		AND access_token_expires_at IS NOT NULL
		AND access_token_expires_at < $1`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID string, userID int64) (bool, error) {
	query := `SELECT 1 FROM social_accounts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *socialAccountRepository) UpdateTokens(ctx context.Context, sa *models.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET
			auth_token = COALESCE(NULLIF($2, ''), auth_token),
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			access_token_expires_at = COALESCE($4, access_token_expires_at),
			refresh_token_expires_at = COALESCE($5, refresh_token_expires_at),
			token_issued_at = $6,
			status = $7,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, sa.ID,
		sa.AuthToken, sa.RefreshToken,
		sa.AccessTokenExpiresAt, sa.RefreshTokenExpiresAt, sa.TokenIssuedAt,
		sa.Status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; account may not exist", "account_id", sa.ID)
		return sql.ErrNoRows
	}
	return nil
}

func (r *socialAccountRepository) SetStatus(ctx context.Context, id string, status models.AccountStatus) error {
	query := `
		UPDATE social_accounts
		SET status = $2,
			connected = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, status, status == models.AccountStatusActive)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
