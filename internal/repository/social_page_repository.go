package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/lib/pq"

	"github.com/publora/publora/internal/models"
)

type SocialPageRepository interface {
	Upsert(ctx context.Context, tx *sql.Tx, page *models.SocialPage) error
	GetByID(ctx context.Context, id string) (*models.SocialPage, error)
	ListByAccountID(ctx context.Context, accountID string) ([]*models.SocialPage, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPage, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.SocialPage, error)
	SetStatus(ctx context.Context, id string, status models.AccountStatus) error
	Remove(ctx context.Context, id string) error
}

type socialPageRepository struct {
	db *sql.DB
}

func NewSocialPageRepository(db *sql.DB) SocialPageRepository {
	return &socialPageRepository{db: db}
}

const socialPageColumns = `
	id, account_id, platform, entity_type, name, page_id,
	auth_token, auth_token_expires_at,
	connected, status, status_updated_at,
	post_count, follower_count, metadata`

// Upsert keys on (account_id, page_id) so re-listing a vendor's destinations
// refreshes tokens and counters without duplicating rows.
func (r *socialPageRepository) Upsert(ctx context.Context, tx *sql.Tx, page *models.SocialPage) error {
	query := `
		INSERT INTO social_pages(
			id, account_id, platform, entity_type, name, page_id,
			auth_token, auth_token_expires_at,
			connected, status, status_updated_at,
			post_count, follower_count, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (account_id, page_id) DO UPDATE SET
			name = EXCLUDED.name,
			auth_token = EXCLUDED.auth_token,
			auth_token_expires_at = EXCLUDED.auth_token_expires_at,
			connected = EXCLUDED.connected,
			status = EXCLUDED.status,
			status_updated_at = EXCLUDED.status_updated_at,
			post_count = EXCLUDED.post_count,
			follower_count = EXCLUDED.follower_count,
			metadata = EXCLUDED.metadata
	`

	metadata, err := json.Marshal(page.Metadata)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	args := []interface{}{
		page.ID, page.AccountID, page.Platform, page.EntityType, page.Name, page.PageID,
		page.AuthToken, page.AuthTokenExpiresAt,
		page.Connected, page.Status, page.StatusUpdatedAt,
		page.PostCount, page.FollowerCount, metadata,
	}

	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanSocialPage(row interface{ Scan(...any) error }) (*models.SocialPage, error) {
	var page models.SocialPage
	var metadata []byte
	err := row.Scan(&page.ID, &page.AccountID, &page.Platform, &page.EntityType, &page.Name, &page.PageID,
		&page.AuthToken, &page.AuthTokenExpiresAt,
		&page.Connected, &page.Status, &page.StatusUpdatedAt,
		&page.PostCount, &page.FollowerCount, &metadata)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &page.Metadata); err != nil {
			slog.Info(err.Error())
		}
	}
	return &page, nil
}

func (r *socialPageRepository) GetByID(ctx context.Context, id string) (*models.SocialPage, error) {
	query := `SELECT ` + socialPageColumns + ` FROM social_pages WHERE id = $1`
	page, err := scanSocialPage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return page, nil
}

func (r *socialPageRepository) ListByAccountID(ctx context.Context, accountID string) ([]*models.SocialPage, error) {
	query := `SELECT ` + socialPageColumns + ` FROM social_pages WHERE account_id = $1`
	return r.list(ctx, query, accountID)
}

func (r *socialPageRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPage, error) {
	query := `
		SELECT ` + socialPageColumns + `
		FROM social_pages
		WHERE account_id IN (SELECT id FROM social_accounts WHERE user_id = $1)`
	return r.list(ctx, query, userID)
}

func (r *socialPageRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.SocialPage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + socialPageColumns + ` FROM social_pages WHERE id = ANY($1)`
	return r.list(ctx, query, pq.Array(ids))
}

func (r *socialPageRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.SocialPage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var pages []*models.SocialPage
	for rows.Next() {
		page, err := scanSocialPage(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func (r *socialPageRepository) SetStatus(ctx context.Context, id string, status models.AccountStatus) error {
	query := `
		UPDATE social_pages
		SET status = $2,
			connected = $3,
			status_updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, status, status == models.AccountStatusActive)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialPageRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM social_pages WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
