package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"

	"github.com/publora/publora/internal/models"
)

type PostingHistoryRepository interface {
	Create(ctx context.Context, ph *models.PostingHistory) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.PostingHistory, error)
	GetByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error)
	SetOutcome(ctx context.Context, postID int64, pageID string, status models.PostStatus, errMsg string) error
	UpdatePlatformPostID(ctx context.Context, localPostID string, platform models.Platform, vendorPostID, pageID string) error
}

type postingHistoryRepository struct {
	db *sql.DB
}

func NewPostingHistoryRepository(db *sql.DB) PostingHistoryRepository {
	return &postingHistoryRepository{db: db}
}

const postingHistoryColumns = `id, user_id, post_id, page_id, platform, platform_post_id, status, error_message, created_at`

func (r *postingHistoryRepository) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	query := `
		INSERT INTO posting_history (user_id, post_id, page_id, platform, platform_post_id, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		ph.UserID, ph.PostID, ph.PageID, ph.Platform, ph.PlatformPostID, ph.Status, ph.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postingHistoryRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.PostingHistory, error) {
	query := `SELECT ` + postingHistoryColumns + ` FROM posting_history WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *postingHistoryRepository) GetByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	query := `SELECT ` + postingHistoryColumns + ` FROM posting_history WHERE post_id = $1`
	return r.list(ctx, query, postID)
}

func (r *postingHistoryRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.PostingHistory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var phs []*models.PostingHistory
	for rows.Next() {
		var ph models.PostingHistory
		err := rows.Scan(&ph.ID, &ph.UserID, &ph.PostID, &ph.PageID, &ph.Platform,
			&ph.PlatformPostID, &ph.Status, &ph.ErrorMessage, &ph.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		phs = append(phs, &ph)
	}
	return phs, rows.Err()
}

// SetOutcome closes out the pending row created before the publish attempt.
func (r *postingHistoryRepository) SetOutcome(ctx context.Context, postID int64, pageID string, status models.PostStatus, errMsg string) error {
	query := `
		UPDATE posting_history
		SET status = $3,
			error_message = $4
		WHERE post_id = $1 AND page_id = $2
	`
	_, err := r.db.ExecContext(ctx, query, postID, pageID, status, errMsg)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdatePlatformPostID records the vendor-assigned id after a publish. The
// local post id arrives as a string because drivers never see row ids.
func (r *postingHistoryRepository) UpdatePlatformPostID(ctx context.Context, localPostID string, platform models.Platform, vendorPostID, pageID string) error {
	postID, err := strconv.ParseInt(localPostID, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		UPDATE posting_history
		SET platform_post_id = $3,
			status = $4
		WHERE post_id = $1 AND page_id = $2
	`
	_, err = r.db.ExecContext(ctx, query, postID, pageID, vendorPostID, models.PostStatusPublished)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
