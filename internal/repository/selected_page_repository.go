package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/publora/publora/internal/models"
)

type SelectedPageRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sp *models.SelectedPage) error
	ListByPostID(ctx context.Context, postID int64) ([]*models.SelectedPage, error)
	RemoveByPostID(ctx context.Context, postID int64) error
}

type selectedPageRepository struct {
	db *sql.DB
}

func NewSelectedPageRepository(db *sql.DB) SelectedPageRepository {
	return &selectedPageRepository{db: db}
}

func (r *selectedPageRepository) Create(ctx context.Context, tx *sql.Tx, sp *models.SelectedPage) error {
	var err error

	query := `
		INSERT INTO selected_pages (post_id, page_id)
		VALUES ($1, $2)
	`
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, sp.PostID, sp.PageID)
	} else {
		_, err = r.db.ExecContext(ctx, query, sp.PostID, sp.PageID)
	}

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *selectedPageRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.SelectedPage, error) {
	query := `SELECT post_id, page_id FROM selected_pages WHERE post_id = $1`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var pages []*models.SelectedPage
	for rows.Next() {
		var sp models.SelectedPage
		if err := rows.Scan(&sp.PostID, &sp.PageID); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		pages = append(pages, &sp)
	}
	return pages, rows.Err()
}

func (r *selectedPageRepository) RemoveByPostID(ctx context.Context, postID int64) error {
	query := `DELETE FROM selected_pages WHERE post_id = $1`
	_, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
