package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/transfer"
)

const (
	PostTypeSingle   = "single"
	PostTypeMultiple = "multiple"
)

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (int64, time.Duration, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
	Results(ctx context.Context, userID, postID int64) ([]*models.PostingHistory, error)
	History(ctx context.Context, userID int64) ([]*models.PostingHistory, error)
}

type postService struct {
	db *sql.DB
	pr repository.PostRepository
	sp repository.SelectedPageRepository
	pg repository.SocialPageRepository
	sa repository.SocialAccountRepository
	ma repository.MediaAssetRepository
	pm repository.PostMediaRepository
	ph repository.PostingHistoryRepository
	r2 *R2Service
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	sp repository.SelectedPageRepository,
	pg repository.SocialPageRepository,
	sa repository.SocialAccountRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	ph repository.PostingHistoryRepository,
	r2 *R2Service) PostService {
	return &postService{
		db: db,
		pr: pr,
		sp: sp,
		pg: pg,
		sa: sa,
		ma: ma,
		pm: pm,
		ph: ph,
		r2: r2,
	}
}

// CreatePost stores the calendar entry, its destination pages and media in
// one transaction, returning the delay until the scheduled time so the
// caller can enqueue the publish task.
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (int64, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, 0, err
	}
	if pc.Caption == "" {
		err := errors.New("caption cannot be empty")
		slog.Info(err.Error())
		return 0, 0, err
	}

	scheduledTime, err := time.Parse("2006-01-02T15:04", pc.ScheduledTime)
	if err != nil {
		err = fmt.Errorf("invalid scheduled time format: %w", err)
		slog.Error(err.Error())
		return 0, 0, err
	}

	var selectedPages []string
	if err := json.Unmarshal([]byte(pc.SelectedPages), &selectedPages); err != nil {
		err = fmt.Errorf("invalid selected pages format: %w", err)
		slog.Error(err.Error())
		return 0, 0, err
	}
	if len(selectedPages) == 0 {
		err := errors.New("no destination pages selected")
		slog.Error(err.Error())
		return 0, 0, err
	}

	if len(files) == 0 {
		err := errors.New("no files provided for the post")
		slog.Error(err.Error())
		return 0, 0, err
	}

	postType := PostTypeSingle
	if len(files) > 1 {
		postType = PostTypeMultiple
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		UserID:        userID,
		PostType:      postType,
		Caption:       pc.Caption,
		Title:         pc.Title,
		ScheduledTime: scheduledTime,
		Status:        models.PostStatusScheduled,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, 0, fmt.Errorf("error creating post: %w", err)
	}

	if err = s.saveSelectedPages(ctx, tx, userID, postID, selectedPages); err != nil {
		return 0, 0, fmt.Errorf("error processing selected pages: %w", err)
	}

	if err = s.processFiles(ctx, tx, userID, postID, files); err != nil {
		return 0, 0, fmt.Errorf("error processing files: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	delay := time.Until(scheduledTime)
	if delay < 0 {
		delay = 0
	}

	return postID, delay, nil
}

func (s *postService) saveSelectedPages(ctx context.Context, tx *sql.Tx, userID, postID int64, pageIDs []string) error {
	for _, pageID := range pageIDs {
		page, err := s.pg.GetByID(ctx, pageID)
		if err != nil {
			return fmt.Errorf("error checking page %s: %w", pageID, err)
		}
		if page == nil {
			return fmt.Errorf("page %s does not exist", pageID)
		}

		owned, err := s.sa.CheckByUserID(ctx, page.AccountID, userID)
		if err != nil {
			return fmt.Errorf("error checking page owner %s: %w", pageID, err)
		}
		if !owned {
			return fmt.Errorf("page %s does not belong to this user", pageID)
		}

		selected := models.SelectedPage{
			PostID: postID,
			PageID: pageID,
		}
		if err := s.sp.Create(ctx, tx, &selected); err != nil {
			return fmt.Errorf("error saving selected page %s: %w", pageID, err)
		}
	}
	return nil
}

func (s *postService) processFiles(ctx context.Context, tx *sql.Tx, userID, postID int64, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		assetID, err := s.saveFile(ctx, tx, userID, fileType.MIME.Value, fileBytes)
		if err != nil {
			return fmt.Errorf("error uploading file: %w", err)
		}

		postMedia := models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.pm.Create(ctx, tx, &postMedia); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func (s *postService) saveFile(ctx context.Context, tx *sql.Tx, userID int64, fileType string, file []byte) (int64, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	if err = s.r2.UploadToR2(ctx, id, file, fileType); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	ma := models.MediaAsset{
		UserID:   userID,
		FileName: id,
		FileType: fileType,
		FileSize: int64(len(file)),
		FileURL:  s.r2.PublicURL(id),
	}

	assetID, err := s.ma.Create(ctx, tx, &ma)
	if err != nil {
		return 0, err
	}

	return assetID, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	var err error

	if userID == 0 {
		err = errors.New("user is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	if postID == 0 {
		err = errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info")
	}

	return post, nil
}

// Results returns the per-destination outcomes recorded when the post was
// fanned out.
func (s *postService) Results(ctx context.Context, userID, postID int64) ([]*models.PostingHistory, error) {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}
	return s.ph.GetByPostID(ctx, postID)
}

func (s *postService) History(ctx context.Context, userID int64) ([]*models.PostingHistory, error) {
	return s.ph.GetByUserID(ctx, userID)
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting posts")
	}
	return posts, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	var err error

	if userID == 0 {
		err = errors.New("user is not valid")
		slog.Info(err.Error())
		return err
	}

	if postID == 0 {
		err = errors.New("post id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	// drop the media rows and their stored assets before the post itself
	media, err := s.pm.ListByPostID(ctx, postID)
	if err != nil {
		return err
	}
	for _, pm := range media {
		if err := s.ma.Remove(ctx, pm.AssetID); err != nil {
			slog.Info(err.Error())
		}
	}
	if err = s.pm.RemoveByPostID(ctx, postID); err != nil {
		return err
	}
	if err = s.sp.RemoveByPostID(ctx, postID); err != nil {
		return err
	}

	if err = s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post")
	}

	return nil
}
