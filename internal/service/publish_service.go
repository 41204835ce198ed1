package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/pkg/utils"
)

// PublishService fans a due calendar entry out to its selected pages. Each
// destination publishes independently; one vendor failing never blocks the
// rest, the outcome lands in posting history either way.
type PublishService interface {
	PublishPost(ctx context.Context, postID int64) error
}

type publishService struct {
	cfg      *config.Config
	factory  *platform.Factory
	accounts AccountService
	pr       repository.PostRepository
	sp       repository.SelectedPageRepository
	pg       repository.SocialPageRepository
	ma       repository.MediaAssetRepository
	pm       repository.PostMediaRepository
	ph       repository.PostingHistoryRepository
}

func NewPublishService(
	cfg *config.Config,
	factory *platform.Factory,
	accounts AccountService,
	pr repository.PostRepository,
	sp repository.SelectedPageRepository,
	pg repository.SocialPageRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	ph repository.PostingHistoryRepository) PublishService {
	return &publishService{
		cfg:      cfg,
		factory:  factory,
		accounts: accounts,
		pr:       pr,
		sp:       sp,
		pg:       pg,
		ma:       ma,
		pm:       pm,
		ph:       ph,
	}
}

func (s *publishService) PublishPost(ctx context.Context, postID int64) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info("post no longer exists, dropping publish task", "post_id", postID)
		return nil
	}

	selected, err := s.sp.ListByPostID(ctx, postID)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return errors.New("no pages selected for publishing")
	}

	content, err := s.buildContent(ctx, post)
	if err != nil {
		return err
	}

	pageIDs := make([]string, 0, len(selected))
	for _, sel := range selected {
		pageIDs = append(pageIDs, sel.PageID)
	}
	pages, err := s.pg.ListByIDs(ctx, pageIDs)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10)
	var mu sync.Mutex
	published := 0

	for _, page := range pages {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(page *models.SocialPage) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := s.publishToPage(ctx, post, content, page); err != nil {
				slog.Error("failed to publish",
					"post_id", post.ID,
					"page_id", page.ID,
					"error", err)
				return
			}

			mu.Lock()
			published++
			mu.Unlock()
		}(page)
	}
	wg.Wait()

	status := models.PostStatusPublished
	if published == 0 {
		status = models.PostStatusFailed
	}
	if err := s.pr.UpdatePostStatus(ctx, status, post.ID); err != nil {
		slog.Info(err.Error())
	}
	return nil
}

func (s *publishService) publishToPage(ctx context.Context, post *models.Post, content *models.PostContent, page *models.SocialPage) error {
	// the history row must exist before the driver runs: drivers report
	// vendor post ids mid-publish by updating this row
	pending := models.PostingHistory{
		UserID:   post.UserID,
		PostID:   post.ID,
		PageID:   page.ID,
		Platform: page.Platform,
		Status:   models.PostStatusScheduled,
	}
	if _, err := s.ph.Create(ctx, &pending); err != nil {
		return err
	}

	account, err := s.accounts.FreshAccount(ctx, page.AccountID)
	if err != nil {
		s.recordOutcome(ctx, post, page, err)
		return err
	}

	if err := s.attachToken(page, account); err != nil {
		s.recordOutcome(ctx, post, page, err)
		return err
	}

	driver, err := s.driverFor(account)
	if err != nil {
		s.recordOutcome(ctx, post, page, err)
		return err
	}

	opts := &models.PublishOptions{
		LocalPostID: strconv.FormatInt(post.ID, 10),
	}
	if _, err := driver.PublishPost(ctx, page, content, opts); err != nil {
		s.recordOutcome(ctx, post, page, err)
		return err
	}

	s.recordOutcome(ctx, post, page, nil)
	return nil
}

// attachToken picks the token the publish call needs. Facebook and Instagram
// destinations carry their own page tokens, everything else publishes with
// the account token.
func (s *publishService) attachToken(page *models.SocialPage, account *models.SocialAccount) error {
	switch page.Platform {
	case models.PlatformFacebook, models.PlatformInstagram:
		token, err := utils.Decrypt(page.AuthToken, []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
		page.AuthToken = token
	default:
		page.AuthToken = account.AuthToken
	}
	return nil
}

func (s *publishService) driverFor(account *models.SocialAccount) (platform.Driver, error) {
	method, _ := account.Metadata["login_method"].(string)
	return s.factory.Driver(account.Platform, method)
}

func (s *publishService) recordOutcome(ctx context.Context, post *models.Post, page *models.SocialPage, publishErr error) {
	status := models.PostStatusPublished
	errMsg := ""
	if publishErr != nil {
		status = models.PostStatusFailed
		errMsg = publishErr.Error()
	}

	if err := s.ph.SetOutcome(ctx, post.ID, page.ID, status, errMsg); err != nil {
		slog.Error("failed to save posting history", "post_id", post.ID, "error", err)
	}
}

// buildContent assembles the platform-agnostic payload from the stored
// calendar entry and its media assets.
func (s *publishService) buildContent(ctx context.Context, post *models.Post) (*models.PostContent, error) {
	content := &models.PostContent{
		Text:  post.Caption,
		Title: post.Title,
	}

	postMedia, err := s.pm.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if len(postMedia) == 0 {
		return content, nil
	}

	var urls []string
	video := false
	for _, pm := range postMedia {
		asset, err := s.ma.GetByID(ctx, pm.AssetID)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			continue
		}
		urls = append(urls, asset.FileURL)
		if strings.HasPrefix(asset.FileType, "video/") {
			video = true
		}
	}
	if len(urls) == 0 {
		return content, nil
	}

	mediaType := models.MediaTypeImage
	switch {
	case video:
		mediaType = models.MediaTypeVideo
	case len(urls) > 1:
		mediaType = models.MediaTypeCarousel
	}

	content.Media = &models.MediaContent{
		Type: mediaType,
		URLs: urls,
	}
	return content, nil
}
