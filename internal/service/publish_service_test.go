package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/repository"
)

type fakePostRepo struct {
	repository.PostRepository
	post   *models.Post
	status models.PostStatus
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return r.post, nil
}

func (r *fakePostRepo) UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error {
	r.status = status
	return nil
}

type fakeSelectedRepo struct {
	repository.SelectedPageRepository
	pages []*models.SelectedPage
}

func (r *fakeSelectedRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.SelectedPage, error) {
	return r.pages, nil
}

type fakePageRepo struct {
	repository.SocialPageRepository
	pages []*models.SocialPage
}

func (r *fakePageRepo) ListByIDs(ctx context.Context, ids []string) ([]*models.SocialPage, error) {
	return r.pages, nil
}

type fakePostMediaRepo struct {
	repository.PostMediaRepository
	media []*models.PostMedia
}

func (r *fakePostMediaRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostMedia, error) {
	return r.media, nil
}

type fakeAssetRepo struct {
	repository.MediaAssetRepository
	asset *models.MediaAsset
}

func (r *fakeAssetRepo) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	return r.asset, nil
}

type fakeAccounts struct {
	AccountService
	account *models.SocialAccount
}

func (a *fakeAccounts) FreshAccount(ctx context.Context, accountID string) (*models.SocialAccount, error) {
	return a.account, nil
}

// historyLog implements the posting-history repository and the drivers'
// post-id sink, recording the order writes arrive in.
type historyLog struct {
	mu     sync.Mutex
	events []string
	rows   map[string]*models.PostingHistory
}

func newHistoryLog() *historyLog {
	return &historyLog{rows: map[string]*models.PostingHistory{}}
}

func (l *historyLog) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row := *ph
	l.rows[ph.PageID] = &row
	l.events = append(l.events, "create")
	return 1, nil
}

func (l *historyLog) GetByUserID(ctx context.Context, userID int64) ([]*models.PostingHistory, error) {
	return nil, nil
}

func (l *historyLog) GetByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	return nil, nil
}

func (l *historyLog) SetOutcome(ctx context.Context, postID int64, pageID string, status models.PostStatus, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[pageID]
	if !ok {
		return nil
	}
	row.Status = status
	row.ErrorMessage = errMsg
	l.events = append(l.events, "outcome")
	return nil
}

func (l *historyLog) UpdatePlatformPostID(ctx context.Context, localPostID string, p models.Platform, vendorPostID, pageID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[pageID]
	if !ok {
		// the whole point of the pending row: the vendor id must have
		// somewhere to land
		l.events = append(l.events, "vendor-id-lost")
		return nil
	}
	row.PlatformPostID = vendorPostID
	row.Status = models.PostStatusPublished
	l.events = append(l.events, "vendor-id")
	return nil
}

func TestPublishRecordsVendorPostIDOnPendingRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/pins" {
			t.Errorf("unexpected call to %s", r.URL.Path)
			return
		}
		w.Write([]byte(`{"id":"pin-99"}`))
	}))
	defer srv.Close()

	hist := newHistoryLog()
	factory := platform.NewFactory(platform.FactoryConfig{
		Pinterest: platform.Credentials{ClientID: "id", ClientSecret: "secret", RedirectURI: "https://cb"},
	},
		platform.WithPostIDSink(hist),
		platform.WithBaseURL(srv.URL),
		platform.WithHTTPClient(srv.Client()),
	)

	post := &models.Post{ID: 7, UserID: 42, Caption: "a pin"}
	page := &models.SocialPage{
		ID:        "pg-1",
		Platform:  models.PlatformPinterest,
		PageID:    "board-1",
		AccountID: "acc-1",
	}

	svc := NewPublishService(
		&config.Config{},
		factory,
		&fakeAccounts{account: &models.SocialAccount{
			ID:        "acc-1",
			Platform:  models.PlatformPinterest,
			AuthToken: "acct-token",
		}},
		&fakePostRepo{post: post},
		&fakeSelectedRepo{pages: []*models.SelectedPage{{PostID: 7, PageID: "pg-1"}}},
		&fakePageRepo{pages: []*models.SocialPage{page}},
		&fakeAssetRepo{asset: &models.MediaAsset{ID: 1, FileURL: "https://cdn.example.com/a.jpg", FileType: "image/jpeg"}},
		&fakePostMediaRepo{media: []*models.PostMedia{{PostID: 7, AssetID: 1}}},
		hist,
	)

	require.NoError(t, svc.PublishPost(context.Background(), 7))

	// pending row first, then the sink's vendor id, then the outcome
	require.Equal(t, []string{"create", "vendor-id", "outcome"}, hist.events)

	row := hist.rows["pg-1"]
	require.NotNil(t, row)
	require.Equal(t, "pin-99", row.PlatformPostID)
	require.Equal(t, models.PostStatusPublished, row.Status)
}

func TestPublishFailureClosesPendingRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"board not found"}`))
	}))
	defer srv.Close()

	hist := newHistoryLog()
	factory := platform.NewFactory(platform.FactoryConfig{
		Pinterest: platform.Credentials{ClientID: "id", ClientSecret: "secret", RedirectURI: "https://cb"},
	},
		platform.WithPostIDSink(hist),
		platform.WithBaseURL(srv.URL),
		platform.WithHTTPClient(srv.Client()),
	)

	post := &models.Post{ID: 8, UserID: 42, Caption: "a pin"}
	page := &models.SocialPage{
		ID:        "pg-2",
		Platform:  models.PlatformPinterest,
		PageID:    "board-1",
		AccountID: "acc-1",
	}

	pr := &fakePostRepo{post: post}
	svc := NewPublishService(
		&config.Config{},
		factory,
		&fakeAccounts{account: &models.SocialAccount{
			ID:        "acc-1",
			Platform:  models.PlatformPinterest,
			AuthToken: "acct-token",
		}},
		pr,
		&fakeSelectedRepo{pages: []*models.SelectedPage{{PostID: 8, PageID: "pg-2"}}},
		&fakePageRepo{pages: []*models.SocialPage{page}},
		&fakeAssetRepo{asset: &models.MediaAsset{ID: 1, FileURL: "https://cdn.example.com/a.jpg", FileType: "image/jpeg"}},
		&fakePostMediaRepo{media: []*models.PostMedia{{PostID: 8, AssetID: 1}}},
		hist,
	)

	require.NoError(t, svc.PublishPost(context.Background(), 8))

	require.Equal(t, []string{"create", "outcome"}, hist.events)

	row := hist.rows["pg-2"]
	require.NotNil(t, row)
	require.Equal(t, models.PostStatusFailed, row.Status)
	require.Contains(t, row.ErrorMessage, "board not found")
	require.Equal(t, models.PostStatusFailed, pr.status)
}