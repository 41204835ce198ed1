package platform

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/publora/publora/internal/models"
)

type youtubeDriver struct {
	base
}

// NewYouTube builds the YouTube driver on the official client library. Every
// operation needs a refresh token, Google only hands one out when the consent
// screen ran with access_type=offline.
func NewYouTube(creds Credentials, opts ...Option) Driver {
	return &youtubeDriver{base: newBase(Lookup(models.PlatformYouTube), creds, opts...)}
}

func (d *youtubeDriver) oauthConfig() *oauth2.Config {
	conf := &oauth2.Config{
		ClientID:     d.creds.ClientID,
		ClientSecret: d.creds.ClientSecret,
		RedirectURL:  d.creds.RedirectURI,
		Scopes:       d.cfg.Scopes,
		Endpoint:     google.Endpoint,
	}
	// tests override the API base, point the token endpoint there too
	if d.apiBase != d.cfg.BaseURL {
		conf.Endpoint = oauth2.Endpoint{
			AuthURL:  d.apiBase + "/o/oauth2/auth",
			TokenURL: d.apiBase + "/token",
		}
	}
	return conf
}

func (d *youtubeDriver) AuthURL() (string, error) {
	state := newID()
	if state == "" {
		return "", NewError(ErrCodeUnknown, d.cfg.Name, "failed to generate state")
	}
	return d.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// service builds a youtube client bound to the page's token.
func (d *youtubeDriver) service(ctx context.Context, token string) (*youtube.Service, error) {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if d.apiBase != d.cfg.BaseURL {
		opts = append(opts, option.WithEndpoint(d.apiBase))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, NewError(ErrCodeUnknown, d.cfg.Name, "build youtube client: "+err.Error())
	}
	return svc, nil
}

// wrapGoogleErr folds googleapi failures into the error taxonomy.
func (d *youtubeDriver) wrapGoogleErr(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusUnauthorized {
			return NewTokenExpiredError(d.cfg.Name, err)
		}
		return NewAPIError(d.cfg.Name, gerr.Code, gerr.Message)
	}
	return NewNetworkError(d.cfg.Name, err)
}

func (d *youtubeDriver) ConnectAccount(ctx context.Context, code string) (*models.SocialAccount, error) {
	conf := d.oauthConfig()
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, NewError(ErrCodeAPI, d.cfg.Name, "code exchange failed: "+err.Error())
	}
	if token.RefreshToken == "" {
		return nil, NewError(ErrCodeAPI, d.cfg.Name, "no refresh token granted, re-run consent with offline access")
	}

	channel, err := d.channel(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	expiry := token.Expiry
	return &models.SocialAccount{
		ID:                   newID(),
		Platform:             models.PlatformYouTube,
		Name:                 channel.Snippet.Title,
		AccountID:            channel.Id,
		AuthToken:            token.AccessToken,
		RefreshToken:         token.RefreshToken,
		AccessTokenExpiresAt: &expiry,
		TokenIssuedAt:        time.Now(),
		Connected:            true,
		Status:               models.AccountStatusActive,
		Metadata: map[string]any{
			"uploads_playlist": channel.ContentDetails.RelatedPlaylists.Uploads,
		},
	}, nil
}

func (d *youtubeDriver) channel(ctx context.Context, token string) (*youtube.Channel, error) {
	svc, err := d.service(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Channels.List([]string{"snippet", "contentDetails"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, d.wrapGoogleErr(err)
	}
	if len(resp.Items) == 0 {
		return nil, NewError(ErrCodeAPI, d.cfg.Name, "no YouTube channel on this account")
	}
	return resp.Items[0], nil
}

func (d *youtubeDriver) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
	if acc.RefreshToken == "" {
		return nil, NewTokenExpiredError(d.cfg.Name, nil)
	}

	src := d.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: acc.RefreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, NewTokenExpiredError(d.cfg.Name, err)
	}

	out := *acc
	out.AuthToken = token.AccessToken
	if token.RefreshToken != "" {
		out.RefreshToken = token.RefreshToken
	}
	expiry := token.Expiry
	out.AccessTokenExpiresAt = &expiry
	out.TokenIssuedAt = time.Now()
	out.Status = models.AccountStatusActive
	return &out, nil
}

func (d *youtubeDriver) DisconnectAccount(ctx context.Context, acc *models.SocialAccount) error {
	acc.Connected = false
	acc.Status = models.AccountStatusDisconnected
	return nil
}

// The channel is the single destination.
func (d *youtubeDriver) ListPages(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error) {
	channel, err := d.channel(ctx, acc.AuthToken)
	if err != nil {
		return nil, err
	}

	return []*models.SocialPage{{
		ID:              newID(),
		Platform:        models.PlatformYouTube,
		EntityType:      models.EntityTypeChannel,
		Name:            channel.Snippet.Title,
		PageID:          channel.Id,
		AuthToken:       acc.AuthToken,
		Connected:       true,
		Status:          models.AccountStatusActive,
		AccountID:       acc.ID,
		StatusUpdatedAt: time.Now(),
		Metadata: map[string]any{
			"uploads_playlist": channel.ContentDetails.RelatedPlaylists.Uploads,
		},
	}}, nil
}

func (d *youtubeDriver) ConnectPage(ctx context.Context, acc *models.SocialAccount, pageID string) (*models.SocialPage, error) {
	pages, err := d.ListPages(ctx, acc)
	if err != nil {
		return nil, err
	}
	return pages[0], nil
}

func (d *youtubeDriver) DisconnectPage(ctx context.Context, page *models.SocialPage) error {
	page.Connected = false
	page.Status = models.AccountStatusDisconnected
	return nil
}

func (d *youtubeDriver) CheckPageStatus(ctx context.Context, page *models.SocialPage) *models.SocialPage {
	if _, err := d.channel(ctx, page.AuthToken); err != nil {
		return markPage(page, models.AccountStatusExpired)
	}
	return markPage(page, models.AccountStatusActive)
}

func (d *youtubeDriver) CreatePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	return d.PublishPost(ctx, page, content, opts)
}

func (d *youtubeDriver) PublishPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	if content.Media == nil || len(content.Media.URLs) == 0 || content.Media.Type != models.MediaTypeVideo {
		return nil, NewValidationError(d.cfg.Name, "YouTube requires exactly one video")
	}

	svc, err := d.service(ctx, page.AuthToken)
	if err != nil {
		return nil, err
	}

	title := content.Title
	if title == "" {
		title = content.Text
	}
	if len([]rune(title)) > 100 {
		title = string([]rune(title)[:100])
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: content.Text,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}
	if opts != nil && opts.YouTube != nil {
		yt := opts.YouTube
		if yt.PrivacyStatus != "" {
			video.Status.PrivacyStatus = yt.PrivacyStatus
		}
		if yt.CategoryID != "" {
			video.Snippet.CategoryId = yt.CategoryID
		}
		if len(yt.Tags) > 0 {
			video.Snippet.Tags = yt.Tags
		}
		video.Status.MadeForKids = yt.MadeForKids
	}
	if opts != nil && opts.ScheduledAt != nil {
		// scheduled videos must sit private until the publish time
		video.Status.PrivacyStatus = "private"
		video.Status.PublishAt = opts.ScheduledAt.UTC().Format(time.RFC3339)
	}

	media, err := d.openMedia(ctx, content.Media.URLs[0])
	if err != nil {
		return nil, err
	}
	defer media.Close()

	resp, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(media).Context(ctx).Do()
	if err != nil {
		return nil, d.wrapGoogleErr(err)
	}

	d.recordPostID(ctx, opts, resp.Id, page.ID)
	return publishResult(page, content, opts, resp.Id), nil
}

// openMedia streams the video from storage so the upload never buffers the
// whole file in memory.
func (d *youtubeDriver) openMedia(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, NewError(ErrCodeUnknown, d.cfg.Name, "build media download request")
	}
	resp, err := d.client.hc.Do(req)
	if err != nil {
		return nil, NewNetworkError(d.cfg.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, NewAPIError(d.cfg.Name, resp.StatusCode, "media download failed: "+rawURL)
	}
	return resp.Body, nil
}

func (d *youtubeDriver) SchedulePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error) {
	return d.schedule(ctx, d, page, content, at)
}

func (d *youtubeDriver) DeletePost(ctx context.Context, page *models.SocialPage, postID string) error {
	svc, err := d.service(ctx, page.AuthToken)
	if err != nil {
		return err
	}
	if err := svc.Videos.Delete(postID).Context(ctx).Do(); err != nil {
		return d.wrapGoogleErr(err)
	}
	return nil
}

func (d *youtubeDriver) GetPostHistory(ctx context.Context, page *models.SocialPage, limit int, cursor string) ([]*models.PostHistory, string, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	playlist, _ := page.Metadata["uploads_playlist"].(string)
	if playlist == "" {
		channel, err := d.channel(ctx, page.AuthToken)
		if err != nil {
			return nil, "", err
		}
		playlist = channel.ContentDetails.RelatedPlaylists.Uploads
	}

	svc, err := d.service(ctx, page.AuthToken)
	if err != nil {
		return nil, "", err
	}

	call := svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlist).
		MaxResults(int64(limit)).
		Context(ctx)
	if cursor != "" {
		call = call.PageToken(cursor)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, "", d.wrapGoogleErr(err)
	}

	history := make([]*models.PostHistory, 0, len(resp.Items))
	for _, item := range resp.Items {
		h := &models.PostHistory{
			ID:      newID(),
			PageID:  page.ID,
			PostID:  item.ContentDetails.VideoId,
			Content: item.Snippet.Title,
			Status:  models.PostStatusPublished,
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
			h.MediaURLs = []string{item.Snippet.Thumbnails.Default.Url}
		}
		if ts, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			h.PublishedAt = ts
		}
		history = append(history, NormalizePostHistory(h, page))
	}
	return history, resp.NextPageToken, nil
}

func (d *youtubeDriver) GetPostAnalytics(ctx context.Context, page *models.SocialPage, postID string) (*models.PostAnalytics, error) {
	svc, err := d.service(ctx, page.AuthToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Videos.List([]string{"statistics"}).Id(postID).Context(ctx).Do()
	if err != nil {
		return nil, d.wrapGoogleErr(err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil {
		return &models.PostAnalytics{}, nil
	}

	stats := resp.Items[0].Statistics
	return &models.PostAnalytics{
		Views:    int64(stats.ViewCount),
		Likes:    int64(stats.LikeCount),
		Comments: int64(stats.CommentCount),
	}, nil
}
