package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/transfer"
)

type facebookDriver struct {
	base
}

// NewFacebook builds the Facebook pages driver.
func NewFacebook(creds Credentials, opts ...Option) Driver {
	d := &facebookDriver{base: newBase(Lookup(models.PlatformFacebook), creds, opts...)}
	return d
}

func (d *facebookDriver) v(path string) string {
	return d.url("/" + d.cfg.APIVersion + path)
}

func (d *facebookDriver) AuthURL() (string, error) {
	return d.authURL(",", nil)
}

func (d *facebookDriver) ConnectAccount(ctx context.Context, code string) (*models.SocialAccount, error) {
	var short transfer.FacebookTokenResponse
	q := url.Values{}
	q.Set("client_id", d.creds.ClientID)
	q.Set("client_secret", d.creds.ClientSecret)
	q.Set("redirect_uri", d.creds.RedirectURI)
	q.Set("code", code)
	if _, err := d.client.Do(ctx, &Request{Method: http.MethodGet, URL: d.v("/oauth/access_token"), Query: q, Out: &short}); err != nil {
		return nil, err
	}

	longLived, expiresAt, err := d.exchangeLongLived(ctx, short.AccessToken)
	if err != nil {
		return nil, err
	}

	var profile transfer.FacebookProfile
	if err := d.client.GetJSON(ctx, d.v("/me?fields=id,name,picture"), longLived, &profile); err != nil {
		return nil, err
	}

	return &models.SocialAccount{
		ID:                   newID(),
		Platform:             models.PlatformFacebook,
		Name:                 profile.Name,
		AccountID:            profile.ID,
		AuthToken:            longLived,
		AccessTokenExpiresAt: &expiresAt,
		TokenIssuedAt:        time.Now(),
		Connected:            true,
		Status:               models.AccountStatusActive,
		Metadata:             map[string]any{"profile_picture": profile.Picture.Data.URL},
	}, nil
}

// Facebook has no refresh token. The current long-lived token is exchanged
// for a fresh one before it expires.
func (d *facebookDriver) exchangeLongLived(ctx context.Context, token string) (string, time.Time, error) {
	var resp transfer.FacebookTokenResponse
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", d.creds.ClientID)
	q.Set("client_secret", d.creds.ClientSecret)
	q.Set("fb_exchange_token", token)
	if _, err := d.client.Do(ctx, &Request{Method: http.MethodGet, URL: d.v("/oauth/access_token"), Query: q, Out: &resp}); err != nil {
		return "", time.Time{}, err
	}

	expiresIn := resp.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 60 * 24 * 3600
	}
	return resp.AccessToken, time.Now().Add(time.Duration(expiresIn) * time.Second), nil
}

func (d *facebookDriver) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
	token, expiresAt, err := d.exchangeLongLived(ctx, acc.AuthToken)
	if err != nil {
		return nil, err
	}
	out := *acc
	out.AuthToken = token
	out.AccessTokenExpiresAt = &expiresAt
	out.TokenIssuedAt = time.Now()
	out.Status = models.AccountStatusActive
	return &out, nil
}

func (d *facebookDriver) DisconnectAccount(ctx context.Context, acc *models.SocialAccount) error {
	acc.Connected = false
	acc.Status = models.AccountStatusDisconnected
	return nil
}

func (d *facebookDriver) ListPages(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error) {
	var pages []*models.SocialPage
	after := ""

	for {
		var resp transfer.FacebookPagesResponse
		q := url.Values{}
		q.Set("fields", "id,name,access_token,category,followers_count")
		q.Set("limit", "100")
		if after != "" {
			q.Set("after", after)
		}
		if _, err := d.client.Do(ctx, &Request{
			Method: http.MethodGet,
			URL:    d.v("/" + acc.AccountID + "/accounts"),
			Token:  acc.AuthToken,
			Query:  q,
			Out:    &resp,
		}); err != nil {
			return nil, err
		}

		for _, p := range resp.Data {
			pages = append(pages, &models.SocialPage{
				ID:              newID(),
				Platform:        models.PlatformFacebook,
				EntityType:      models.EntityTypePage,
				Name:            p.Name,
				PageID:          p.ID,
				AuthToken:       p.AccessToken,
				Connected:       true,
				Status:          models.AccountStatusActive,
				AccountID:       acc.ID,
				StatusUpdatedAt: time.Now(),
				FollowerCount:   p.FollowersCount,
				Metadata:        map[string]any{"category": p.Category},
			})
		}

		if resp.Paging.Next == "" || resp.Paging.Cursors.After == "" {
			break
		}
		after = resp.Paging.Cursors.After
	}

	return pages, nil
}

func (d *facebookDriver) ConnectPage(ctx context.Context, acc *models.SocialAccount, pageID string) (*models.SocialPage, error) {
	pages, err := d.ListPages(ctx, acc)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p.PageID == pageID {
			return p, nil
		}
	}
	return nil, NewError(ErrCodeAPI, d.cfg.Name, fmt.Sprintf("page %s is not managed by this account", pageID))
}

func (d *facebookDriver) DisconnectPage(ctx context.Context, page *models.SocialPage) error {
	page.Connected = false
	page.Status = models.AccountStatusExpired
	return nil
}

func (d *facebookDriver) CheckPageStatus(ctx context.Context, page *models.SocialPage) *models.SocialPage {
	var out transfer.FacebookPage
	err := d.client.GetJSON(ctx, d.v("/"+page.PageID+"?fields=id,name"), page.AuthToken, &out)
	if err != nil {
		return markPage(page, models.AccountStatusExpired)
	}
	return markPage(page, models.AccountStatusActive)
}

func (d *facebookDriver) CreatePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	if opts != nil && opts.IsDraft {
		h := publishResult(page, content, opts, "")
		h.Status = models.PostStatusDraft
		return h, nil
	}
	return d.PublishPost(ctx, page, content, opts)
}

func (d *facebookDriver) PublishPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}

	var (
		postID string
		err    error
	)

	switch {
	case content.Media == nil || len(content.Media.URLs) == 0:
		postID, err = d.publishText(ctx, page, content, opts)
	case content.Media.Type == models.MediaTypeStory:
		postID, err = d.publishStory(ctx, page, content)
	case content.Media.Type == models.MediaTypeVideo:
		postID, err = d.publishVideo(ctx, page, content, opts)
	case content.Media.Type == models.MediaTypeCarousel || len(content.Media.URLs) > 1:
		postID, err = d.publishCarousel(ctx, page, content, opts)
	default:
		postID, err = d.publishPhoto(ctx, page, content, opts)
	}
	if err != nil {
		return nil, err
	}

	d.recordPostID(ctx, opts, postID, page.ID)
	return publishResult(page, content, opts, postID), nil
}

// scheduled publishes go out unpublished with scheduled_publish_time set.
func applyFacebookScheduling(body map[string]any, opts *models.PublishOptions) {
	if opts != nil && opts.ScheduledAt != nil && opts.ScheduledAt.After(time.Now()) {
		body["published"] = false
		body["scheduled_publish_time"] = opts.ScheduledAt.Unix()
	}
}

func (d *facebookDriver) publishText(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (string, error) {
	body := map[string]any{"message": content.Text}
	if content.Link != nil {
		body["link"] = content.Link.URL
	}
	applyFacebookScheduling(body, opts)

	var resp transfer.FacebookPublishResponse
	if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/feed"), page.AuthToken, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *facebookDriver) publishPhoto(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (string, error) {
	body := map[string]any{
		"url":     content.Media.URLs[0],
		"message": content.Text,
	}
	applyFacebookScheduling(body, opts)

	var resp transfer.FacebookPublishResponse
	if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/photos"), page.AuthToken, body, &resp); err != nil {
		return "", err
	}
	if resp.PostID != "" {
		return resp.PostID, nil
	}
	return resp.ID, nil
}

func (d *facebookDriver) publishVideo(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (string, error) {
	body := map[string]any{
		"file_url":    content.Media.URLs[0],
		"description": content.Text,
	}
	applyFacebookScheduling(body, opts)

	var resp transfer.FacebookPublishResponse
	if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/videos"), page.AuthToken, body, &resp); err != nil {
		return "", err
	}

	if err := d.pipeline.Await(ctx, d.cfg.Name, resp.ID, d.videoStatus(page)); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *facebookDriver) videoStatus(page *models.SocialPage) StatusFunc {
	return func(ctx context.Context, videoID string) (ContainerState, string, error) {
		var status transfer.FacebookVideoStatus
		if err := d.client.GetJSON(ctx, d.v("/"+videoID+"?fields=status"), page.AuthToken, &status); err != nil {
			return StateInProgress, "", err
		}
		switch {
		case status.Status.VideoStatus == "error":
			return StateError, "video processing failed", nil
		case status.Status.UploadingPhase.Status == "complete" && status.Status.ProcessingPhase.Status == "complete":
			return StateFinished, "", nil
		case status.Status.VideoStatus == "ready":
			return StateFinished, "", nil
		default:
			return StateInProgress, status.Status.VideoStatus, nil
		}
	}
}

func (d *facebookDriver) publishCarousel(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (string, error) {
	attached := make([]map[string]string, 0, len(content.Media.URLs))

	for _, mediaURL := range content.Media.URLs {
		var resp transfer.FacebookPublishResponse
		body := map[string]any{
			"url":       mediaURL,
			"published": false,
			"temporary": true,
		}
		if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/photos"), page.AuthToken, body, &resp); err != nil {
			return "", err
		}
		attached = append(attached, map[string]string{"media_fbid": resp.ID})
	}

	body := map[string]any{
		"message":        content.Text,
		"attached_media": attached,
	}
	applyFacebookScheduling(body, opts)

	var resp transfer.FacebookPublishResponse
	if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/feed"), page.AuthToken, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *facebookDriver) publishStory(ctx context.Context, page *models.SocialPage, content *models.PostContent) (string, error) {
	mediaURL := content.Media.URLs[0]

	if content.Media.Type == models.MediaTypeStory && content.Media.Duration > 0 {
		return d.publishVideoStory(ctx, page, mediaURL)
	}

	var photo transfer.FacebookPublishResponse
	if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/photos"), page.AuthToken, map[string]any{
		"url":       mediaURL,
		"published": false,
	}, &photo); err != nil {
		return "", err
	}

	var story transfer.FacebookPublishResponse
	if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/photo_stories"), page.AuthToken, map[string]any{
		"photo_id": photo.ID,
	}, &story); err != nil {
		return "", err
	}
	return story.ID, nil
}

func (d *facebookDriver) publishVideoStory(ctx context.Context, page *models.SocialPage, mediaURL string) (string, error) {
	var start transfer.FacebookStoryStart
	if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/video_stories"), page.AuthToken, map[string]any{
		"upload_phase": "start",
	}, &start); err != nil {
		return "", err
	}

	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    start.UploadURL,
		Token:  page.AuthToken,
		Header: http.Header{"file_url": []string{mediaURL}},
	}); err != nil {
		return "", err
	}

	if err := d.pipeline.Await(ctx, d.cfg.Name, start.VideoID, d.videoStatus(page)); err != nil {
		return "", err
	}

	var finish transfer.FacebookPublishResponse
	if err := d.client.PostJSON(ctx, d.v("/"+page.PageID+"/video_stories"), page.AuthToken, map[string]any{
		"upload_phase": "finish",
		"video_id":     start.VideoID,
	}, &finish); err != nil {
		return "", err
	}
	if finish.PostID != "" {
		return finish.PostID, nil
	}
	return start.VideoID, nil
}

func (d *facebookDriver) SchedulePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error) {
	return d.schedule(ctx, d, page, content, at)
}

func (d *facebookDriver) DeletePost(ctx context.Context, page *models.SocialPage, postID string) error {
	return d.client.Delete(ctx, d.v("/"+postID), page.AuthToken)
}

func (d *facebookDriver) GetPostHistory(ctx context.Context, page *models.SocialPage, limit int, cursor string) ([]*models.PostHistory, string, error) {
	if limit <= 0 {
		limit = 20
	}

	var resp transfer.FacebookPostsResponse
	q := url.Values{}
	q.Set("fields", "id,message,created_time,attachments{media_type,media,subattachments}")
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("after", cursor)
	}
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.v("/" + page.PageID + "/posts"),
		Token:  page.AuthToken,
		Query:  q,
		Out:    &resp,
	}); err != nil {
		return nil, "", err
	}

	history := make([]*models.PostHistory, 0, len(resp.Data))
	for _, post := range resp.Data {
		h := &models.PostHistory{
			ID:      newID(),
			PageID:  page.ID,
			PostID:  post.ID,
			Content: post.Message,
			Status:  models.PostStatusPublished,
		}
		if t, err := time.Parse("2006-01-02T15:04:05-0700", post.CreatedTime); err == nil {
			h.PublishedAt = t
		}
		for _, att := range post.Attachments.Data {
			h.MediaURLs = append(h.MediaURLs, facebookAttachmentURLs(att)...)
		}
		history = append(history, NormalizePostHistory(h, page))
	}

	next := ""
	if resp.Paging.Next != "" {
		next = resp.Paging.Cursors.After
	}
	return history, next, nil
}

func facebookAttachmentURLs(att transfer.FacebookAttachment) []string {
	var urls []string
	switch att.MediaType {
	case "photo":
		if att.Media.Image.Src != "" {
			urls = append(urls, att.Media.Image.Src)
		}
	case "video", "video_inline":
		if att.Media.Source != "" {
			urls = append(urls, att.Media.Source)
		} else if att.Media.Image.Src != "" {
			urls = append(urls, att.Media.Image.Src)
		}
	case "album":
		for _, sub := range att.Subattachments.Data {
			urls = append(urls, facebookAttachmentURLs(sub)...)
		}
	}
	return urls
}

func (d *facebookDriver) GetPostAnalytics(ctx context.Context, page *models.SocialPage, postID string) (*models.PostAnalytics, error) {
	var resp transfer.FacebookInsightsResponse
	q := url.Values{}
	q.Set("metric", "post_impressions,post_reactions_by_type_total,post_clicks")
	q.Set("period", "lifetime")
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.v("/" + postID + "/insights"),
		Token:  page.AuthToken,
		Query:  q,
		Out:    &resp,
	}); err != nil {
		return nil, err
	}

	analytics := &models.PostAnalytics{Metadata: map[string]any{}}
	for _, metric := range resp.Data {
		if len(metric.Values) == 0 {
			continue
		}
		value := metric.Values[0].Value
		switch metric.Name {
		case "post_impressions":
			analytics.Reach = asInt64(value)
		case "post_clicks":
			analytics.Clicks = asInt64(value)
		case "post_reactions_by_type_total":
			// reaction breakdown comes back as an object keyed by type
			if m, ok := value.(map[string]any); ok {
				var total int64
				for _, v := range m {
					total += asInt64(v)
				}
				analytics.Likes = total
				analytics.Metadata["reactions"] = m
			}
		}
	}
	return analytics, nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
