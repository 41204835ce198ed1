package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/transfer"
)

// MethodInstagramBusiness selects the direct Instagram business login instead
// of the Facebook-linked flow.
const MethodInstagramBusiness = "instagram_business"

type instagramDriver struct {
	base
	direct bool
}

// NewInstagram builds the Facebook-login Instagram driver: accounts come from
// Facebook pages with a linked Instagram business account.
func NewInstagram(creds Credentials, opts ...Option) Driver {
	return &instagramDriver{base: newBase(Lookup(models.PlatformInstagram), creds, opts...)}
}

// NewInstagramBusiness builds the direct business-login driver. Same vendor
// family, its own credentials, scopes and token semantics.
func NewInstagramBusiness(creds Credentials, opts ...Option) Driver {
	cfg := *Lookup(models.PlatformInstagram)
	cfg.BaseURL = "https://graph.instagram.com"
	cfg.AuthURL = "https://www.instagram.com/oauth/authorize"
	cfg.Scopes = []string{
		"instagram_business_basic",
		"instagram_business_content_publish",
		"instagram_business_manage_comments",
	}
	cfg.Features.Deletion = true
	return &instagramDriver{base: newBase(&cfg, creds, opts...), direct: true}
}

func (d *instagramDriver) AuthURL() (string, error) {
	if d.direct {
		return d.authURL(",", url.Values{"enable_fb_login": {"0"}, "force_authentication": {"1"}})
	}
	return d.authURL(",", nil)
}

func (d *instagramDriver) ConnectAccount(ctx context.Context, code string) (*models.SocialAccount, error) {
	if d.direct {
		return d.connectDirect(ctx, code)
	}
	return d.connectViaFacebook(ctx, code)
}

func (d *instagramDriver) connectViaFacebook(ctx context.Context, code string) (*models.SocialAccount, error) {
	var short transfer.FacebookTokenResponse
	q := url.Values{}
	q.Set("client_id", d.creds.ClientID)
	q.Set("client_secret", d.creds.ClientSecret)
	q.Set("redirect_uri", d.creds.RedirectURI)
	q.Set("code", code)
	if _, err := d.client.Do(ctx, &Request{Method: http.MethodGet, URL: d.url("/" + d.cfg.APIVersion + "/oauth/access_token"), Query: q, Out: &short}); err != nil {
		return nil, err
	}

	var long transfer.FacebookTokenResponse
	q = url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", d.creds.ClientID)
	q.Set("client_secret", d.creds.ClientSecret)
	q.Set("fb_exchange_token", short.AccessToken)
	if _, err := d.client.Do(ctx, &Request{Method: http.MethodGet, URL: d.url("/" + d.cfg.APIVersion + "/oauth/access_token"), Query: q, Out: &long}); err != nil {
		return nil, err
	}

	var profile transfer.FacebookProfile
	if err := d.client.GetJSON(ctx, d.url("/"+d.cfg.APIVersion+"/me?fields=id,name"), long.AccessToken, &profile); err != nil {
		return nil, err
	}

	expiresIn := long.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 60 * 24 * 3600
	}
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)

	return &models.SocialAccount{
		ID:                   newID(),
		Platform:             models.PlatformInstagram,
		Name:                 profile.Name,
		AccountID:            profile.ID,
		AuthToken:            long.AccessToken,
		AccessTokenExpiresAt: &expiresAt,
		TokenIssuedAt:        time.Now(),
		Connected:            true,
		Status:               models.AccountStatusActive,
	}, nil
}

func (d *instagramDriver) connectDirect(ctx context.Context, code string) (*models.SocialAccount, error) {
	form := url.Values{}
	form.Set("client_id", d.creds.ClientID)
	form.Set("client_secret", d.creds.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", d.creds.RedirectURI)
	form.Set("code", code)

	var short transfer.InstagramTokenResponse
	if err := d.client.PostForm(ctx, d.url("/oauth/access_token"), form, nil, &short); err != nil {
		return nil, err
	}

	var long transfer.InstagramTokenResponse
	q := url.Values{}
	q.Set("grant_type", "ig_exchange_token")
	q.Set("client_secret", d.creds.ClientSecret)
	q.Set("access_token", short.AccessToken)
	if _, err := d.client.Do(ctx, &Request{Method: http.MethodGet, URL: d.url("/access_token"), Query: q, Out: &long}); err != nil {
		return nil, err
	}

	var user transfer.InstagramUserInfo
	if err := d.client.GetJSON(ctx, d.url("/me?fields=id,username,name,profile_picture_url"), long.AccessToken, &user); err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(time.Duration(long.ExpiresIn) * time.Second)
	return &models.SocialAccount{
		ID:                   newID(),
		Platform:             models.PlatformInstagram,
		Name:                 user.Username,
		AccountID:            user.UserID,
		AuthToken:            long.AccessToken,
		AccessTokenExpiresAt: &expiresAt,
		TokenIssuedAt:        time.Now(),
		Connected:            true,
		Status:               models.AccountStatusActive,
		Metadata:             map[string]any{"login_method": MethodInstagramBusiness, "profile_picture": user.ProfilePicture},
	}, nil
}

func (d *instagramDriver) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
	if d.direct {
		var resp transfer.InstagramTokenResponse
		q := url.Values{}
		q.Set("grant_type", "ig_refresh_token")
		q.Set("access_token", acc.AuthToken)
		if _, err := d.client.Do(ctx, &Request{Method: http.MethodGet, URL: d.url("/refresh_access_token"), Query: q, Out: &resp}); err != nil {
			return nil, err
		}
		out := *acc
		out.AuthToken = resp.AccessToken
		expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
		out.AccessTokenExpiresAt = &expiresAt
		out.TokenIssuedAt = time.Now()
		out.Status = models.AccountStatusActive
		return &out, nil
	}

	var long transfer.FacebookTokenResponse
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", d.creds.ClientID)
	q.Set("client_secret", d.creds.ClientSecret)
	q.Set("fb_exchange_token", acc.AuthToken)
	if _, err := d.client.Do(ctx, &Request{Method: http.MethodGet, URL: d.url("/" + d.cfg.APIVersion + "/oauth/access_token"), Query: q, Out: &long}); err != nil {
		return nil, err
	}

	out := *acc
	out.AuthToken = long.AccessToken
	expiresIn := long.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 60 * 24 * 3600
	}
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)
	out.AccessTokenExpiresAt = &expiresAt
	out.TokenIssuedAt = time.Now()
	out.Status = models.AccountStatusActive
	return &out, nil
}

func (d *instagramDriver) DisconnectAccount(ctx context.Context, acc *models.SocialAccount) error {
	acc.Connected = false
	acc.Status = models.AccountStatusDisconnected
	return nil
}

func (d *instagramDriver) ListPages(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error) {
	if d.direct {
		page := &models.SocialPage{
			ID:              newID(),
			Platform:        models.PlatformInstagram,
			EntityType:      models.EntityTypeProfile,
			Name:            acc.Name,
			PageID:          acc.AccountID,
			AuthToken:       acc.AuthToken,
			Connected:       true,
			Status:          models.AccountStatusActive,
			AccountID:       acc.ID,
			StatusUpdatedAt: time.Now(),
			Metadata:        map[string]any{"login_method": MethodInstagramBusiness},
		}
		return []*models.SocialPage{page}, nil
	}

	var resp transfer.FacebookPagesResponse
	q := url.Values{}
	q.Set("fields", "id,name,access_token,instagram_business_account,connected_instagram_account")
	q.Set("limit", "100")
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.url("/" + d.cfg.APIVersion + "/me/accounts"),
		Token:  acc.AuthToken,
		Query:  q,
		Out:    &resp,
	}); err != nil {
		return nil, err
	}

	var pages []*models.SocialPage
	for _, fbPage := range resp.Data {
		igID := ""
		if fbPage.InstagramBusinessAccount != nil {
			igID = fbPage.InstagramBusinessAccount.ID
		} else if fbPage.ConnectedInstagramAccount != nil {
			igID = fbPage.ConnectedInstagramAccount.ID
		}
		if igID == "" {
			continue
		}

		var user transfer.InstagramUserInfo
		if err := d.client.GetJSON(ctx,
			d.url("/"+d.cfg.APIVersion+"/"+igID+"?fields=id,username,name,profile_picture_url,followers_count"),
			fbPage.AccessToken, &user); err != nil {
			d.logger.Error("failed to load instagram account details", "ig_id", igID, "error", err)
			continue
		}

		pages = append(pages, &models.SocialPage{
			ID:              newID(),
			Platform:        models.PlatformInstagram,
			EntityType:      models.EntityTypeProfile,
			Name:            user.Username,
			PageID:          igID,
			AuthToken:       fbPage.AccessToken,
			Connected:       true,
			Status:          models.AccountStatusActive,
			AccountID:       acc.ID,
			StatusUpdatedAt: time.Now(),
			FollowerCount:   user.FollowersCount,
			Metadata: map[string]any{
				"profile_picture":  user.ProfilePicture,
				"facebook_page_id": fbPage.ID,
			},
		})
	}

	return pages, nil
}

func (d *instagramDriver) ConnectPage(ctx context.Context, acc *models.SocialAccount, pageID string) (*models.SocialPage, error) {
	pages, err := d.ListPages(ctx, acc)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p.PageID == pageID || pageID == "" {
			return p, nil
		}
	}
	return nil, NewError(ErrCodeAPI, d.cfg.Name, "no matching Instagram profile on this account")
}

func (d *instagramDriver) DisconnectPage(ctx context.Context, page *models.SocialPage) error {
	page.Connected = false
	page.Status = models.AccountStatusExpired
	return nil
}

func (d *instagramDriver) CheckPageStatus(ctx context.Context, page *models.SocialPage) *models.SocialPage {
	var user transfer.InstagramUserInfo
	err := d.client.GetJSON(ctx, d.mediaURL("/"+page.PageID+"?fields=id,username"), page.AuthToken, &user)
	if err != nil {
		return markPage(page, models.AccountStatusExpired)
	}
	return markPage(page, models.AccountStatusActive)
}

// mediaURL prefixes the API version for the graph host, direct business
// calls are unversioned.
func (d *instagramDriver) mediaURL(path string) string {
	if d.direct {
		return d.url(path)
	}
	return d.url("/" + d.cfg.APIVersion + path)
}

func (d *instagramDriver) CreatePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	if content.Media == nil || len(content.Media.URLs) == 0 {
		return nil, NewValidationError(d.cfg.Name, "Instagram requires at least one media item")
	}
	return d.PublishPost(ctx, page, content, opts)
}

func (d *instagramDriver) PublishPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	if content.Media == nil || len(content.Media.URLs) == 0 {
		return nil, NewValidationError(d.cfg.Name, "Instagram requires at least one media item")
	}

	var (
		postID string
		err    error
	)
	if len(content.Media.URLs) > 1 || content.Media.Type == models.MediaTypeCarousel {
		postID, err = d.publishCarousel(ctx, page, content, opts)
	} else {
		postID, err = d.publishSingle(ctx, page, content, opts)
	}
	if err != nil {
		return nil, err
	}

	d.recordPostID(ctx, opts, postID, page.ID)
	return publishResult(page, content, opts, postID), nil
}

func (d *instagramDriver) publishSingle(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (string, error) {
	body := map[string]any{"caption": content.Text}
	if content.Media.Type == models.MediaTypeVideo {
		body["media_type"] = "REELS"
		body["video_url"] = content.Media.URLs[0]
	} else {
		body["image_url"] = content.Media.URLs[0]
	}
	if content.Media.Type == models.MediaTypeStory {
		body["media_type"] = "STORIES"
	}

	create := func(ctx context.Context) (string, error) {
		return d.createContainer(ctx, page, body)
	}

	status := d.containerStatus(page)
	if content.Media.Type == models.MediaTypeImage {
		// image containers are ready immediately
		status = nil
	}

	return d.pipeline.Run(ctx, d.cfg.Name, create, status, d.publishContainer(page, opts))
}

func (d *instagramDriver) publishCarousel(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (string, error) {
	children := make([]string, 0, len(content.Media.URLs))

	for _, mediaURL := range content.Media.URLs {
		body := map[string]any{
			"image_url":        mediaURL,
			"is_carousel_item": true,
		}
		childID, err := d.createContainer(ctx, page, body)
		if err != nil {
			return "", err
		}
		children = append(children, childID)
	}

	create := func(ctx context.Context) (string, error) {
		return d.createContainer(ctx, page, map[string]any{
			"media_type": "CAROUSEL",
			"children":   strings.Join(children, ","),
			"caption":    content.Text,
		})
	}

	return d.pipeline.Run(ctx, d.cfg.Name, create, d.containerStatus(page), d.publishContainer(page, opts))
}

func (d *instagramDriver) createContainer(ctx context.Context, page *models.SocialPage, body map[string]any) (string, error) {
	var resp transfer.InstagramContainerResponse
	if err := d.client.PostJSON(ctx, d.mediaURL("/"+page.PageID+"/media"), page.AuthToken, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *instagramDriver) containerStatus(page *models.SocialPage) StatusFunc {
	return func(ctx context.Context, containerID string) (ContainerState, string, error) {
		var status transfer.InstagramContainerStatus
		if err := d.client.GetJSON(ctx, d.mediaURL("/"+containerID+"?fields=status_code,status"), page.AuthToken, &status); err != nil {
			return StateInProgress, "", err
		}
		switch status.StatusCode {
		case "FINISHED", "PUBLISHED":
			return ContainerState(status.StatusCode), status.Status, nil
		case "ERROR":
			return StateError, status.Status, nil
		case "EXPIRED":
			return StateExpired, status.Status, nil
		default:
			return StateInProgress, status.Status, nil
		}
	}
}

func (d *instagramDriver) publishContainer(page *models.SocialPage, opts *models.PublishOptions) PublishFunc {
	return func(ctx context.Context, containerID string) (string, error) {
		body := map[string]any{"creation_id": containerID}
		// only the direct business API honors publish_at, Graph ignores it
		if d.direct && opts != nil && opts.ScheduledAt != nil && opts.ScheduledAt.After(time.Now()) {
			body["publish_at"] = opts.ScheduledAt.Unix()
		}

		var resp transfer.InstagramContainerResponse
		if err := d.client.PostJSON(ctx, d.mediaURL("/"+page.PageID+"/media_publish"), page.AuthToken, body, &resp); err != nil {
			return "", err
		}
		return resp.ID, nil
	}
}

func (d *instagramDriver) SchedulePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error) {
	return d.schedule(ctx, d, page, content, at)
}

func (d *instagramDriver) DeletePost(ctx context.Context, page *models.SocialPage, postID string) error {
	if !d.cfg.Features.Deletion {
		return NewNotSupportedError(d.cfg.Name, "post deletion")
	}
	return d.client.Delete(ctx, d.mediaURL("/"+postID), page.AuthToken)
}

func (d *instagramDriver) GetPostHistory(ctx context.Context, page *models.SocialPage, limit int, cursor string) ([]*models.PostHistory, string, error) {
	if limit <= 0 {
		limit = 20
	}

	var resp transfer.InstagramMediaListResponse
	q := url.Values{}
	q.Set("fields", "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp")
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("after", cursor)
	}
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.mediaURL("/" + page.PageID + "/media"),
		Token:  page.AuthToken,
		Query:  q,
		Out:    &resp,
	}); err != nil {
		return nil, "", err
	}

	history := make([]*models.PostHistory, 0, len(resp.Data))
	for _, media := range resp.Data {
		h := &models.PostHistory{
			ID:      newID(),
			PageID:  page.ID,
			PostID:  media.ID,
			Content: media.Caption,
			Status:  models.PostStatusPublished,
		}
		if media.MediaURL != "" {
			h.MediaURLs = []string{media.MediaURL}
		} else if media.ThumbnailURL != "" {
			h.MediaURLs = []string{media.ThumbnailURL}
		}
		if t, err := time.Parse("2006-01-02T15:04:05-0700", media.Timestamp); err == nil {
			h.PublishedAt = t
		}
		history = append(history, NormalizePostHistory(h, page))
	}

	next := ""
	if resp.Paging.Next != "" {
		next = resp.Paging.Cursors.After
	}
	return history, next, nil
}

func (d *instagramDriver) GetPostAnalytics(ctx context.Context, page *models.SocialPage, postID string) (*models.PostAnalytics, error) {
	var resp transfer.InstagramInsightsResponse
	q := url.Values{}
	q.Set("metric", "impressions,reach,saved,likes,comments,shares")
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.mediaURL("/" + postID + "/insights"),
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
		case "impressions":
			analytics.Views = value
		case "reach":
			analytics.Reach = value
		case "likes":
			analytics.Likes = value
		case "comments":
			analytics.Comments = value
		case "shares":
			analytics.Shares = value
		case "saved":
			analytics.Metadata["saved"] = value
		}
	}
	return analytics, nil
}
