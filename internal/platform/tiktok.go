package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/transfer"
)

type tiktokDriver struct {
	base
}

// NewTikTok builds the TikTok driver. Publishing goes through the content
// posting API with PULL_FROM_URL sources, so media must be publicly
// reachable.
func NewTikTok(creds Credentials, opts ...Option) Driver {
	return &tiktokDriver{base: newBase(Lookup(models.PlatformTikTok), creds, opts...)}
}

// TikTok names the client id "client_key" on the consent URL.
func (d *tiktokDriver) AuthURL() (string, error) {
	rawURL, err := d.authURL(",", url.Values{"client_key": {d.creds.ClientID}})
	if err != nil {
		return "", err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Del("client_id")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// tiktokOK rejects responses whose error envelope is not "ok". TikTok
// returns 200 with the failure inside the body.
func (d *tiktokDriver) tiktokOK(e transfer.TiktokError) error {
	if e.Code == "" || e.Code == "ok" {
		return nil
	}
	if e.Code == "access_token_invalid" {
		return NewTokenExpiredError(d.cfg.Name, nil)
	}
	return NewError(ErrCodeAPI, d.cfg.Name, e.Code+": "+e.Message)
}

func (d *tiktokDriver) token(ctx context.Context, grantType string, params url.Values) (*transfer.TiktokTokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", d.creds.ClientID)
	form.Set("client_secret", d.creds.ClientSecret)
	form.Set("grant_type", grantType)
	for k, vs := range params {
		for _, v := range vs {
			form.Set(k, v)
		}
	}

	var token transfer.TiktokTokenResponse
	if err := d.client.PostForm(ctx, d.url("/v2/oauth/token/"), form, nil, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, NewError(ErrCodeAPI, d.cfg.Name, "token endpoint returned no access token")
	}
	return &token, nil
}

func (d *tiktokDriver) ConnectAccount(ctx context.Context, code string) (*models.SocialAccount, error) {
	token, err := d.token(ctx, "authorization_code", url.Values{
		"code":         {code},
		"redirect_uri": {d.creds.RedirectURI},
	})
	if err != nil {
		return nil, err
	}

	user, err := d.userInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	accessExpiry := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	refreshExpiry := time.Now().Add(time.Duration(token.RefreshExpiresIn) * time.Second)
	return &models.SocialAccount{
		ID:                    newID(),
		Platform:              models.PlatformTikTok,
		Name:                  user.DisplayName,
		AccountID:             token.OpenID,
		AuthToken:             token.AccessToken,
		RefreshToken:          token.RefreshToken,
		AccessTokenExpiresAt:  &accessExpiry,
		RefreshTokenExpiresAt: &refreshExpiry,
		TokenIssuedAt:         time.Now(),
		Connected:             true,
		Status:                models.AccountStatusActive,
		Metadata: map[string]any{
			"username":       user.Username,
			"avatar_url":     user.AvatarURL,
			"follower_count": user.FollowerCount,
		},
	}, nil
}

func (d *tiktokDriver) userInfo(ctx context.Context, token string) (*transfer.TiktokUser, error) {
	var resp transfer.TiktokUserResponse
	q := url.Values{}
	q.Set("fields", "open_id,union_id,avatar_url,display_name,username,follower_count,following_count,likes_count,video_count")
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.url("/v2/user/info/"),
		Token:  token,
		Query:  q,
		Out:    &resp,
	}); err != nil {
		return nil, err
	}
	if err := d.tiktokOK(resp.Error); err != nil {
		return nil, err
	}
	return &resp.Data.User, nil
}

func (d *tiktokDriver) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
	if acc.RefreshToken == "" {
		return nil, NewTokenExpiredError(d.cfg.Name, nil)
	}

	token, err := d.token(ctx, "refresh_token", url.Values{"refresh_token": {acc.RefreshToken}})
	if err != nil {
		return nil, err
	}

	out := *acc
	out.AuthToken = token.AccessToken
	out.RefreshToken = token.RefreshToken
	accessExpiry := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	refreshExpiry := time.Now().Add(time.Duration(token.RefreshExpiresIn) * time.Second)
	out.AccessTokenExpiresAt = &accessExpiry
	out.RefreshTokenExpiresAt = &refreshExpiry
	out.TokenIssuedAt = time.Now()
	out.Status = models.AccountStatusActive
	return &out, nil
}

// DisconnectAccount revokes the token on TikTok's side before flipping the
// local flags.
func (d *tiktokDriver) DisconnectAccount(ctx context.Context, acc *models.SocialAccount) error {
	form := url.Values{}
	form.Set("client_key", d.creds.ClientID)
	form.Set("client_secret", d.creds.ClientSecret)
	form.Set("token", acc.AuthToken)

	var resp transfer.TiktokRevokeData
	if err := d.client.PostForm(ctx, d.url("/v2/oauth/revoke/"), form, nil, &resp); err != nil {
		d.logger.Error("tiktok token revoke failed", "error", err)
	}

	acc.Connected = false
	acc.Status = models.AccountStatusDisconnected
	return nil
}

// TikTok has no page concept, the account itself is the single destination.
func (d *tiktokDriver) ListPages(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error) {
	user, err := d.userInfo(ctx, acc.AuthToken)
	if err != nil {
		return nil, err
	}

	return []*models.SocialPage{{
		ID:              newID(),
		Platform:        models.PlatformTikTok,
		EntityType:      models.EntityTypeProfile,
		Name:            user.DisplayName,
		PageID:          user.OpenID,
		AuthToken:       acc.AuthToken,
		Connected:       true,
		Status:          models.AccountStatusActive,
		AccountID:       acc.ID,
		StatusUpdatedAt: time.Now(),
		PostCount:       user.VideoCount,
		FollowerCount:   user.FollowerCount,
		Metadata:        map[string]any{"username": user.Username},
	}}, nil
}

func (d *tiktokDriver) ConnectPage(ctx context.Context, acc *models.SocialAccount, pageID string) (*models.SocialPage, error) {
	pages, err := d.ListPages(ctx, acc)
	if err != nil {
		return nil, err
	}
	return pages[0], nil
}

func (d *tiktokDriver) DisconnectPage(ctx context.Context, page *models.SocialPage) error {
	page.Connected = false
	page.Status = models.AccountStatusDisconnected
	return nil
}

func (d *tiktokDriver) CheckPageStatus(ctx context.Context, page *models.SocialPage) *models.SocialPage {
	if _, err := d.userInfo(ctx, page.AuthToken); err != nil {
		return markPage(page, models.AccountStatusExpired)
	}
	return markPage(page, models.AccountStatusActive)
}

// CreatorInfo reports the posting constraints TikTok enforces for this
// creator (privacy options, max duration). Callers surface these in the
// compose UI.
func (d *tiktokDriver) CreatorInfo(ctx context.Context, page *models.SocialPage) (*transfer.TiktokCreatorInfo, error) {
	var resp transfer.TiktokCreatorInfoResponse
	if err := d.client.PostJSON(ctx, d.url("/v2/post/publish/creator_info/query/"), page.AuthToken, map[string]any{}, &resp); err != nil {
		return nil, err
	}
	if err := d.tiktokOK(resp.Error); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (d *tiktokDriver) CreatePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	return d.PublishPost(ctx, page, content, opts)
}

func (d *tiktokDriver) PublishPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	if content.Media == nil || len(content.Media.URLs) == 0 {
		return nil, NewValidationError(d.cfg.Name, "TikTok requires at least one media item")
	}
	if opts != nil && opts.ScheduledAt != nil {
		return nil, NewNotSupportedError(d.cfg.Name, "scheduling")
	}

	privacy := "SELF_ONLY"
	var tt *models.TikTokOptions
	if opts != nil && opts.TikTok != nil {
		tt = opts.TikTok
		if tt.PrivacyLevel != "" {
			privacy = tt.PrivacyLevel
		}
	}

	// TikTok rejects posts whose privacy level the creator cannot use, so
	// check before uploading anything
	info, err := d.CreatorInfo(ctx, page)
	if err != nil {
		return nil, err
	}
	if !privacyAllowed(privacy, info.PrivacyLevelOptions) {
		return nil, NewValidationError(d.cfg.Name, "privacy level "+privacy+" is not available for this creator")
	}

	publish := func(ctx context.Context) (string, error) {
		if content.Media.Type == models.MediaTypeVideo {
			return d.initVideoPost(ctx, page, content, privacy, tt)
		}
		return d.initPhotoPost(ctx, page, content, privacy, tt)
	}

	publishID, err := d.pipeline.Run(ctx, d.cfg.Name, publish, d.publishStatus(page), func(ctx context.Context, id string) (string, error) {
		return id, nil
	})
	if err != nil {
		return nil, err
	}

	d.recordPostID(ctx, opts, publishID, page.ID)
	return publishResult(page, content, opts, publishID), nil
}

func privacyAllowed(level string, options []string) bool {
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == level {
			return true
		}
	}
	return false
}

func (d *tiktokDriver) initVideoPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, privacy string, tt *models.TikTokOptions) (string, error) {
	title := content.Title
	if title == "" {
		title = content.Text
	}

	body := transfer.VideoUploadRequest{
		PostInfo: transfer.VideoPostInfo{
			Title:        title,
			PrivacyLevel: privacy,
		},
		SourceInfo: transfer.VideoSourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: content.Media.URLs[0],
		},
	}
	if tt != nil {
		body.PostInfo.DisableDuet = tt.DisableDuet
		body.PostInfo.DisableComment = tt.DisableComment
		body.PostInfo.DisableStitch = tt.DisableStitch
		body.PostInfo.BrandContentToggle = tt.BrandContentToggle
		body.PostInfo.BrandOrganicToggle = tt.BrandOrganicToggle
		body.PostInfo.IsAIGC = tt.IsAIGC
		body.PostInfo.VideoCoverTimestampMs = tt.VideoCoverTimestampMS
	}

	var resp transfer.TiktokPublishResponse
	if err := d.client.PostJSON(ctx, d.url("/v2/post/publish/video/init/"), page.AuthToken, body, &resp); err != nil {
		return "", err
	}
	if err := d.tiktokOK(resp.Error); err != nil {
		return "", err
	}
	return resp.Data.PublishID, nil
}

func (d *tiktokDriver) initPhotoPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, privacy string, tt *models.TikTokOptions) (string, error) {
	body := transfer.PhotoUploadRequest{
		PostInfo: transfer.PhotoPostInfo{
			Title:        content.Title,
			Description:  content.Text,
			PrivacyLevel: privacy,
			AutoAddMusic: true,
		},
		SourceInfo: transfer.PhotoSourceInfo{
			Source:      "PULL_FROM_URL",
			PhotoImages: content.Media.URLs,
		},
		PostMode:  "DIRECT_POST",
		MediaType: "PHOTO",
	}
	if tt != nil {
		body.PostInfo.DisableComment = tt.DisableComment
		body.PostInfo.BrandContentToggle = tt.BrandContentToggle
		body.PostInfo.BrandOrganicToggle = tt.BrandOrganicToggle
		body.PostInfo.AutoAddMusic = tt.AutoAddMusic
	}

	var resp transfer.TiktokPublishResponse
	if err := d.client.PostJSON(ctx, d.url("/v2/post/publish/content/init/"), page.AuthToken, body, &resp); err != nil {
		return "", err
	}
	if err := d.tiktokOK(resp.Error); err != nil {
		return "", err
	}
	return resp.Data.PublishID, nil
}

func (d *tiktokDriver) publishStatus(page *models.SocialPage) StatusFunc {
	return func(ctx context.Context, publishID string) (ContainerState, string, error) {
		var resp transfer.TiktokPublishStatusResponse
		if err := d.client.PostJSON(ctx, d.url("/v2/post/publish/status/fetch/"), page.AuthToken, map[string]any{
			"publish_id": publishID,
		}, &resp); err != nil {
			return StateInProgress, "", err
		}
		if err := d.tiktokOK(resp.Error); err != nil {
			return StateInProgress, "", err
		}
		switch resp.Data.Status {
		case "PUBLISH_COMPLETE":
			return StateFinished, "", nil
		case "FAILED":
			return StateError, resp.Data.FailReason, nil
		default:
			return StateInProgress, resp.Data.Status, nil
		}
	}
}

func (d *tiktokDriver) SchedulePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error) {
	return d.schedule(ctx, d, page, content, at)
}

func (d *tiktokDriver) DeletePost(ctx context.Context, page *models.SocialPage, postID string) error {
	return NewNotSupportedError(d.cfg.Name, "post deletion")
}

func (d *tiktokDriver) GetPostHistory(ctx context.Context, page *models.SocialPage, limit int, cursor string) ([]*models.PostHistory, string, error) {
	if limit <= 0 || limit > 20 {
		limit = 20
	}

	body := map[string]any{"max_count": limit}
	if cursor != "" {
		if n, err := strconv.ParseInt(cursor, 10, 64); err == nil {
			body["cursor"] = n
		}
	}

	var resp transfer.TiktokVideoListResponse
	q := url.Values{}
	q.Set("fields", "id,title,video_description,cover_image_url,create_time,share_url,like_count,comment_count,share_count,view_count")
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    d.url("/v2/video/list/"),
		Token:  page.AuthToken,
		Query:  q,
		Body:   body,
		Out:    &resp,
	}); err != nil {
		return nil, "", err
	}
	if err := d.tiktokOK(resp.Error); err != nil {
		return nil, "", err
	}

	history := make([]*models.PostHistory, 0, len(resp.Data.Videos))
	for _, v := range resp.Data.Videos {
		text := v.VideoDescription
		if text == "" {
			text = v.Title
		}
		h := &models.PostHistory{
			ID:          newID(),
			PageID:      page.ID,
			PostID:      v.ID,
			Content:     text,
			MediaURLs:   []string{v.CoverImageURL},
			Status:      models.PostStatusPublished,
			PublishedAt: time.Unix(v.CreateTime, 0),
			Analytics: &models.PostAnalytics{
				Likes:    v.LikeCount,
				Comments: v.CommentCount,
				Shares:   v.ShareCount,
				Views:    v.ViewCount,
				Metadata: map[string]any{"share_url": v.ShareURL},
			},
		}
		history = append(history, NormalizePostHistory(h, page))
	}

	next := ""
	if resp.Data.HasMore {
		next = strconv.FormatInt(resp.Data.Cursor, 10)
	}
	return history, next, nil
}

func (d *tiktokDriver) GetPostAnalytics(ctx context.Context, page *models.SocialPage, postID string) (*models.PostAnalytics, error) {
	var resp transfer.TiktokVideoListResponse
	q := url.Values{}
	q.Set("fields", "id,like_count,comment_count,share_count,view_count")
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    d.url("/v2/video/query/"),
		Token:  page.AuthToken,
		Query:  q,
		Body:   map[string]any{"filters": map[string]any{"video_ids": []string{postID}}},
		Out:    &resp,
	}); err != nil {
		return nil, err
	}
	if err := d.tiktokOK(resp.Error); err != nil {
		return nil, err
	}
	if len(resp.Data.Videos) == 0 {
		return &models.PostAnalytics{}, nil
	}

	v := resp.Data.Videos[0]
	return &models.PostAnalytics{
		Likes:    v.LikeCount,
		Comments: v.CommentCount,
		Shares:   v.ShareCount,
		Views:    v.ViewCount,
	}, nil
}
