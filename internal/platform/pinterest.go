package platform

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/transfer"
)

type pinterestDriver struct {
	base
}

// NewPinterest builds the Pinterest boards driver. No native scheduling,
// schedule calls fail fast without touching the network.
func NewPinterest(creds Credentials, opts ...Option) Driver {
	return &pinterestDriver{base: newBase(Lookup(models.PlatformPinterest), creds, opts...)}
}

func (d *pinterestDriver) v(path string) string {
	return d.url("/" + d.cfg.APIVersion + path)
}

func (d *pinterestDriver) AuthURL() (string, error) {
	return d.authURL(",", nil)
}

func (d *pinterestDriver) basicAuth() http.Header {
	raw := base64.StdEncoding.EncodeToString([]byte(d.creds.ClientID + ":" + d.creds.ClientSecret))
	return http.Header{"Authorization": []string{"Basic " + raw}}
}

func (d *pinterestDriver) ConnectAccount(ctx context.Context, code string) (*models.SocialAccount, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", d.creds.RedirectURI)

	var token transfer.PinterestTokenResponse
	if err := d.client.PostForm(ctx, d.v("/oauth/token"), form, d.basicAuth(), &token); err != nil {
		return nil, err
	}

	var user transfer.PinterestUser
	if err := d.client.GetJSON(ctx, d.v("/user_account"), token.AccessToken, &user); err != nil {
		return nil, err
	}

	accessExpiry := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	refreshExpiry := time.Now().Add(time.Duration(token.RefreshTokenExpiresIn) * time.Second)

	return &models.SocialAccount{
		ID:                    newID(),
		Platform:              models.PlatformPinterest,
		Name:                  user.Username,
		AccountID:             user.ID,
		AuthToken:             token.AccessToken,
		RefreshToken:          token.RefreshToken,
		AccessTokenExpiresAt:  &accessExpiry,
		RefreshTokenExpiresAt: &refreshExpiry,
		TokenIssuedAt:         time.Now(),
		Connected:             true,
		Status:                models.AccountStatusActive,
		Metadata: map[string]any{
			"account_type":    user.AccountType,
			"profile_picture": user.ProfileImage,
			"follower_count":  user.FollowerCount,
		},
	}, nil
}

// Pinterest rotates the refresh token on every use, so a refresh without a
// stored refresh token cannot recover.
func (d *pinterestDriver) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
	if acc.RefreshToken == "" {
		return nil, NewTokenExpiredError(d.cfg.Name, nil)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", acc.RefreshToken)

	var token transfer.PinterestTokenResponse
	if err := d.client.PostForm(ctx, d.v("/oauth/token"), form, d.basicAuth(), &token); err != nil {
		return nil, err
	}

	out := *acc
	out.AuthToken = token.AccessToken
	if token.RefreshToken != "" {
		out.RefreshToken = token.RefreshToken
	}
	accessExpiry := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	out.AccessTokenExpiresAt = &accessExpiry
	if token.RefreshTokenExpiresIn > 0 {
		refreshExpiry := time.Now().Add(time.Duration(token.RefreshTokenExpiresIn) * time.Second)
		out.RefreshTokenExpiresAt = &refreshExpiry
	}
	out.TokenIssuedAt = time.Now()
	out.Status = models.AccountStatusActive
	return &out, nil
}

func (d *pinterestDriver) DisconnectAccount(ctx context.Context, acc *models.SocialAccount) error {
	acc.Connected = false
	acc.Status = models.AccountStatusDisconnected
	return nil
}

// Boards are the postable destinations.
func (d *pinterestDriver) ListPages(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error) {
	var pages []*models.SocialPage
	bookmark := ""

	for {
		var resp transfer.PinterestBoardsResponse
		q := url.Values{}
		q.Set("page_size", "100")
		if bookmark != "" {
			q.Set("bookmark", bookmark)
		}
		if _, err := d.client.Do(ctx, &Request{
			Method: http.MethodGet,
			URL:    d.v("/boards"),
			Token:  acc.AuthToken,
			Query:  q,
			Out:    &resp,
		}); err != nil {
			return nil, err
		}

		for _, board := range resp.Items {
			pages = append(pages, &models.SocialPage{
				ID:              newID(),
				Platform:        models.PlatformPinterest,
				EntityType:      models.EntityTypeBoard,
				Name:            board.Name,
				PageID:          board.ID,
				AuthToken:       acc.AuthToken,
				Connected:       true,
				Status:          models.AccountStatusActive,
				AccountID:       acc.ID,
				StatusUpdatedAt: time.Now(),
				PostCount:       board.PinCount,
				FollowerCount:   board.FollowerCount,
				Metadata: map[string]any{
					"privacy":     board.Privacy,
					"description": board.Description,
				},
			})
		}

		if resp.Bookmark == "" {
			break
		}
		bookmark = resp.Bookmark
	}

	return pages, nil
}

func (d *pinterestDriver) ConnectPage(ctx context.Context, acc *models.SocialAccount, pageID string) (*models.SocialPage, error) {
	pages, err := d.ListPages(ctx, acc)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p.PageID == pageID || pageID == "" {
			return p, nil
		}
	}
	return nil, NewError(ErrCodeAPI, d.cfg.Name, "board not found on this account")
}

func (d *pinterestDriver) DisconnectPage(ctx context.Context, page *models.SocialPage) error {
	page.Connected = false
	page.Status = models.AccountStatusExpired
	return nil
}

func (d *pinterestDriver) CheckPageStatus(ctx context.Context, page *models.SocialPage) *models.SocialPage {
	var board transfer.PinterestBoard
	err := d.client.GetJSON(ctx, d.v("/boards/"+page.PageID), page.AuthToken, &board)
	if err != nil {
		return markPage(page, models.AccountStatusExpired)
	}
	return markPage(page, models.AccountStatusActive)
}

func (d *pinterestDriver) CreatePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	if content.Media == nil || len(content.Media.URLs) == 0 {
		return nil, NewValidationError(d.cfg.Name, "Pinterest pins require media")
	}
	return d.PublishPost(ctx, page, content, opts)
}

func (d *pinterestDriver) PublishPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	if content.Media == nil || len(content.Media.URLs) == 0 {
		return nil, NewValidationError(d.cfg.Name, "Pinterest pins require media")
	}

	boardID := page.PageID
	var altText string
	if opts != nil && opts.Pinterest != nil {
		if opts.Pinterest.BoardID != "" {
			boardID = opts.Pinterest.BoardID
		}
		altText = opts.Pinterest.AltText
	}

	var (
		pinID string
		err   error
	)
	if content.Media.Type == models.MediaTypeVideo {
		pinID, err = d.publishVideoPin(ctx, page, boardID, content)
	} else {
		pinID, err = d.publishImagePin(ctx, page, boardID, content, altText)
	}
	if err != nil {
		return nil, err
	}

	d.recordPostID(ctx, opts, pinID, page.ID)
	return publishResult(page, content, opts, pinID), nil
}

// One pins call regardless of image count: single images use image_url,
// multiples use the multiple_image_urls source type.
func (d *pinterestDriver) publishImagePin(ctx context.Context, page *models.SocialPage, boardID string, content *models.PostContent, altText string) (string, error) {
	var mediaSource map[string]any
	if len(content.Media.URLs) > 1 {
		items := make([]map[string]string, 0, len(content.Media.URLs))
		for _, u := range content.Media.URLs {
			items = append(items, map[string]string{"url": u})
		}
		mediaSource = map[string]any{
			"source_type": "multiple_image_urls",
			"items":       items,
		}
	} else {
		mediaSource = map[string]any{
			"source_type": "image_url",
			"url":         content.Media.URLs[0],
		}
	}

	body := map[string]any{
		"board_id":     boardID,
		"title":        content.Title,
		"description":  content.Text,
		"media_source": mediaSource,
	}
	if altText != "" {
		body["alt_text"] = altText
	}
	if content.Link != nil {
		body["link"] = content.Link.URL
	}

	var resp transfer.PinterestPinResponse
	if err := d.client.PostJSON(ctx, d.v("/pins"), page.AuthToken, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Video pins go through the media registration pipeline: register an upload,
// push the bytes, poll until the media succeeds, then create the pin.
func (d *pinterestDriver) publishVideoPin(ctx context.Context, page *models.SocialPage, boardID string, content *models.PostContent) (string, error) {
	create := func(ctx context.Context) (string, error) {
		var reg transfer.PinterestMediaRegisterResponse
		if err := d.client.PostJSON(ctx, d.v("/media"), page.AuthToken, map[string]any{
			"media_type": "video",
		}, &reg); err != nil {
			return "", err
		}

		data, err := fetchBytes(ctx, d.client, content.Media.URLs[0])
		if err != nil {
			return "", err
		}

		if _, err := d.client.Do(ctx, &Request{
			Method:      http.MethodPut,
			URL:         reg.UploadURL,
			Raw:         data,
			ContentType: "video/mp4",
		}); err != nil {
			return "", err
		}
		return reg.MediaID, nil
	}

	status := func(ctx context.Context, mediaID string) (ContainerState, string, error) {
		var st transfer.PinterestMediaStatusResponse
		if err := d.client.GetJSON(ctx, d.v("/media/"+mediaID), page.AuthToken, &st); err != nil {
			return StateInProgress, "", err
		}
		switch st.Status {
		case "succeeded":
			return StateFinished, "", nil
		case "failed":
			return StateError, "media upload failed", nil
		default:
			return StateInProgress, st.Status, nil
		}
	}

	publish := func(ctx context.Context, mediaID string) (string, error) {
		body := map[string]any{
			"board_id":    boardID,
			"title":       content.Title,
			"description": content.Text,
			"media_source": map[string]any{
				"source_type":     "video_id",
				"media_id":        mediaID,
				"cover_image_url": content.Media.ThumbnailURL,
			},
		}
		var resp transfer.PinterestPinResponse
		if err := d.client.PostJSON(ctx, d.v("/pins"), page.AuthToken, body, &resp); err != nil {
			return "", err
		}
		return resp.ID, nil
	}

	return d.pipeline.Run(ctx, d.cfg.Name, create, status, publish)
}

func (d *pinterestDriver) SchedulePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error) {
	return d.schedule(ctx, d, page, content, at)
}

func (d *pinterestDriver) DeletePost(ctx context.Context, page *models.SocialPage, postID string) error {
	return d.client.Delete(ctx, d.v("/pins/"+postID), page.AuthToken)
}

func (d *pinterestDriver) GetPostHistory(ctx context.Context, page *models.SocialPage, limit int, cursor string) ([]*models.PostHistory, string, error) {
	if limit <= 0 {
		limit = 20
	}

	var resp transfer.PinterestPinsResponse
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("bookmark", cursor)
	}
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.v("/boards/" + page.PageID + "/pins"),
		Token:  page.AuthToken,
		Query:  q,
		Out:    &resp,
	}); err != nil {
		return nil, "", err
	}

	history := make([]*models.PostHistory, 0, len(resp.Items))
	for _, pin := range resp.Items {
		h := &models.PostHistory{
			ID:      newID(),
			PageID:  page.ID,
			PostID:  pin.ID,
			Content: pin.Description,
			Status:  models.PostStatusPublished,
		}
		if img := pinterestImageURL(pin.Media); img != "" {
			h.MediaURLs = []string{img}
		}
		if t, err := time.Parse(time.RFC3339, pin.CreatedAt); err == nil {
			h.PublishedAt = t
		}
		history = append(history, NormalizePostHistory(h, page))
	}

	return history, resp.Bookmark, nil
}

func pinterestImageURL(media transfer.PinterestPinMedia) string {
	for _, key := range []string{"originals", "original", "1200x"} {
		if img, ok := media.Images[key]; ok && img.URL != "" {
			return img.URL
		}
	}
	for _, img := range media.Images {
		if img.URL != "" {
			return img.URL
		}
	}
	return ""
}

// Pinterest exposes no per-pin metrics on the standard API tier.
func (d *pinterestDriver) GetPostAnalytics(ctx context.Context, page *models.SocialPage, postID string) (*models.PostAnalytics, error) {
	return &models.PostAnalytics{}, nil
}
