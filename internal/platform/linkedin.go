package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/transfer"
)

const linkedinTokenHost = "https://www.linkedin.com"

type linkedinDriver struct {
	base
}

// NewLinkedIn builds the LinkedIn driver. Personal profiles publish through
// ugcPosts, organizations through the versioned rest/posts surface.
func NewLinkedIn(creds Credentials, opts ...Option) Driver {
	return &linkedinDriver{base: newBase(Lookup(models.PlatformLinkedIn), creds, opts...)}
}

func (d *linkedinDriver) AuthURL() (string, error) {
	return d.authURL(" ", nil)
}

func (d *linkedinDriver) tokenURL() string {
	// tests override the API base, point token calls there too
	if d.apiBase != d.cfg.BaseURL {
		return d.apiBase + "/oauth/v2/accessToken"
	}
	return linkedinTokenHost + "/oauth/v2/accessToken"
}

// restHeaders carries the versioned-API headers rest/* endpoints require.
func (d *linkedinDriver) restHeaders() http.Header {
	return http.Header{
		"LinkedIn-Version":          []string{d.cfg.APIVersion},
		"X-Restli-Protocol-Version": []string{"2.0.0"},
	}
}

func (d *linkedinDriver) ConnectAccount(ctx context.Context, code string) (*models.SocialAccount, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", d.creds.RedirectURI)
	form.Set("client_id", d.creds.ClientID)
	form.Set("client_secret", d.creds.ClientSecret)

	var token transfer.LinkedInTokenResponse
	if err := d.client.PostForm(ctx, d.tokenURL(), form, nil, &token); err != nil {
		return nil, err
	}

	var user transfer.LinkedInUserInfo
	if err := d.client.GetJSON(ctx, d.url("/v2/userinfo"), token.AccessToken, &user); err != nil {
		return nil, err
	}

	accessExpiry := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	acc := &models.SocialAccount{
		ID:                   newID(),
		Platform:             models.PlatformLinkedIn,
		Name:                 user.Name,
		AccountID:            user.Sub,
		AuthToken:            token.AccessToken,
		RefreshToken:         token.RefreshToken,
		AccessTokenExpiresAt: &accessExpiry,
		TokenIssuedAt:        time.Now(),
		Connected:            true,
		Status:               models.AccountStatusActive,
		Metadata:             map[string]any{"email": user.Email, "profile_picture": user.Picture},
	}
	if token.RefreshTokenExpiresIn > 0 {
		refreshExpiry := time.Now().Add(time.Duration(token.RefreshTokenExpiresIn) * time.Second)
		acc.RefreshTokenExpiresAt = &refreshExpiry
	}
	return acc, nil
}

// Accounts without programmatic refresh access pass through unchanged, the
// member has to re-consent when the token lapses.
func (d *linkedinDriver) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
	if acc.RefreshToken == "" {
		return acc, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", acc.RefreshToken)
	form.Set("client_id", d.creds.ClientID)
	form.Set("client_secret", d.creds.ClientSecret)

	var token transfer.LinkedInTokenResponse
	if err := d.client.PostForm(ctx, d.tokenURL(), form, nil, &token); err != nil {
		return nil, err
	}

	out := *acc
	out.AuthToken = token.AccessToken
	if token.RefreshToken != "" {
		out.RefreshToken = token.RefreshToken
	}
	accessExpiry := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	out.AccessTokenExpiresAt = &accessExpiry
	out.TokenIssuedAt = time.Now()
	out.Status = models.AccountStatusActive
	return &out, nil
}

func (d *linkedinDriver) DisconnectAccount(ctx context.Context, acc *models.SocialAccount) error {
	acc.Connected = false
	acc.Status = models.AccountStatusDisconnected
	return nil
}

func (d *linkedinDriver) ListPages(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error) {
	personURN := "urn:li:person:" + acc.AccountID

	pages := []*models.SocialPage{{
		ID:              newID(),
		Platform:        models.PlatformLinkedIn,
		EntityType:      models.EntityTypeProfile,
		Name:            acc.Name,
		PageID:          personURN,
		AuthToken:       acc.AuthToken,
		Connected:       true,
		Status:          models.AccountStatusActive,
		AccountID:       acc.ID,
		StatusUpdatedAt: time.Now(),
	}}

	orgs, err := d.listOrganizations(ctx, acc)
	if err != nil {
		// organization access is optional, profile publishing still works
		d.logger.Error("failed to list linkedin organizations", "error", err)
		return pages, nil
	}
	return append(pages, orgs...), nil
}

func (d *linkedinDriver) listOrganizations(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error) {
	var acls []transfer.LinkedInOrgACL
	start, count := 0, 20

	for {
		var resp transfer.LinkedInOrgACLsResponse
		q := url.Values{}
		q.Set("q", "roleAssignee")
		q.Set("role", "ADMINISTRATOR")
		q.Set("state", "APPROVED")
		q.Set("count", strconv.Itoa(count))
		q.Set("start", strconv.Itoa(start))
		if _, err := d.client.Do(ctx, &Request{
			Method: http.MethodGet,
			URL:    d.url("/v2/organizationalEntityAcls"),
			Token:  acc.AuthToken,
			Query:  q,
			Out:    &resp,
		}); err != nil {
			return nil, err
		}

		acls = append(acls, resp.Elements...)

		hasNext := false
		for _, link := range resp.Paging.Links {
			if link.Rel == "next" {
				hasNext = true
			}
		}
		if !hasNext {
			break
		}
		start += count
	}

	var pages []*models.SocialPage
	for _, acl := range acls {
		if acl.State != "APPROVED" || acl.Role != "ADMINISTRATOR" {
			continue
		}

		orgID := acl.OrganizationalTarget
		if i := strings.LastIndex(orgID, ":"); i >= 0 {
			orgID = orgID[i+1:]
		}

		var org transfer.LinkedInOrganization
		if err := d.client.GetJSON(ctx, d.url("/v2/organizations/"+orgID), acc.AuthToken, &org); err != nil {
			d.logger.Error("failed to load linkedin organization", "org_id", orgID, "error", err)
			continue
		}

		pages = append(pages, &models.SocialPage{
			ID:              newID(),
			Platform:        models.PlatformLinkedIn,
			EntityType:      models.EntityTypeOrganization,
			Name:            org.LocalizedName,
			PageID:          acl.OrganizationalTarget,
			AuthToken:       acc.AuthToken,
			Connected:       true,
			Status:          models.AccountStatusActive,
			AccountID:       acc.ID,
			StatusUpdatedAt: time.Now(),
			FollowerCount:   d.followerCount(ctx, acl.OrganizationalTarget, acc.AuthToken),
			Metadata:        map[string]any{"vanity_name": org.VanityName},
		})
	}
	return pages, nil
}

func (d *linkedinDriver) followerCount(ctx context.Context, orgURN, token string) int64 {
	var size transfer.LinkedInNetworkSize
	q := url.Values{}
	q.Set("edgeType", "COMPANY_FOLLOWED_BY_MEMBER")
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.url("/rest/networkSizes/" + url.PathEscape(orgURN)),
		Token:  token,
		Query:  q,
		Header: d.restHeaders(),
		Out:    &size,
	}); err != nil {
		return 0
	}
	return size.FirstDegreeSize
}

func (d *linkedinDriver) ConnectPage(ctx context.Context, acc *models.SocialAccount, pageID string) (*models.SocialPage, error) {
	pages, err := d.ListPages(ctx, acc)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p.PageID == pageID || pageID == "" {
			return p, nil
		}
	}
	return nil, NewError(ErrCodeAPI, d.cfg.Name, "destination not found on this account")
}

func (d *linkedinDriver) DisconnectPage(ctx context.Context, page *models.SocialPage) error {
	page.Connected = false
	page.Status = models.AccountStatusExpired
	return nil
}

func (d *linkedinDriver) CheckPageStatus(ctx context.Context, page *models.SocialPage) *models.SocialPage {
	var user transfer.LinkedInUserInfo
	err := d.client.GetJSON(ctx, d.url("/v2/userinfo"), page.AuthToken, &user)
	if err != nil {
		return markPage(page, models.AccountStatusExpired)
	}
	return markPage(page, models.AccountStatusActive)
}

func (d *linkedinDriver) CreatePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	return d.PublishPost(ctx, page, content, opts)
}

func (d *linkedinDriver) PublishPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}

	var (
		postID string
		err    error
	)
	if page.EntityType == models.EntityTypeOrganization {
		postID, err = d.publishOrganization(ctx, page, content)
	} else {
		postID, err = d.publishProfile(ctx, page, content)
	}
	if err != nil {
		return nil, err
	}

	d.recordPostID(ctx, opts, postID, page.ID)
	return publishResult(page, content, opts, postID), nil
}

func (d *linkedinDriver) publishOrganization(ctx context.Context, page *models.SocialPage, content *models.PostContent) (string, error) {
	body := map[string]any{
		"author":     page.PageID,
		"commentary": content.Text,
		"visibility": "PUBLIC",
		"distribution": map[string]any{
			"feedDistribution": "MAIN_FEED",
		},
		"lifecycleState":            "PUBLISHED",
		"isReshareDisabledByAuthor": false,
	}

	if content.Media != nil && len(content.Media.URLs) > 0 {
		mediaContent, err := d.buildOrganizationMedia(ctx, page, content)
		if err != nil {
			return "", err
		}
		body["content"] = mediaContent
	}

	headers, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    d.url("/rest/posts"),
		Token:  page.AuthToken,
		Header: d.restHeaders(),
		Body:   body,
	})
	if err != nil {
		return "", err
	}

	postID := headers.Get("x-restli-id")
	if postID == "" {
		return "", NewError(ErrCodeAPI, d.cfg.Name, "post id missing from response headers")
	}
	return postID, nil
}

func (d *linkedinDriver) buildOrganizationMedia(ctx context.Context, page *models.SocialPage, content *models.PostContent) (map[string]any, error) {
	if content.Media.Type == models.MediaTypeVideo {
		videoURN, err := d.uploadVideo(ctx, page, content.Media.URLs[0])
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"media": map[string]any{"id": videoURN, "title": content.Title},
		}, nil
	}

	urns := make([]string, 0, len(content.Media.URLs))
	for _, imageURL := range content.Media.URLs {
		urn, err := d.uploadImage(ctx, page, imageURL)
		if err != nil {
			return nil, err
		}
		urns = append(urns, urn)
	}

	if len(urns) == 1 {
		return map[string]any{
			"media": map[string]any{"id": urns[0], "altText": content.Media.AltText},
		}, nil
	}

	images := make([]map[string]any, 0, len(urns))
	for _, urn := range urns {
		images = append(images, map[string]any{"id": urn})
	}
	return map[string]any{
		"multiImage": map[string]any{"images": images},
	}, nil
}

func (d *linkedinDriver) uploadImage(ctx context.Context, page *models.SocialPage, imageURL string) (string, error) {
	var init transfer.LinkedInVideoInitResponse
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    d.url("/rest/images?action=initializeUpload"),
		Token:  page.AuthToken,
		Header: d.restHeaders(),
		Body: map[string]any{
			"initializeUploadRequest": map[string]any{"owner": page.PageID},
		},
		Out: &init,
	}); err != nil {
		return "", err
	}
	if len(init.Value.UploadInstructions) == 0 {
		return "", NewError(ErrCodeAPI, d.cfg.Name, "upload url missing from initializeUpload response")
	}

	data, err := fetchBytes(ctx, d.client, imageURL)
	if err != nil {
		return "", err
	}
	if _, err := d.client.Do(ctx, &Request{
		Method:      http.MethodPut,
		URL:         init.Value.UploadInstructions[0].UploadURL,
		Token:       page.AuthToken,
		Raw:         data,
		ContentType: "image/jpeg",
	}); err != nil {
		return "", err
	}

	return init.Value.Video, nil
}

func (d *linkedinDriver) uploadVideo(ctx context.Context, page *models.SocialPage, videoURL string) (string, error) {
	data, err := fetchBytes(ctx, d.client, videoURL)
	if err != nil {
		return "", err
	}

	var init transfer.LinkedInVideoInitResponse
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    d.url("/rest/videos?action=initializeUpload"),
		Token:  page.AuthToken,
		Header: d.restHeaders(),
		Body: map[string]any{
			"initializeUploadRequest": map[string]any{
				"owner":           page.PageID,
				"fileSizeBytes":   len(data),
				"uploadCaptions":  false,
				"uploadThumbnail": false,
			},
		},
		Out: &init,
	}); err != nil {
		return "", err
	}
	if len(init.Value.UploadInstructions) == 0 {
		return "", NewError(ErrCodeAPI, d.cfg.Name, "upload url missing from initializeUpload response")
	}

	if _, err := d.client.Do(ctx, &Request{
		Method:      http.MethodPut,
		URL:         init.Value.UploadInstructions[0].UploadURL,
		Token:       page.AuthToken,
		Raw:         data,
		ContentType: "video/mp4",
	}); err != nil {
		return "", err
	}

	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    d.url("/rest/videos?action=finalizeUpload"),
		Token:  page.AuthToken,
		Header: d.restHeaders(),
		Body: map[string]any{
			"finalizeUploadRequest": map[string]any{
				"video":           init.Value.Video,
				"uploadToken":     init.Value.UploadToken,
				"uploadedPartIds": []string{},
			},
		},
	}); err != nil {
		return "", err
	}

	if err := d.pipeline.Await(ctx, d.cfg.Name, init.Value.Video, d.videoStatus(page)); err != nil {
		return "", err
	}
	return init.Value.Video, nil
}

func (d *linkedinDriver) videoStatus(page *models.SocialPage) StatusFunc {
	return func(ctx context.Context, videoURN string) (ContainerState, string, error) {
		var status transfer.LinkedInVideoStatus
		if _, err := d.client.Do(ctx, &Request{
			Method: http.MethodGet,
			URL:    d.url("/rest/videos/" + url.PathEscape(videoURN)),
			Token:  page.AuthToken,
			Header: d.restHeaders(),
			Out:    &status,
		}); err != nil {
			return StateInProgress, "", err
		}
		switch status.Status {
		case "AVAILABLE":
			return StateFinished, "", nil
		case "PROCESSING_FAILED":
			return StateError, "video processing failed", nil
		default:
			return StateInProgress, status.Status, nil
		}
	}
}

func (d *linkedinDriver) publishProfile(ctx context.Context, page *models.SocialPage, content *models.PostContent) (string, error) {
	shareMedia := []map[string]any{}
	category := "NONE"

	if content.Media != nil && len(content.Media.URLs) > 0 {
		mediaType := "image"
		category = "IMAGE"
		if content.Media.Type == models.MediaTypeVideo {
			mediaType = "video"
			category = "VIDEO"
		}

		limit := len(content.Media.URLs)
		if limit > 9 {
			limit = 9
		}
		for _, mediaURL := range content.Media.URLs[:limit] {
			asset, err := d.registerProfileUpload(ctx, page, mediaType, mediaURL)
			if err != nil {
				return "", err
			}
			shareMedia = append(shareMedia, map[string]any{
				"status": "READY",
				"media":  asset,
				"title":  map[string]any{"text": content.Title},
			})
		}
	}

	body := map[string]any{
		"author":         page.PageID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]any{"text": content.Text},
				"shareMediaCategory": category,
				"media":              shareMedia,
			},
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var resp transfer.LinkedInPost
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    d.url("/v2/ugcPosts"),
		Token:  page.AuthToken,
		Body:   body,
		Out:    &resp,
	}); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *linkedinDriver) registerProfileUpload(ctx context.Context, page *models.SocialPage, mediaType, mediaURL string) (string, error) {
	recipe := "urn:li:digitalmediaRecipe:feedshare-image"
	contentType := "image/jpeg"
	if mediaType == "video" {
		recipe = "urn:li:digitalmediaRecipe:feedshare-video"
		contentType = "video/mp4"
	}

	var reg transfer.LinkedInRegisterUploadResponse
	if err := d.client.PostJSON(ctx, d.url("/v2/assets?action=registerUpload"), page.AuthToken, map[string]any{
		"registerUploadRequest": map[string]any{
			"owner":   page.PageID,
			"recipes": []string{recipe},
			"serviceRelationships": []map[string]any{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}, &reg); err != nil {
		return "", err
	}

	uploadURL := reg.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL
	if uploadURL == "" {
		return "", NewError(ErrCodeAPI, d.cfg.Name, "upload url missing from registerUpload response")
	}

	data, err := fetchBytes(ctx, d.client, mediaURL)
	if err != nil {
		return "", err
	}
	if _, err := d.client.Do(ctx, &Request{
		Method:      http.MethodPut,
		URL:         uploadURL,
		Token:       page.AuthToken,
		Raw:         data,
		ContentType: contentType,
	}); err != nil {
		return "", err
	}

	return reg.Value.Asset, nil
}

func (d *linkedinDriver) SchedulePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error) {
	return d.schedule(ctx, d, page, content, at)
}

// The UGC surface exposes no delete for third-party apps.
func (d *linkedinDriver) DeletePost(ctx context.Context, page *models.SocialPage, postID string) error {
	return NewNotSupportedError(d.cfg.Name, "post deletion")
}

func (d *linkedinDriver) GetPostHistory(ctx context.Context, page *models.SocialPage, limit int, cursor string) ([]*models.PostHistory, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	start := 0
	if cursor != "" {
		if n, err := strconv.Atoi(cursor); err == nil {
			start = n
		}
	}

	var resp transfer.LinkedInPostsResponse
	q := url.Values{}
	q.Set("q", "author")
	q.Set("author", page.PageID)
	q.Set("count", strconv.Itoa(limit))
	q.Set("start", strconv.Itoa(start))
	q.Set("sortBy", "LAST_MODIFIED")
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.url("/rest/posts"),
		Token:  page.AuthToken,
		Query:  q,
		Header: d.restHeaders(),
		Out:    &resp,
	}); err != nil {
		return nil, "", err
	}

	history := make([]*models.PostHistory, 0, len(resp.Elements))
	for _, post := range resp.Elements {
		h := &models.PostHistory{
			ID:      newID(),
			PageID:  page.ID,
			PostID:  post.ID,
			Content: post.Commentary,
			Status:  models.PostStatusPublished,
		}
		if post.PublishedAt > 0 {
			h.PublishedAt = time.UnixMilli(post.PublishedAt)
		} else if post.CreatedAt > 0 {
			h.PublishedAt = time.UnixMilli(post.CreatedAt)
		}
		history = append(history, NormalizePostHistory(h, page))
	}

	next := ""
	if len(resp.Elements) == limit {
		next = fmt.Sprintf("%d", start+limit)
	}
	return history, next, nil
}

// Post-level metrics need the marketing tier, follower statistics are the
// only generally available numbers.
func (d *linkedinDriver) GetPostAnalytics(ctx context.Context, page *models.SocialPage, postID string) (*models.PostAnalytics, error) {
	if page.EntityType != models.EntityTypeOrganization {
		return &models.PostAnalytics{}, nil
	}
	return &models.PostAnalytics{
		Metadata: map[string]any{
			"follower_count": d.followerCount(ctx, page.PageID, page.AuthToken),
		},
	}, nil
}
