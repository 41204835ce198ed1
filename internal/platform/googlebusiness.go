package platform

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/transfer"
)

const (
	gbAccountsHost  = "https://mybusinessaccountmanagement.googleapis.com"
	gbLocationsHost = "https://mybusinessbusinessinformation.googleapis.com"
)

type googleBusinessDriver struct {
	base
}

// NewGoogleBusiness builds the Google Business Profile driver. Local posts
// still live on the v4 surface, account and location discovery moved to the
// split v1 APIs.
func NewGoogleBusiness(creds Credentials, opts ...Option) Driver {
	return &googleBusinessDriver{base: newBase(Lookup(models.PlatformGoogleBusiness), creds, opts...)}
}

func (d *googleBusinessDriver) oauthConfig() *oauth2.Config {
	conf := &oauth2.Config{
		ClientID:     d.creds.ClientID,
		ClientSecret: d.creds.ClientSecret,
		RedirectURL:  d.creds.RedirectURI,
		Scopes:       d.cfg.Scopes,
		Endpoint:     google.Endpoint,
	}
	if d.apiBase != d.cfg.BaseURL {
		conf.Endpoint = oauth2.Endpoint{
			AuthURL:  d.apiBase + "/o/oauth2/auth",
			TokenURL: d.apiBase + "/token",
		}
	}
	return conf
}

func (d *googleBusinessDriver) accountsURL(path string) string {
	if d.apiBase != d.cfg.BaseURL {
		return d.apiBase + path
	}
	return gbAccountsHost + path
}

func (d *googleBusinessDriver) locationsURL(path string) string {
	if d.apiBase != d.cfg.BaseURL {
		return d.apiBase + path
	}
	return gbLocationsHost + path
}

func (d *googleBusinessDriver) AuthURL() (string, error) {
	state := newID()
	if state == "" {
		return "", NewError(ErrCodeUnknown, d.cfg.Name, "failed to generate state")
	}
	return d.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

func (d *googleBusinessDriver) ConnectAccount(ctx context.Context, code string) (*models.SocialAccount, error) {
	token, err := d.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, NewError(ErrCodeAPI, d.cfg.Name, "code exchange failed: "+err.Error())
	}
	if token.RefreshToken == "" {
		return nil, NewError(ErrCodeAPI, d.cfg.Name, "no refresh token granted, re-run consent with offline access")
	}

	account, err := d.firstAccount(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	status := models.AccountStatusPending
	if account.VerificationState == "VERIFIED" {
		status = models.AccountStatusActive
	}

	expiry := token.Expiry
	return &models.SocialAccount{
		ID:                   newID(),
		Platform:             models.PlatformGoogleBusiness,
		Name:                 account.AccountName,
		AccountID:            account.Name,
		AuthToken:            token.AccessToken,
		RefreshToken:         token.RefreshToken,
		AccessTokenExpiresAt: &expiry,
		TokenIssuedAt:        time.Now(),
		Connected:            true,
		Status:               status,
		Metadata: map[string]any{
			"account_type":       account.Type,
			"verification_state": account.VerificationState,
		},
	}, nil
}

func (d *googleBusinessDriver) firstAccount(ctx context.Context, token string) (*transfer.GBAccount, error) {
	var resp transfer.GBAccountsResponse
	if err := d.client.GetJSON(ctx, d.accountsURL("/v1/accounts"), token, &resp); err != nil {
		return nil, err
	}
	if len(resp.Accounts) == 0 {
		return nil, NewError(ErrCodeAPI, d.cfg.Name, "no business account on this Google account")
	}
	return &resp.Accounts[0], nil
}

func (d *googleBusinessDriver) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
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

func (d *googleBusinessDriver) DisconnectAccount(ctx context.Context, acc *models.SocialAccount) error {
	acc.Connected = false
	acc.Status = models.AccountStatusDisconnected
	return nil
}

// ListPages returns the account's locations. Locations without a place id
// are unverified storefronts that cannot take local posts, they are skipped.
func (d *googleBusinessDriver) ListPages(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error) {
	var pages []*models.SocialPage
	pageToken := ""

	for {
		q := url.Values{}
		q.Set("readMask", "name,title,storeCode,metadata")
		q.Set("pageSize", "100")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var resp transfer.GBLocationsResponse
		if _, err := d.client.Do(ctx, &Request{
			Method: http.MethodGet,
			URL:    d.locationsURL("/v1/" + acc.AccountID + "/locations"),
			Token:  acc.AuthToken,
			Query:  q,
			Out:    &resp,
		}); err != nil {
			return nil, err
		}

		for _, loc := range resp.Locations {
			if loc.Metadata.PlaceID == "" {
				continue
			}
			pages = append(pages, &models.SocialPage{
				ID:              newID(),
				Platform:        models.PlatformGoogleBusiness,
				EntityType:      models.EntityTypePage,
				Name:            loc.Title,
				PageID:          acc.AccountID + "/" + loc.Name,
				AuthToken:       acc.AuthToken,
				Connected:       true,
				Status:          models.AccountStatusActive,
				AccountID:       acc.ID,
				StatusUpdatedAt: time.Now(),
				Metadata: map[string]any{
					"store_code": loc.StoreCode,
					"place_id":   loc.Metadata.PlaceID,
					"maps_uri":   loc.Metadata.MapsURI,
				},
			})
		}

		if resp.NextPageToken == "" {
			return pages, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (d *googleBusinessDriver) ConnectPage(ctx context.Context, acc *models.SocialAccount, pageID string) (*models.SocialPage, error) {
	pages, err := d.ListPages(ctx, acc)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p.PageID == pageID || pageID == "" {
			return p, nil
		}
	}
	return nil, NewError(ErrCodeAPI, d.cfg.Name, "location not found on this account")
}

func (d *googleBusinessDriver) DisconnectPage(ctx context.Context, page *models.SocialPage) error {
	page.Connected = false
	page.Status = models.AccountStatusDisconnected
	return nil
}

func (d *googleBusinessDriver) CheckPageStatus(ctx context.Context, page *models.SocialPage) *models.SocialPage {
	// page id is accounts/{a}/locations/{l}, the info API addresses the
	// location part alone
	locPath := page.PageID
	if i := strings.Index(locPath, "/locations/"); i >= 0 {
		locPath = locPath[i+1:]
	}

	var loc transfer.GBLocation
	q := url.Values{}
	q.Set("readMask", "name,title")
	_, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.locationsURL("/v1/" + locPath),
		Token:  page.AuthToken,
		Query:  q,
		Out:    &loc,
	})
	if err != nil {
		return markPage(page, models.AccountStatusExpired)
	}
	return markPage(page, models.AccountStatusActive)
}

func (d *googleBusinessDriver) CreatePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	return d.PublishPost(ctx, page, content, opts)
}

func (d *googleBusinessDriver) PublishPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error) {
	if err := d.validate(content); err != nil {
		return nil, err
	}
	if opts != nil && opts.ScheduledAt != nil {
		return nil, NewNotSupportedError(d.cfg.Name, "scheduling")
	}

	post := transfer.GBLocalPost{
		LanguageCode: "en-US",
		Summary:      content.Text,
		TopicType:    "STANDARD",
	}
	if content.Media != nil && len(content.Media.URLs) > 0 {
		post.Media = []transfer.GBLocalPostMedia{{
			MediaFormat: "PHOTO",
			SourceURL:   content.Media.URLs[0],
		}}
	}
	if opts != nil && opts.GoogleBusiness != nil {
		gb := opts.GoogleBusiness
		if gb.TopicType != "" {
			post.TopicType = gb.TopicType
		}
		if gb.CallToAction != nil {
			post.CallToAction = &transfer.GBCallToActionBody{
				ActionType: gb.CallToAction.ActionType,
				URL:        gb.CallToAction.URL,
			}
		}
		if gb.Event != nil {
			post.Event = gbEvent(gb.Event)
		}
		if gb.Offer != nil {
			post.Offer = &transfer.GBLocalPostOffer{
				CouponCode:      gb.Offer.CouponCode,
				RedeemOnlineURL: gb.Offer.RedeemOnlineURL,
				TermsConditions: gb.Offer.TermsConditions,
			}
		}
	}

	var created transfer.GBLocalPost
	if err := d.client.PostJSON(ctx, d.url("/v4/"+page.PageID+"/localPosts"), page.AuthToken, post, &created); err != nil {
		return nil, err
	}

	d.recordPostID(ctx, opts, created.Name, page.ID)
	result := publishResult(page, content, opts, created.Name)
	result.Status = gbPostStatus(created.State)
	return result, nil
}

func gbEvent(e *models.GBEvent) *transfer.GBLocalPostEvent {
	out := &transfer.GBLocalPostEvent{Title: e.Title}
	if e.StartTime != nil {
		out.Schedule.StartDate = gbDate(*e.StartTime)
	}
	if e.EndTime != nil {
		out.Schedule.EndDate = gbDate(*e.EndTime)
	}
	return out
}

func gbDate(t time.Time) transfer.GBDate {
	return transfer.GBDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func gbPostStatus(state string) models.PostStatus {
	switch state {
	case "LIVE":
		return models.PostStatusPublished
	case "PROCESSING":
		return models.PostStatusScheduled
	case "REJECTED":
		return models.PostStatusFailed
	default:
		return models.PostStatusDraft
	}
}

func (d *googleBusinessDriver) SchedulePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error) {
	return d.schedule(ctx, d, page, content, at)
}

func (d *googleBusinessDriver) DeletePost(ctx context.Context, page *models.SocialPage, postID string) error {
	return NewNotSupportedError(d.cfg.Name, "post deletion")
}

func (d *googleBusinessDriver) GetPostHistory(ctx context.Context, page *models.SocialPage, limit int, cursor string) ([]*models.PostHistory, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := url.Values{}
	q.Set("pageSize", "100")
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	var resp transfer.GBLocalPostsResponse
	if _, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.url("/v4/" + page.PageID + "/localPosts"),
		Token:  page.AuthToken,
		Query:  q,
		Out:    &resp,
	}); err != nil {
		return nil, "", err
	}

	history := make([]*models.PostHistory, 0, len(resp.LocalPosts))
	for i, post := range resp.LocalPosts {
		if i >= limit {
			break
		}
		h := &models.PostHistory{
			ID:      newID(),
			PageID:  page.ID,
			PostID:  post.Name,
			Content: post.Summary,
			Status:  gbPostStatus(post.State),
		}
		for _, m := range post.Media {
			h.MediaURLs = append(h.MediaURLs, m.SourceURL)
		}
		if ts, err := time.Parse(time.RFC3339, post.CreateTime); err == nil {
			h.PublishedAt = ts
		}
		history = append(history, NormalizePostHistory(h, page))
	}
	return history, resp.NextPageToken, nil
}

func (d *googleBusinessDriver) GetPostAnalytics(ctx context.Context, page *models.SocialPage, postID string) (*models.PostAnalytics, error) {
	return &models.PostAnalytics{}, nil
}
