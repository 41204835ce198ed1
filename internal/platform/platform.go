package platform

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/publora/publora/internal/models"
)

// Credentials is one client id / secret / redirect triple, injected per
// platform (and per login method) at factory construction.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// PostIDSink records the vendor-assigned post id after a successful publish.
// Failures here never fail the publish, they are logged and swallowed.
type PostIDSink interface {
	UpdatePlatformPostID(ctx context.Context, localPostID string, p models.Platform, vendorPostID, pageID string) error
}

// Driver is the operation contract every vendor implements.
type Driver interface {
	Platform() models.Platform
	Config() *Config

	AuthURL() (string, error)
	ConnectAccount(ctx context.Context, code string) (*models.SocialAccount, error)
	RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error)
	DisconnectAccount(ctx context.Context, acc *models.SocialAccount) error

	ListPages(ctx context.Context, acc *models.SocialAccount) ([]*models.SocialPage, error)
	ConnectPage(ctx context.Context, acc *models.SocialAccount, pageID string) (*models.SocialPage, error)
	DisconnectPage(ctx context.Context, page *models.SocialPage) error
	CheckPageStatus(ctx context.Context, page *models.SocialPage) *models.SocialPage

	CreatePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error)
	PublishPost(ctx context.Context, page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions) (*models.PostHistory, error)
	SchedulePost(ctx context.Context, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error)
	DeletePost(ctx context.Context, page *models.SocialPage, postID string) error

	GetPostHistory(ctx context.Context, page *models.SocialPage, limit int, cursor string) ([]*models.PostHistory, string, error)
	GetPostAnalytics(ctx context.Context, page *models.SocialPage, postID string) (*models.PostAnalytics, error)
}

// base carries what every driver shares. Drivers embed it and add the
// vendor-specific bodies.
type base struct {
	cfg      *Config
	creds    Credentials
	client   *Client
	sink     PostIDSink
	pipeline *Pipeline
	logger   *slog.Logger
	apiBase  string
}

type Option func(*base)

func WithHTTPClient(hc *http.Client) Option {
	return func(b *base) { b.client = NewClient(b.cfg.Name, hc, b.logger) }
}

// WithBaseURL points the driver's API host elsewhere, used by tests to aim
// at a local fake.
func WithBaseURL(u string) Option {
	return func(b *base) { b.apiBase = strings.TrimRight(u, "/") }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *base) {
		b.logger = l
		b.client = NewClient(b.cfg.Name, b.client.hc, l)
	}
}

func WithPostIDSink(s PostIDSink) Option {
	return func(b *base) { b.sink = s }
}

func WithPipeline(p *Pipeline) Option {
	return func(b *base) { b.pipeline = p }
}

func newBase(cfg *Config, creds Credentials, opts ...Option) base {
	b := base{
		cfg:     cfg,
		creds:   creds,
		logger:  slog.Default(),
		apiBase: cfg.BaseURL,
	}
	b.client = NewClient(cfg.Name, nil, b.logger)
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Platform() models.Platform { return b.cfg.Name }
func (b *base) Config() *Config           { return b.cfg }

func (b *base) url(path string) string {
	return b.apiBase + path
}

// authURL builds the standard consent URL: client id, redirect, scopes and a
// fresh state nonce. extra carries vendor quirks (access_type, client_key).
func (b *base) authURL(scopeSeparator string, extra url.Values) (string, error) {
	state, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client_id", b.creds.ClientID)
	q.Set("redirect_uri", b.creds.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(b.cfg.Scopes, scopeSeparator))
	q.Set("state", state)
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}

	return b.cfg.AuthURL + "?" + q.Encode(), nil
}

// validate runs the content validator and converts a failure into the
// VALIDATION_ERROR taxonomy entry. Short-circuits before any network call.
func (b *base) validate(content *models.PostContent) error {
	result := ValidateContent(content, b.cfg)
	if !result.IsValid {
		return NewValidationError(b.cfg.Name, result.joined())
	}
	return nil
}

// schedule is the default SchedulePost body: gate on the feature flag, then
// delegate to the driver's publish with the time set.
func (b *base) schedule(ctx context.Context, d Driver, page *models.SocialPage, content *models.PostContent, at time.Time) (*models.PostHistory, error) {
	if !b.cfg.Features.Scheduling {
		return nil, NewNotSupportedError(b.cfg.Name, "scheduling")
	}
	return d.PublishPost(ctx, page, content, &models.PublishOptions{ScheduledAt: &at})
}

// recordPostID notifies the sink, best effort.
func (b *base) recordPostID(ctx context.Context, opts *models.PublishOptions, vendorPostID, pageID string) {
	if b.sink == nil || opts == nil || opts.LocalPostID == "" || vendorPostID == "" {
		return
	}
	if err := b.sink.UpdatePlatformPostID(ctx, opts.LocalPostID, b.cfg.Name, vendorPostID, pageID); err != nil {
		b.logger.Error("failed to record platform post id",
			"platform", b.cfg.Name,
			"post_id", opts.LocalPostID,
			"vendor_post_id", vendorPostID,
			"error", err)
	}
}

// markPage returns a copy of the page with a revised status. CheckPageStatus
// implementations use it so the probe never mutates the caller's page.
func markPage(page *models.SocialPage, status models.AccountStatus) *models.SocialPage {
	out := *page
	out.Status = status
	out.Connected = status == models.AccountStatusActive
	out.StatusUpdatedAt = time.Now()
	return &out
}

func newID() string {
	id, err := gonanoid.New()
	if err != nil {
		return ""
	}
	return id
}
