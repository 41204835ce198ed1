package models

import "time"

type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeCarousel MediaType = "carousel"
	MediaTypeStory    MediaType = "story"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
	PostStatusDeleted   PostStatus = "deleted"
)

// PostContent is the platform-agnostic publish payload. Immutable input to a
// publish call; drivers pick the parts their vendor understands.
type PostContent struct {
	Text  string        `json:"text"`
	Title string        `json:"title,omitempty"`
	Media *MediaContent `json:"media,omitempty"`
	Link  *LinkContent  `json:"link,omitempty"`
}

type MediaContent struct {
	Type         MediaType `json:"type"`
	URLs         []string  `json:"urls"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Duration     int       `json:"duration,omitempty"`
	AltText      string    `json:"alt_text,omitempty"`
}

type LinkContent struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// PublishOptions carries scheduling plus per-platform settings. Only the bag
// matching the target platform is read by its driver, the rest are ignored.
type PublishOptions struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	IsDraft     bool       `json:"is_draft,omitempty"`
	Visibility  string     `json:"visibility,omitempty"`

	// Set when the publish originates from a stored calendar entry so the
	// vendor-assigned post id can be recorded against it.
	LocalPostID string `json:"local_post_id,omitempty"`

	TikTok         *TikTokOptions         `json:"tiktok,omitempty"`
	Pinterest      *PinterestOptions      `json:"pinterest,omitempty"`
	YouTube        *YouTubeOptions        `json:"youtube,omitempty"`
	GoogleBusiness *GoogleBusinessOptions `json:"google_business,omitempty"`
}

type TikTokOptions struct {
	PrivacyLevel          string `json:"privacy_level,omitempty"`
	DisableComment        bool   `json:"disable_comment,omitempty"`
	DisableDuet           bool   `json:"disable_duet,omitempty"`
	DisableStitch         bool   `json:"disable_stitch,omitempty"`
	BrandContentToggle    bool   `json:"brand_content_toggle,omitempty"`
	BrandOrganicToggle    bool   `json:"brand_organic_toggle,omitempty"`
	AutoAddMusic          bool   `json:"auto_add_music,omitempty"`
	IsAIGC                bool   `json:"is_aigc,omitempty"`
	VideoCoverTimestampMS int64  `json:"video_cover_timestamp_ms,omitempty"`
}

type PinterestOptions struct {
	BoardID string `json:"board_id,omitempty"`
	AltText string `json:"alt_text,omitempty"`
}

type YouTubeOptions struct {
	PrivacyStatus string   `json:"privacy_status,omitempty"`
	MadeForKids   bool     `json:"made_for_kids,omitempty"`
	CategoryID    string   `json:"category_id,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

type GoogleBusinessOptions struct {
	TopicType    string          `json:"topic_type,omitempty"`
	CallToAction *GBCallToAction `json:"call_to_action,omitempty"`
	Event        *GBEvent        `json:"event,omitempty"`
	Offer        *GBOffer        `json:"offer,omitempty"`
}

type GBCallToAction struct {
	ActionType string `json:"action_type"`
	URL        string `json:"url,omitempty"`
}

type GBEvent struct {
	Title     string     `json:"title"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

type GBOffer struct {
	CouponCode      string `json:"coupon_code,omitempty"`
	RedeemOnlineURL string `json:"redeem_online_url,omitempty"`
	TermsConditions string `json:"terms_conditions,omitempty"`
}

// Post is a stored calendar entry owned by a user, fanned out to one or more
// selected pages when its scheduled time arrives.
type Post struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	PostType      string     `db:"post_type" json:"post_type"`
	Caption       string     `db:"caption" json:"caption"`
	Title         string     `db:"title" json:"title"`
	ScheduledTime time.Time  `db:"scheduled_time" json:"scheduled_time"`
	Status        PostStatus `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	FileName     string    `db:"file_name"`
	FileType     string    `db:"file_type"`
	FileSize     int64     `db:"file_size"`
	FileURL      string    `db:"file_url"`
	ThumbnailURL string    `db:"thumbnail_url"`
	CreatedAt    time.Time `db:"created_at"`
}

type PostMedia struct {
	PostID       int64     `db:"post_id"`
	AssetID      int64     `db:"asset_id"`
	DisplayOrder int       `db:"display_order"`
	CreatedAt    time.Time `db:"created_at"`
}

// SelectedPage links a calendar entry to a destination page.
type SelectedPage struct {
	PostID    int64     `db:"post_id" json:"post_id"`
	PageID    string    `db:"page_id" json:"page_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
