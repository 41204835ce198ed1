package models

import "time"

// PostHistory is the normalized publish result every driver produces
// regardless of vendor response shape.
type PostHistory struct {
	ID           string         `json:"id"`
	PageID       string         `json:"page_id"`
	PostID       string         `json:"post_id"`
	Content      string         `json:"content"`
	MediaURLs    []string       `json:"media_urls"`
	Status       PostStatus     `json:"status"`
	PublishedAt  time.Time      `json:"published_at"`
	ScheduledFor *time.Time     `json:"scheduled_for,omitempty"`
	Analytics    *PostAnalytics `json:"analytics,omitempty"`
	Error        *PostError     `json:"error,omitempty"`
}

type PostAnalytics struct {
	Reach      int64          `json:"reach"`
	Likes      int64          `json:"likes"`
	Comments   int64          `json:"comments"`
	Shares     int64          `json:"shares"`
	Clicks     int64          `json:"clicks"`
	Views      int64          `json:"views"`
	Engagement float64        `json:"engagement"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type PostError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PostingHistory is the stored row written after every publish attempt. The
// vendor post id recorded here is what later delete/analytics calls use.
type PostingHistory struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	PostID         int64      `db:"post_id" json:"post_id"`
	PageID         string     `db:"page_id" json:"page_id"`
	Platform       Platform   `db:"platform" json:"platform"`
	PlatformPostID string     `db:"platform_post_id" json:"platform_post_id"`
	Status         PostStatus `db:"status" json:"status"`
	ErrorMessage   string     `db:"error_message" json:"error_message"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
