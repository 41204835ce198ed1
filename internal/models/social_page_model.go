package models

import "time"

type EntityType string

const (
	EntityTypePage         EntityType = "page"
	EntityTypeBoard        EntityType = "board"
	EntityTypeChannel      EntityType = "channel"
	EntityTypeProfile      EntityType = "profile"
	EntityTypeOrganization EntityType = "organization"
)

// SocialPage is one postable destination under an account: a Facebook page,
// an Instagram profile, a Pinterest board, a YouTube channel, a LinkedIn
// profile or organization, a Google Business location. The page token may
// differ from the owning account's token (Facebook page-scoped tokens).
type SocialPage struct {
	ID                 string         `db:"id" json:"id"`
	Platform           Platform       `db:"platform" json:"platform"`
	EntityType         EntityType     `db:"entity_type" json:"entity_type"`
	Name               string         `db:"name" json:"name"`
	PageID             string         `db:"page_id" json:"page_id"`
	AuthToken          string         `db:"auth_token" json:"-"`
	AuthTokenExpiresAt *time.Time     `db:"auth_token_expires_at" json:"auth_token_expires_at"`
	Connected          bool           `db:"connected" json:"connected"`
	Status             AccountStatus  `db:"status" json:"status"`
	AccountID          string         `db:"account_id" json:"account_id"`
	StatusUpdatedAt    time.Time      `db:"status_updated_at" json:"status_updated_at"`
	PostCount          int64          `db:"post_count" json:"post_count"`
	FollowerCount      int64          `db:"follower_count" json:"follower_count"`
	Metadata           map[string]any `db:"metadata" json:"metadata,omitempty"`
}
