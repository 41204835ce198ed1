package models

import (
	"time"
)

type Platform string

const (
	PlatformFacebook       Platform = "facebook"
	PlatformInstagram      Platform = "instagram"
	PlatformLinkedIn       Platform = "linkedin"
	PlatformPinterest      Platform = "pinterest"
	PlatformTikTok         Platform = "tiktok"
	PlatformYouTube        Platform = "youtube"
	PlatformGoogleBusiness Platform = "google"
)

type AccountStatus string

const (
	AccountStatusActive       AccountStatus = "active"
	AccountStatusExpired      AccountStatus = "expired"
	AccountStatusPending      AccountStatus = "pending"
	AccountStatusDisconnected AccountStatus = "disconnected"
	AccountStatusError        AccountStatus = "error"
)

// SocialAccount is one OAuth-authenticated identity at a vendor. Tokens are
// stored encrypted; the repository layer encrypts/decrypts on the way through.
type SocialAccount struct {
	ID                    string         `db:"id" json:"id"`
	UserID                int64          `db:"user_id" json:"user_id"`
	Platform              Platform       `db:"platform" json:"platform"`
	Name                  string         `db:"name" json:"name"`
	AccountID             string         `db:"account_id" json:"account_id"`
	AuthToken             string         `db:"auth_token" json:"-"`
	RefreshToken          string         `db:"refresh_token" json:"-"`
	AccessTokenExpiresAt  *time.Time     `db:"access_token_expires_at" json:"access_token_expires_at"`
	RefreshTokenExpiresAt *time.Time     `db:"refresh_token_expires_at" json:"refresh_token_expires_at"`
	TokenIssuedAt         time.Time      `db:"token_issued_at" json:"token_issued_at"`
	Connected             bool           `db:"connected" json:"connected"`
	Status                AccountStatus  `db:"status" json:"status"`
	Metadata              map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}
