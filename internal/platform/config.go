package platform

import "github.com/publora/publora/internal/models"

// Features describes what a vendor offers. Consulted by the validator and by
// feature-gated operations before any network call.
type Features struct {
	Scheduling       bool
	Analytics        bool
	Deletion         bool
	MultipleAccounts bool
	MediaTypes       []models.MediaType
	MaxMediaCount    int
}

type CharacterLimits struct {
	Content int
	Title   int
}

// Config is one capability-registry entry. Read-only static data.
type Config struct {
	Name            models.Platform
	Label           string
	BaseURL         string
	AuthURL         string
	APIVersion      string
	Scopes          []string
	Features        Features
	CharacterLimits CharacterLimits
}

func (c *Config) SupportsMediaType(t models.MediaType) bool {
	for _, mt := range c.Features.MediaTypes {
		if mt == t {
			return true
		}
	}
	return false
}

var registry = map[models.Platform]*Config{
	models.PlatformFacebook: {
		Name:       models.PlatformFacebook,
		Label:      "Facebook",
		BaseURL:    "https://graph.facebook.com",
		AuthURL:    "https://www.facebook.com/v23.0/dialog/oauth",
		APIVersion: "v23.0",
		Scopes: []string{
			"pages_show_list",
			"pages_read_engagement",
			"pages_manage_posts",
			"business_management",
		},
		Features: Features{
			Scheduling:       true,
			Analytics:        true,
			Deletion:         true,
			MultipleAccounts: true,
			MediaTypes: []models.MediaType{
				models.MediaTypeImage, models.MediaTypeVideo,
				models.MediaTypeCarousel, models.MediaTypeStory,
			},
			MaxMediaCount: 10,
		},
		CharacterLimits: CharacterLimits{Content: 63206, Title: 100},
	},
	models.PlatformInstagram: {
		Name:       models.PlatformInstagram,
		Label:      "Instagram",
		BaseURL:    "https://graph.facebook.com",
		AuthURL:    "https://www.facebook.com/v19.0/dialog/oauth",
		APIVersion: "v19.0",
		Scopes: []string{
			"instagram_basic",
			"instagram_content_publish",
			"pages_show_list",
			"business_management",
		},
		Features: Features{
			Scheduling:       true,
			Analytics:        true,
			Deletion:         false,
			MultipleAccounts: true,
			MediaTypes: []models.MediaType{
				models.MediaTypeImage, models.MediaTypeVideo,
				models.MediaTypeCarousel, models.MediaTypeStory,
			},
			MaxMediaCount: 10,
		},
		CharacterLimits: CharacterLimits{Content: 2200, Title: 100},
	},
	models.PlatformLinkedIn: {
		Name:       models.PlatformLinkedIn,
		Label:      "LinkedIn",
		BaseURL:    "https://api.linkedin.com",
		AuthURL:    "https://www.linkedin.com/oauth/v2/authorization",
		APIVersion: "202507",
		Scopes: []string{
			"openid", "profile", "email",
			"w_member_social",
			"r_organization_social", "w_organization_social", "rw_organization_admin",
		},
		Features: Features{
			Scheduling:       true,
			Analytics:        true,
			Deletion:         false,
			MultipleAccounts: true,
			MediaTypes:       []models.MediaType{models.MediaTypeImage, models.MediaTypeVideo, models.MediaTypeCarousel},
			MaxMediaCount:    20,
		},
		CharacterLimits: CharacterLimits{Content: 3000, Title: 200},
	},
	models.PlatformPinterest: {
		Name:       models.PlatformPinterest,
		Label:      "Pinterest",
		BaseURL:    "https://api.pinterest.com",
		AuthURL:    "https://www.pinterest.com/oauth",
		APIVersion: "v5",
		Scopes: []string{
			"boards:read", "boards:write",
			"pins:read", "pins:write",
			"user_accounts:read",
		},
		Features: Features{
			Scheduling:       false,
			Analytics:        false,
			Deletion:         true,
			MultipleAccounts: true,
			MediaTypes:       []models.MediaType{models.MediaTypeImage, models.MediaTypeVideo, models.MediaTypeCarousel},
			MaxMediaCount:    5,
		},
		CharacterLimits: CharacterLimits{Content: 500, Title: 100},
	},
	models.PlatformTikTok: {
		Name:       models.PlatformTikTok,
		Label:      "TikTok",
		BaseURL:    "https://open.tiktokapis.com",
		AuthURL:    "https://www.tiktok.com/v2/auth/authorize/",
		APIVersion: "v2",
		Scopes: []string{
			"user.info.basic",
			"user.info.profile",
			"user.info.stats",
			"video.publish",
			"video.upload",
			"video.list",
		},
		Features: Features{
			Scheduling:       false,
			Analytics:        true,
			Deletion:         false,
			MultipleAccounts: false,
			MediaTypes:       []models.MediaType{models.MediaTypeVideo, models.MediaTypeImage, models.MediaTypeCarousel},
			MaxMediaCount:    10,
		},
		CharacterLimits: CharacterLimits{Content: 2200, Title: 100},
	},
	models.PlatformYouTube: {
		Name:       models.PlatformYouTube,
		Label:      "YouTube",
		BaseURL:    "https://www.googleapis.com/youtube/v3",
		AuthURL:    "https://accounts.google.com/o/oauth2/v2/auth",
		APIVersion: "v3",
		Scopes: []string{
			"https://www.googleapis.com/auth/youtube.upload",
			"https://www.googleapis.com/auth/youtube.readonly",
		},
		Features: Features{
			Scheduling:       true,
			Analytics:        false,
			Deletion:         true,
			MultipleAccounts: false,
			MediaTypes:       []models.MediaType{models.MediaTypeVideo},
			MaxMediaCount:    1,
		},
		CharacterLimits: CharacterLimits{Content: 5000, Title: 100},
	},
	models.PlatformGoogleBusiness: {
		Name:       models.PlatformGoogleBusiness,
		Label:      "Google Business",
		BaseURL:    "https://mybusiness.googleapis.com",
		AuthURL:    "https://accounts.google.com/o/oauth2/v2/auth",
		APIVersion: "v4",
		Scopes: []string{
			"https://www.googleapis.com/auth/business.manage",
		},
		Features: Features{
			Scheduling:       false,
			Analytics:        false,
			Deletion:         false,
			MultipleAccounts: true,
			MediaTypes:       []models.MediaType{models.MediaTypeImage},
			MaxMediaCount:    1,
		},
		CharacterLimits: CharacterLimits{Content: 1500, Title: 100},
	},
}

// Lookup returns the capability entry for a platform, nil when unknown.
func Lookup(p models.Platform) *Config {
	return registry[p]
}

// Platforms lists every registered platform.
func Platforms() []models.Platform {
	out := make([]models.Platform, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	return out
}
