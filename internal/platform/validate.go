package platform

import (
	"fmt"
	"strings"

	"github.com/publora/publora/internal/models"
)

// ValidationResult is returned instead of an error so callers can render
// per-field messages. IsValid=false means no network call may be made.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// ValidateContent checks content against a capability entry. Synchronous,
// side-effect free, no I/O.
func ValidateContent(content *models.PostContent, cfg *Config) ValidationResult {
	var errs []string

	if content == nil {
		return ValidationResult{IsValid: false, Errors: []string{"content is required"}}
	}

	if limit := cfg.CharacterLimits.Content; limit > 0 && len([]rune(content.Text)) > limit {
		errs = append(errs, fmt.Sprintf("text exceeds %s's %d character limit", cfg.Label, limit))
	}

	if limit := cfg.CharacterLimits.Title; limit > 0 && content.Title != "" && len([]rune(content.Title)) > limit {
		errs = append(errs, fmt.Sprintf("title exceeds %s's %d character limit", cfg.Label, limit))
	}

	if content.Media != nil {
		if !cfg.SupportsMediaType(content.Media.Type) {
			errs = append(errs, fmt.Sprintf("%s does not support %s posts", cfg.Label, content.Media.Type))
		}
		if max := cfg.Features.MaxMediaCount; max > 0 && len(content.Media.URLs) > max {
			errs = append(errs, fmt.Sprintf("%s allows at most %d media items", cfg.Label, max))
		}
		if rule, ok := extraRules[cfg.Name]; ok {
			errs = append(errs, rule(content)...)
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// Per-platform rules beyond the registry numbers, keyed by name rather than
// buried in driver types so they stay testable platform by platform.
var extraRules = map[models.Platform]func(*models.PostContent) []string{
	models.PlatformInstagram: func(c *models.PostContent) []string {
		if c.Media.Type == models.MediaTypeCarousel && len(c.Media.URLs) < 2 {
			return []string{"Instagram carousels need at least 2 media items"}
		}
		return nil
	},
	models.PlatformPinterest: func(c *models.PostContent) []string {
		if c.Media.Type == models.MediaTypeVideo && len(c.Media.URLs) != 1 {
			return []string{"Pinterest video pins take exactly 1 media item"}
		}
		return nil
	},
	models.PlatformLinkedIn: func(c *models.PostContent) []string {
		if c.Media.Type == models.MediaTypeCarousel && len(c.Media.URLs) > 9 {
			return []string{"LinkedIn profile carousels allow at most 9 images"}
		}
		return nil
	},
	models.PlatformTikTok: func(c *models.PostContent) []string {
		if c.Media.Type == models.MediaTypeVideo && len(c.Media.URLs) != 1 {
			return []string{"TikTok video posts take exactly 1 video"}
		}
		return nil
	},
}

func (r ValidationResult) joined() string {
	return strings.Join(r.Errors, "; ")
}
