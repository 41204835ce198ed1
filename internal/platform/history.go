package platform

import (
	"time"

	"github.com/publora/publora/internal/models"
)

// NormalizePostHistory fills the defaults every PostHistory must carry so
// sparse vendor payloads never surface nil ids, statuses or media lists.
func NormalizePostHistory(h *models.PostHistory, page *models.SocialPage) *models.PostHistory {
	if h == nil {
		h = &models.PostHistory{}
	}
	if h.ID == "" {
		h.ID = newID()
	}
	if h.PageID == "" && page != nil {
		h.PageID = page.ID
	}
	if h.Status == "" {
		h.Status = models.PostStatusPublished
	}
	if h.MediaURLs == nil {
		h.MediaURLs = []string{}
	}
	if h.PublishedAt.IsZero() && h.Status == models.PostStatusPublished {
		h.PublishedAt = time.Now()
	}
	return h
}

// publishResult builds the normalized record for a fresh publish.
func publishResult(page *models.SocialPage, content *models.PostContent, opts *models.PublishOptions, vendorPostID string) *models.PostHistory {
	h := &models.PostHistory{
		ID:     newID(),
		PageID: page.ID,
		PostID: vendorPostID,
		Status: models.PostStatusPublished,
	}
	if content != nil {
		h.Content = content.Text
		if content.Media != nil {
			h.MediaURLs = append([]string{}, content.Media.URLs...)
		}
	}
	if opts != nil && opts.ScheduledAt != nil && opts.ScheduledAt.After(time.Now()) {
		h.Status = models.PostStatusScheduled
		h.ScheduledFor = opts.ScheduledAt
	}
	if opts != nil && opts.IsDraft {
		h.Status = models.PostStatusDraft
	}
	return NormalizePostHistory(h, page)
}
