package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func TestNormalizePostHistoryFillsDefaults(t *testing.T) {
	page := &models.SocialPage{ID: "page-1"}

	h := NormalizePostHistory(nil, page)
	require.NotEmpty(t, h.ID)
	require.Equal(t, "page-1", h.PageID)
	require.Equal(t, models.PostStatusPublished, h.Status)
	require.NotNil(t, h.MediaURLs)
	require.False(t, h.PublishedAt.IsZero())
}

func TestNormalizePostHistoryKeepsExistingValues(t *testing.T) {
	published := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	in := &models.PostHistory{
		ID:          "h-1",
		PageID:      "page-2",
		Status:      models.PostStatusFailed,
		MediaURLs:   []string{"https://cdn.example.com/a.jpg"},
		PublishedAt: published,
	}

	h := NormalizePostHistory(in, &models.SocialPage{ID: "page-1"})
	require.Equal(t, "h-1", h.ID)
	require.Equal(t, "page-2", h.PageID)
	require.Equal(t, models.PostStatusFailed, h.Status)
	require.Equal(t, published, h.PublishedAt)
}

func TestNormalizePostHistoryLeavesFailedUnpublished(t *testing.T) {
	h := NormalizePostHistory(&models.PostHistory{Status: models.PostStatusFailed}, nil)
	require.True(t, h.PublishedAt.IsZero())
}
