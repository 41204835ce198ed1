package platform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func TestValidateContentNil(t *testing.T) {
	result := ValidateContent(nil, Lookup(models.PlatformFacebook))
	require.False(t, result.IsValid)
	require.Contains(t, result.Errors[0], "content is required")
}

func TestValidateContentCharacterLimit(t *testing.T) {
	cfg := Lookup(models.PlatformPinterest)

	ok := ValidateContent(&models.PostContent{Text: strings.Repeat("a", 500)}, cfg)
	require.True(t, ok.IsValid)

	over := ValidateContent(&models.PostContent{Text: strings.Repeat("a", 501)}, cfg)
	require.False(t, over.IsValid)
	require.Contains(t, over.Errors[0], "500 character limit")
}

func TestValidateContentTitleLimit(t *testing.T) {
	cfg := Lookup(models.PlatformFacebook)

	result := ValidateContent(&models.PostContent{
		Text:  "hello",
		Title: strings.Repeat("t", 101),
	}, cfg)
	require.False(t, result.IsValid)
	require.Contains(t, result.Errors[0], "title exceeds")
}

func TestValidateContentUnsupportedMediaType(t *testing.T) {
	cfg := Lookup(models.PlatformYouTube)

	result := ValidateContent(&models.PostContent{
		Text:  "hello",
		Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, cfg)
	require.False(t, result.IsValid)
	require.Contains(t, result.Errors[0], "does not support image posts")
}

func TestValidateContentMaxMediaCount(t *testing.T) {
	cfg := Lookup(models.PlatformPinterest)

	urls := make([]string, 6)
	for i := range urls {
		urls[i] = "https://cdn.example.com/a.jpg"
	}
	result := ValidateContent(&models.PostContent{
		Text:  "hello",
		Media: &models.MediaContent{Type: models.MediaTypeCarousel, URLs: urls},
	}, cfg)
	require.False(t, result.IsValid)
	require.Contains(t, result.Errors[0], "at most 5 media items")
}

func TestValidateContentInstagramCarouselMinimum(t *testing.T) {
	cfg := Lookup(models.PlatformInstagram)

	result := ValidateContent(&models.PostContent{
		Text:  "hello",
		Media: &models.MediaContent{Type: models.MediaTypeCarousel, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, cfg)
	require.False(t, result.IsValid)
	require.Contains(t, result.Errors[0], "at least 2 media items")
}

func TestValidateContentTikTokSingleVideo(t *testing.T) {
	cfg := Lookup(models.PlatformTikTok)

	result := ValidateContent(&models.PostContent{
		Text: "hello",
		Media: &models.MediaContent{Type: models.MediaTypeVideo, URLs: []string{
			"https://cdn.example.com/a.mp4",
			"https://cdn.example.com/b.mp4",
		}},
	}, cfg)
	require.False(t, result.IsValid)
	require.Contains(t, result.Errors[0], "exactly 1 video")
}

func TestValidateContentCollectsAllErrors(t *testing.T) {
	cfg := Lookup(models.PlatformPinterest)

	result := ValidateContent(&models.PostContent{
		Text: strings.Repeat("a", 501),
		Media: &models.MediaContent{Type: models.MediaTypeVideo, URLs: []string{
			"https://cdn.example.com/a.mp4",
			"https://cdn.example.com/b.mp4",
		}},
	}, cfg)
	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 2)
}
