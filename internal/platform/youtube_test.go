package platform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func youtubePage() *models.SocialPage {
	return &models.SocialPage{
		ID:        "local-yt-1",
		Platform:  models.PlatformYouTube,
		PageID:    "UC123",
		Name:      "testchannel",
		AuthToken: "page-token",
	}
}

func TestYouTubePublishRequiresVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for non-video media")
	}))
	defer srv.Close()

	d := NewYouTube(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.PublishPost(context.Background(), youtubePage(), &models.PostContent{
		Text:  "caption",
		Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeValidation, CodeOf(err))
}

func TestYouTubeScheduledPublishStaysPrivate(t *testing.T) {
	at := time.Now().Add(3 * time.Hour)

	var uploadBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/clip.mp4":
			w.Write([]byte("video-bytes"))
		case strings.Contains(r.URL.Path, "videos"):
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			uploadBody = string(raw)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"vid-1"}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewYouTube(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), youtubePage(), &models.PostContent{
		Title: "launch day",
		Text:  "launch day",
		Media: &models.MediaContent{Type: models.MediaTypeVideo, URLs: []string{srv.URL + "/clip.mp4"}},
	}, &models.PublishOptions{
		ScheduledAt: &at,
		YouTube:     &models.YouTubeOptions{PrivacyStatus: "public"},
	})
	require.NoError(t, err)
	require.Equal(t, "vid-1", h.PostID)

	// a scheduled video sits private until publishAt, whatever the caller asked for
	require.Contains(t, uploadBody, `"privacyStatus":"private"`)
	require.Contains(t, uploadBody, at.UTC().Format(time.RFC3339))
}

func TestYouTubeRefreshRequiresRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a refresh token")
	}))
	defer srv.Close()

	d := NewYouTube(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.RefreshToken(context.Background(), &models.SocialAccount{
		Platform:  models.PlatformYouTube,
		AuthToken: "stale",
	})
	require.Error(t, err)
	require.Equal(t, ErrCodeTokenExpired, CodeOf(err))
}
