package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func tiktokPage() *models.SocialPage {
	return &models.SocialPage{
		ID:       "local-tt-1",
		Platform: models.PlatformTikTok,
		PageID:   "open-id-1",
		Name:     "creator",
	}
}

func TestTikTokAuthURLUsesClientKey(t *testing.T) {
	d := NewTikTok(testCreds())

	rawURL, err := d.AuthURL()
	require.NoError(t, err)

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "id", q.Get("client_key"))
	require.Empty(t, q.Get("client_id"))
	require.NotEmpty(t, q.Get("state"))
}

func TestTikTokPublishVideo(t *testing.T) {
	var initCalls, statusCalls, creatorCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/post/publish/creator_info/query/":
			creatorCalls++
			w.Write([]byte(`{"data":{"privacy_level_options":["SELF_ONLY","PUBLIC_TO_EVERYONE"]},"error":{"code":"ok"}}`))
		case "/v2/post/publish/video/init/":
			initCalls++
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			postInfo := body["post_info"].(map[string]any)
			require.Equal(t, "SELF_ONLY", postInfo["privacy_level"])

			sourceInfo := body["source_info"].(map[string]any)
			require.Equal(t, "PULL_FROM_URL", sourceInfo["source"])
			require.Equal(t, "https://cdn.example.com/a.mp4", sourceInfo["video_url"])

			w.Write([]byte(`{"data":{"publish_id":"pub-1"},"error":{"code":"ok"}}`))
		case "/v2/post/publish/status/fetch/":
			statusCalls++
			w.Write([]byte(`{"data":{"status":"PUBLISH_COMPLETE"},"error":{"code":"ok"}}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewTikTok(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), tiktokPage(), &models.PostContent{
		Text:  "my video",
		Media: &models.MediaContent{Type: models.MediaTypeVideo, URLs: []string{"https://cdn.example.com/a.mp4"}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "pub-1", h.PostID)
	require.Equal(t, 1, creatorCalls)
	require.Equal(t, 1, initCalls)
	require.Equal(t, 1, statusCalls)
}

func TestTikTokPublishRejectsUnavailablePrivacyLevel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/post/publish/creator_info/query/":
			w.Write([]byte(`{"data":{"privacy_level_options":["SELF_ONLY"]},"error":{"code":"ok"}}`))
		default:
			t.Errorf("no upload may start for a forbidden privacy level, got %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewTikTok(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.PublishPost(context.Background(), tiktokPage(), &models.PostContent{
		Text:  "my video",
		Media: &models.MediaContent{Type: models.MediaTypeVideo, URLs: []string{"https://cdn.example.com/a.mp4"}},
	}, &models.PublishOptions{TikTok: &models.TikTokOptions{PrivacyLevel: "PUBLIC_TO_EVERYONE"}})
	require.Error(t, err)
	require.Equal(t, ErrCodeValidation, CodeOf(err))
	require.Contains(t, err.Error(), "PUBLIC_TO_EVERYONE")
}

func TestTikTokPublishFailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/post/publish/creator_info/query/":
			w.Write([]byte(`{"data":{"privacy_level_options":["SELF_ONLY"]},"error":{"code":"ok"}}`))
		case "/v2/post/publish/content/init/":
			w.Write([]byte(`{"data":{"publish_id":"pub-2"},"error":{"code":"ok"}}`))
		case "/v2/post/publish/status/fetch/":
			w.Write([]byte(`{"data":{"status":"FAILED","fail_reason":"picture_size_check_failed"},"error":{"code":"ok"}}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewTikTok(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.PublishPost(context.Background(), tiktokPage(), &models.PostContent{
		Text:  "photos",
		Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeAPI, CodeOf(err))
	require.Contains(t, err.Error(), "picture_size_check_failed")
}

func TestTikTokBodyErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with the failure inside the body
		w.Write([]byte(`{"data":{},"error":{"code":"access_token_invalid","message":"token bad"}}`))
	}))
	defer srv.Close()

	d := NewTikTok(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.ListPages(context.Background(), &models.SocialAccount{AuthToken: "tok"})
	require.Error(t, err)
	require.Equal(t, ErrCodeTokenExpired, CodeOf(err))
}

func TestTikTokSchedulingNotSupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("scheduling must fail before any request")
	}))
	defer srv.Close()

	d := NewTikTok(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	at := time.Now().Add(time.Hour)
	_, err := d.PublishPost(context.Background(), tiktokPage(), &models.PostContent{
		Text:  "later",
		Media: &models.MediaContent{Type: models.MediaTypeVideo, URLs: []string{"https://cdn.example.com/a.mp4"}},
	}, &models.PublishOptions{ScheduledAt: &at})
	require.Error(t, err)
	require.Equal(t, ErrCodeFeatureNotSupported, CodeOf(err))
}

func TestTikTokDeleteNotSupported(t *testing.T) {
	d := NewTikTok(testCreds())

	err := d.DeletePost(context.Background(), tiktokPage(), "pub-1")
	require.Error(t, err)
	require.Equal(t, ErrCodeFeatureNotSupported, CodeOf(err))
}
