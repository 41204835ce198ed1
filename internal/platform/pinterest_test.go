package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func pinterestBoard() *models.SocialPage {
	return &models.SocialPage{
		ID:       "local-board-1",
		Platform: models.PlatformPinterest,
		PageID:   "board-42",
		Name:     "Inspiration",
	}
}

func TestPinterestMultiImagePinUsesOneCall(t *testing.T) {
	var pinCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v5/pins", r.URL.Path)
		pinCalls++

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "board-42", body["board_id"])

		source := body["media_source"].(map[string]any)
		require.Equal(t, "multiple_image_urls", source["source_type"])
		require.Len(t, source["items"], 3)

		w.Write([]byte(`{"id":"pin-1"}`))
	}))
	defer srv.Close()

	d := NewPinterest(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), pinterestBoard(), &models.PostContent{
		Text:  "three pins",
		Title: "Trio",
		Media: &models.MediaContent{Type: models.MediaTypeCarousel, URLs: []string{
			"https://cdn.example.com/a.jpg",
			"https://cdn.example.com/b.jpg",
			"https://cdn.example.com/c.jpg",
		}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "pin-1", h.PostID)
	require.Equal(t, 1, pinCalls)
}

func TestPinterestSingleImagePin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		source := body["media_source"].(map[string]any)
		require.Equal(t, "image_url", source["source_type"])
		require.Equal(t, "https://cdn.example.com/a.jpg", source["url"])

		w.Write([]byte(`{"id":"pin-2"}`))
	}))
	defer srv.Close()

	d := NewPinterest(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), pinterestBoard(), &models.PostContent{
		Text:  "one pin",
		Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "pin-2", h.PostID)
}

func TestPinterestPublishRequiresMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without media")
	}))
	defer srv.Close()

	d := NewPinterest(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.PublishPost(context.Background(), pinterestBoard(), &models.PostContent{Text: "no media"}, nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeValidation, CodeOf(err))
}

func TestPinterestScheduleNotSupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("scheduling must fail before any request")
	}))
	defer srv.Close()

	d := NewPinterest(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.SchedulePost(context.Background(), pinterestBoard(), &models.PostContent{
		Text:  "later",
		Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, time.Now().Add(time.Hour))
	require.Error(t, err)
	require.Equal(t, ErrCodeFeatureNotSupported, CodeOf(err))
}

func TestPinterestRefreshWithoutTokenFailsFast(t *testing.T) {
	d := NewPinterest(testCreds())

	_, err := d.RefreshToken(context.Background(), &models.SocialAccount{Platform: models.PlatformPinterest})
	require.Error(t, err)
	require.Equal(t, ErrCodeTokenExpired, CodeOf(err))
}

func TestPinterestBoardIDOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "board-other", body["board_id"])
		w.Write([]byte(`{"id":"pin-3"}`))
	}))
	defer srv.Close()

	d := NewPinterest(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.PublishPost(context.Background(), pinterestBoard(), &models.PostContent{
		Text:  "moved",
		Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, &models.PublishOptions{Pinterest: &models.PinterestOptions{BoardID: "board-other"}})
	require.NoError(t, err)
}
