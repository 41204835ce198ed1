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

func testCreds() Credentials {
	return Credentials{ClientID: "id", ClientSecret: "secret", RedirectURI: "https://app.example.com/callback"}
}

func facebookPage() *models.SocialPage {
	return &models.SocialPage{
		ID:       "local-page-1",
		Platform: models.PlatformFacebook,
		PageID:   "7001",
		Name:     "Test Page",
	}
}

func TestFacebookPublishText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v23.0/7001/feed", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "hello world", body["message"])
		_, scheduled := body["scheduled_publish_time"]
		require.False(t, scheduled)

		w.Write([]byte(`{"id":"7001_555"}`))
	}))
	defer srv.Close()

	d := NewFacebook(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), facebookPage(), &models.PostContent{Text: "hello world"}, nil)
	require.NoError(t, err)
	require.Equal(t, "7001_555", h.PostID)
	require.Equal(t, models.PostStatusPublished, h.Status)
}

func TestFacebookPublishScheduled(t *testing.T) {
	at := time.Now().Add(2 * time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, false, body["published"])
		require.Equal(t, float64(at.Unix()), body["scheduled_publish_time"])
		w.Write([]byte(`{"id":"7001_556"}`))
	}))
	defer srv.Close()

	d := NewFacebook(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), facebookPage(), &models.PostContent{Text: "later"}, &models.PublishOptions{ScheduledAt: &at})
	require.NoError(t, err)
	require.Equal(t, models.PostStatusScheduled, h.Status)
	require.NotNil(t, h.ScheduledFor)
}

func TestFacebookPublishPhotoPrefersPostID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v23.0/7001/photos", r.URL.Path)
		w.Write([]byte(`{"id":"photo-1","post_id":"7001_557"}`))
	}))
	defer srv.Close()

	d := NewFacebook(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), facebookPage(), &models.PostContent{
		Text:  "photo post",
		Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "7001_557", h.PostID)
}

func TestFacebookPublishCarouselAttachesEveryImage(t *testing.T) {
	var photoCalls, feedCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v23.0/7001/photos":
			photoCalls++
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, false, body["published"])
			w.Write([]byte(`{"id":"media-1"}`))
		case "/v23.0/7001/feed":
			feedCalls++
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body["attached_media"], 3)
			w.Write([]byte(`{"id":"7001_558"}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewFacebook(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), facebookPage(), &models.PostContent{
		Text: "carousel",
		Media: &models.MediaContent{Type: models.MediaTypeCarousel, URLs: []string{
			"https://cdn.example.com/a.jpg",
			"https://cdn.example.com/b.jpg",
			"https://cdn.example.com/c.jpg",
		}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "7001_558", h.PostID)
	require.Equal(t, 3, photoCalls)
	require.Equal(t, 1, feedCalls)
}

func TestFacebookValidationFailsBeforeAnyRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid content")
	}))
	defer srv.Close()

	d := NewFacebook(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	urls := make([]string, 11)
	for i := range urls {
		urls[i] = "https://cdn.example.com/a.jpg"
	}
	_, err := d.PublishPost(context.Background(), facebookPage(), &models.PostContent{
		Text:  "too many",
		Media: &models.MediaContent{Type: models.MediaTypeCarousel, URLs: urls},
	}, nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeValidation, CodeOf(err))
}

func TestFacebookDeletePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/v23.0/7001_555", r.URL.Path)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	d := NewFacebook(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, d.DeletePost(context.Background(), facebookPage(), "7001_555"))
}

func TestFacebookCheckPageStatus(t *testing.T) {
	expired := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if expired {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"7001","name":"Test Page"}`))
	}))
	defer srv.Close()

	d := NewFacebook(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	page := d.CheckPageStatus(context.Background(), facebookPage())
	require.Equal(t, models.AccountStatusActive, page.Status)

	expired = true
	page = d.CheckPageStatus(context.Background(), facebookPage())
	require.Equal(t, models.AccountStatusExpired, page.Status)
}
