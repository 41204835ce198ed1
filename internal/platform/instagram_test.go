package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func instagramPage() *models.SocialPage {
	return &models.SocialPage{
		ID:       "local-ig-1",
		Platform: models.PlatformInstagram,
		PageID:   "17890",
		Name:     "testprofile",
	}
}

func TestInstagramPublishRequiresMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without media")
	}))
	defer srv.Close()

	d := NewInstagram(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.PublishPost(context.Background(), instagramPage(), &models.PostContent{Text: "caption only"}, nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeValidation, CodeOf(err))
}

func TestInstagramPublishSingleImage(t *testing.T) {
	var containerCalls, publishCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v19.0/17890/media":
			containerCalls++
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "https://cdn.example.com/a.jpg", body["image_url"])
			w.Write([]byte(`{"id":"container-1"}`))
		case "/v19.0/17890/media_publish":
			publishCalls++
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "container-1", body["creation_id"])
			w.Write([]byte(`{"id":"ig-post-1"}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewInstagram(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), instagramPage(), &models.PostContent{
		Text:  "caption",
		Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "ig-post-1", h.PostID)
	require.Equal(t, 1, containerCalls)
	require.Equal(t, 1, publishCalls)
}

func TestInstagramPublishAtOnlyForDirectLogin(t *testing.T) {
	at := time.Now().Add(2 * time.Hour)

	publishAt := func(t *testing.T, build func(Credentials, ...Option) Driver, prefix string) (any, bool) {
		t.Helper()
		var got any
		var present bool

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case prefix + "/17890/media":
				w.Write([]byte(`{"id":"container-1"}`))
			case prefix + "/17890/media_publish":
				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				got, present = body["publish_at"]
				w.Write([]byte(`{"id":"ig-post-sched"}`))
			default:
				t.Errorf("unexpected call to %s", r.URL.Path)
			}
		}))
		defer srv.Close()

		d := build(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
		_, err := d.PublishPost(context.Background(), instagramPage(), &models.PostContent{
			Text:  "later",
			Media: &models.MediaContent{Type: models.MediaTypeImage, URLs: []string{"https://cdn.example.com/a.jpg"}},
		}, &models.PublishOptions{ScheduledAt: &at})
		require.NoError(t, err)
		return got, present
	}

	_, present := publishAt(t, NewInstagram, "/v19.0")
	require.False(t, present, "graph login must not send publish_at")

	got, present := publishAt(t, NewInstagramBusiness, "")
	require.True(t, present, "direct business login schedules natively")
	require.Equal(t, float64(at.Unix()), got)
}

func TestInstagramPublishCarousel(t *testing.T) {
	var childCalls, carouselCalls, statusCalls, publishCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v19.0/17890/media":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["media_type"] == "CAROUSEL" {
				carouselCalls++
				require.Equal(t, "child-1,child-1,child-1", body["children"])
				w.Write([]byte(`{"id":"carousel-1"}`))
				return
			}
			childCalls++
			require.Equal(t, true, body["is_carousel_item"])
			w.Write([]byte(`{"id":"child-1"}`))
		case strings.HasPrefix(r.URL.Path, "/v19.0/carousel-1"):
			statusCalls++
			w.Write([]byte(`{"status_code":"FINISHED"}`))
		case r.URL.Path == "/v19.0/17890/media_publish":
			publishCalls++
			w.Write([]byte(`{"id":"ig-post-2"}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewInstagram(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), instagramPage(), &models.PostContent{
		Text: "carousel",
		Media: &models.MediaContent{Type: models.MediaTypeCarousel, URLs: []string{
			"https://cdn.example.com/a.jpg",
			"https://cdn.example.com/b.jpg",
			"https://cdn.example.com/c.jpg",
		}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "ig-post-2", h.PostID)
	require.Equal(t, 3, childCalls)
	require.Equal(t, 1, carouselCalls)
	require.Equal(t, 1, statusCalls)
	require.Equal(t, 1, publishCalls)
}

func TestInstagramContainerErrorFailsPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v19.0/17890/media":
			w.Write([]byte(`{"id":"container-err"}`))
		case strings.HasPrefix(r.URL.Path, "/v19.0/container-err"):
			w.Write([]byte(`{"status_code":"ERROR","status":"unsupported format"}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewInstagram(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.PublishPost(context.Background(), instagramPage(), &models.PostContent{
		Text:  "reel",
		Media: &models.MediaContent{Type: models.MediaTypeVideo, URLs: []string{"https://cdn.example.com/a.mp4"}},
	}, nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeAPI, CodeOf(err))
	require.Contains(t, err.Error(), "unsupported format")
}

func TestInstagramDeleteNotSupported(t *testing.T) {
	d := NewInstagram(testCreds())

	err := d.DeletePost(context.Background(), instagramPage(), "ig-post-1")
	require.Error(t, err)
	require.Equal(t, ErrCodeFeatureNotSupported, CodeOf(err))
}
