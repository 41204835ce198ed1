package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func googleBusinessPage() *models.SocialPage {
	return &models.SocialPage{
		ID:       "local-gb-1",
		Platform: models.PlatformGoogleBusiness,
		PageID:   "accounts/108/locations/42",
		Name:     "Corner Bakery",
	}
}

func TestGoogleBusinessScheduledPublishNotSupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("scheduling must fail before any request")
	}))
	defer srv.Close()

	d := NewGoogleBusiness(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	at := time.Now().Add(time.Hour)
	_, err := d.PublishPost(context.Background(), googleBusinessPage(), &models.PostContent{Text: "grand opening"},
		&models.PublishOptions{ScheduledAt: &at})
	require.Error(t, err)
	require.Equal(t, ErrCodeFeatureNotSupported, CodeOf(err))
}

func TestGoogleBusinessPublishReportsVendorState(t *testing.T) {
	cases := []struct {
		state string
		want  models.PostStatus
	}{
		{"LIVE", models.PostStatusPublished},
		{"PROCESSING", models.PostStatusScheduled},
		{"REJECTED", models.PostStatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.state, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v4/accounts/108/locations/42/localPosts" {
					t.Errorf("unexpected call to %s", r.URL.Path)
					return
				}
				w.Write([]byte(`{"name":"localPosts/lp-1","state":"` + tc.state + `"}`))
			}))
			defer srv.Close()

			d := NewGoogleBusiness(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

			h, err := d.PublishPost(context.Background(), googleBusinessPage(), &models.PostContent{Text: "grand opening"}, nil)
			require.NoError(t, err)
			require.Equal(t, "localPosts/lp-1", h.PostID)
			require.Equal(t, tc.want, h.Status)
		})
	}
}

func TestGoogleBusinessRefreshRequiresRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a refresh token")
	}))
	defer srv.Close()

	d := NewGoogleBusiness(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.RefreshToken(context.Background(), &models.SocialAccount{
		Platform:  models.PlatformGoogleBusiness,
		AuthToken: "stale",
	})
	require.Error(t, err)
	require.Equal(t, ErrCodeTokenExpired, CodeOf(err))
}

func TestGoogleBusinessDeleteNotSupported(t *testing.T) {
	d := NewGoogleBusiness(testCreds())

	err := d.DeletePost(context.Background(), googleBusinessPage(), "localPosts/lp-1")
	require.Error(t, err)
	require.Equal(t, ErrCodeFeatureNotSupported, CodeOf(err))
}
