package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func linkedinOrgPage() *models.SocialPage {
	return &models.SocialPage{
		ID:         "local-li-1",
		Platform:   models.PlatformLinkedIn,
		EntityType: models.EntityTypeOrganization,
		PageID:     "urn:li:organization:123",
		Name:       "Acme",
	}
}

func TestLinkedInPublishOrganizationText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/posts", r.URL.Path)
		require.Equal(t, "202507", r.Header.Get("LinkedIn-Version"))
		require.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "urn:li:organization:123", body["author"])
		require.Equal(t, "hello linkedin", body["commentary"])
		require.Equal(t, "PUBLISHED", body["lifecycleState"])

		w.Header().Set("x-restli-id", "urn:li:share:999")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := NewLinkedIn(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	h, err := d.PublishPost(context.Background(), linkedinOrgPage(), &models.PostContent{Text: "hello linkedin"}, nil)
	require.NoError(t, err)
	require.Equal(t, "urn:li:share:999", h.PostID)
}

func TestLinkedInPublishMissingRestliIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := NewLinkedIn(testCreds(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := d.PublishPost(context.Background(), linkedinOrgPage(), &models.PostContent{Text: "hello"}, nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeAPI, CodeOf(err))
}

func TestLinkedInDeleteNotSupported(t *testing.T) {
	d := NewLinkedIn(testCreds())

	err := d.DeletePost(context.Background(), linkedinOrgPage(), "urn:li:share:999")
	require.Error(t, err)
	require.Equal(t, ErrCodeFeatureNotSupported, CodeOf(err))
}

func TestLinkedInRefreshWithoutTokenKeepsAccount(t *testing.T) {
	d := NewLinkedIn(testCreds())

	acc := &models.SocialAccount{Platform: models.PlatformLinkedIn, AuthToken: "tok"}
	out, err := d.RefreshToken(context.Background(), acc)
	require.NoError(t, err)
	require.Equal(t, "tok", out.AuthToken)
}
