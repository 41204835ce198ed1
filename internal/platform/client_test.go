package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func TestClientDecodesJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	c := NewClient(models.PlatformFacebook, srv.Client(), nil)

	var out struct {
		ID string `json:"id"`
	}
	err := c.GetJSON(context.Background(), srv.URL, "tok", &out)
	require.NoError(t, err)
	require.Equal(t, "42", out.ID)
}

func TestClientNon2xxBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	c := NewClient(models.PlatformFacebook, srv.Client(), nil)

	err := c.GetJSON(context.Background(), srv.URL, "tok", nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeAPI, CodeOf(err))
	require.Contains(t, err.Error(), "bad request")
}

func TestClientUpgrades401ToTokenExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(models.PlatformLinkedIn, srv.Client(), nil)

	err := c.GetJSON(context.Background(), srv.URL, "tok", nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeTokenExpired, CodeOf(err))
}

func TestClientTransportFailureBecomesNetworkError(t *testing.T) {
	c := NewClient(models.PlatformTikTok, http.DefaultClient, nil)

	// closed server, nothing listens on the port anymore
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := c.GetJSON(context.Background(), url, "tok", nil)
	require.Error(t, err)
	require.Equal(t, ErrCodeNetwork, CodeOf(err))
}

func TestClientFormWinsOverBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostFormValue("grant_type"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(models.PlatformTikTok, srv.Client(), nil)

	_, err := c.Do(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Form:   map[string][]string{"grant_type": {"authorization_code"}},
		Body:   map[string]string{"ignored": "yes"},
	})
	require.NoError(t, err)
}
