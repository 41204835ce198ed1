package platform

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func TestCodeOfExtractsThroughWrapping(t *testing.T) {
	inner := NewNotSupportedError(models.PlatformPinterest, "scheduling")
	wrapped := fmt.Errorf("publish failed: %w", inner)

	require.Equal(t, ErrCodeFeatureNotSupported, CodeOf(wrapped))
	require.True(t, IsCode(wrapped, ErrCodeFeatureNotSupported))
}

func TestCodeOfUnknownForPlainErrors(t *testing.T) {
	require.Equal(t, ErrCodeUnknown, CodeOf(errors.New("boom")))
	require.Equal(t, ErrCodeUnknown, CodeOf(nil))
}

func TestErrorStringIncludesDetails(t *testing.T) {
	err := NewAPIError(models.PlatformFacebook, 400, `{"error":"bad"}`)
	require.Contains(t, err.Error(), "facebook")
	require.Contains(t, err.Error(), "API_ERROR")
	require.Contains(t, err.Error(), `{"error":"bad"}`)
}

func TestTokenExpiredErrorUnwraps(t *testing.T) {
	cause := errors.New("refresh rejected")
	err := NewTokenExpiredError(models.PlatformTikTok, cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, ErrCodeTokenExpired, CodeOf(err))
}
