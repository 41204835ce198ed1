package platform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/publora/publora/internal/models"
)

func testFactory() *Factory {
	creds := Credentials{ClientID: "id", ClientSecret: "secret", RedirectURI: "https://app.example.com/callback"}
	return NewFactory(FactoryConfig{
		Facebook:          creds,
		Instagram:         creds,
		InstagramBusiness: creds,
		LinkedIn:          creds,
		Pinterest:         creds,
		TikTok:            creds,
		YouTube:           creds,
		GoogleBusiness:    creds,
	})
}

func TestFactoryBuildsEveryRegisteredPlatform(t *testing.T) {
	f := testFactory()

	for _, p := range Platforms() {
		d, err := f.Driver(p)
		require.NoError(t, err, "platform %s", p)
		require.Equal(t, p, d.Platform())
	}
}

func TestFactoryDrivers(t *testing.T) {
	drivers := testFactory().Drivers()
	require.Len(t, drivers, len(Platforms()))
}

func TestFactoryInstagramBusinessMethod(t *testing.T) {
	f := testFactory()

	d, err := f.Driver(models.PlatformInstagram, MethodInstagramBusiness)
	require.NoError(t, err)
	require.Equal(t, models.PlatformInstagram, d.Platform())

	// business login uses the Instagram host directly, not the graph host
	other, err := f.Driver(models.PlatformInstagram)
	require.NoError(t, err)
	require.Equal(t, models.PlatformInstagram, other.Platform())
}

func TestFactoryUnknownPlatform(t *testing.T) {
	_, err := testFactory().Driver(models.Platform("myspace"))
	require.ErrorIs(t, err, ErrUnknownPlatform)
}
