package platform

import (
	"fmt"

	"github.com/publora/publora/internal/models"
)

// FactoryConfig carries one credential triple per platform. Instagram takes
// a second triple because the business login flow is registered as its own
// app on Meta's side.
type FactoryConfig struct {
	Facebook          Credentials
	Instagram         Credentials
	InstagramBusiness Credentials
	LinkedIn          Credentials
	Pinterest         Credentials
	TikTok            Credentials
	YouTube           Credentials
	GoogleBusiness    Credentials
}

// Factory hands out drivers by platform name. Shared options (logger, sink,
// pipeline, http client) apply to every driver it builds.
type Factory struct {
	cfg  FactoryConfig
	opts []Option
}

func NewFactory(cfg FactoryConfig, opts ...Option) *Factory {
	return &Factory{cfg: cfg, opts: opts}
}

// Driver builds the driver for a platform. method selects between login
// variants where a platform has more than one, currently only Instagram's
// business login.
func (f *Factory) Driver(p models.Platform, method ...string) (Driver, error) {
	m := ""
	if len(method) > 0 {
		m = method[0]
	}

	switch p {
	case models.PlatformFacebook:
		return NewFacebook(f.cfg.Facebook, f.opts...), nil
	case models.PlatformInstagram:
		if m == MethodInstagramBusiness {
			return NewInstagramBusiness(f.cfg.InstagramBusiness, f.opts...), nil
		}
		return NewInstagram(f.cfg.Instagram, f.opts...), nil
	case models.PlatformLinkedIn:
		return NewLinkedIn(f.cfg.LinkedIn, f.opts...), nil
	case models.PlatformPinterest:
		return NewPinterest(f.cfg.Pinterest, f.opts...), nil
	case models.PlatformTikTok:
		return NewTikTok(f.cfg.TikTok, f.opts...), nil
	case models.PlatformYouTube:
		return NewYouTube(f.cfg.YouTube, f.opts...), nil
	case models.PlatformGoogleBusiness:
		return NewGoogleBusiness(f.cfg.GoogleBusiness, f.opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, p)
	}
}

// Drivers builds every registered platform's default driver.
func (f *Factory) Drivers() map[models.Platform]Driver {
	out := make(map[models.Platform]Driver, len(registry))
	for _, p := range Platforms() {
		d, err := f.Driver(p)
		if err != nil {
			continue
		}
		out[p] = d
	}
	return out
}
