package config

import "os"

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type OAuthApp struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type Config struct {
	Facebook          OAuthApp
	Instagram         OAuthApp
	InstagramBusiness OAuthApp
	LinkedIn          OAuthApp
	Pinterest         OAuthApp
	Tiktok            OAuthApp
	Youtube           OAuthApp
	GoogleBusiness    OAuthApp

	// Google login for the app itself, separate from the platform apps.
	GoogleLogin OAuthApp

	PostgresURI  string
	DatabaseName string
	RedisURI     string
	FrontendURL  string
	R2           R2
	SecretKey    string
	CookieName   string
}

func LoadConfig() *Config {
	return &Config{
		Facebook:          loadOAuthApp("FACEBOOK"),
		Instagram:         loadOAuthApp("INSTAGRAM"),
		InstagramBusiness: loadOAuthApp("INSTAGRAM_BUSINESS"),
		LinkedIn:          loadOAuthApp("LINKEDIN"),
		Pinterest:         loadOAuthApp("PINTEREST"),
		Tiktok:            loadOAuthApp("TIKTOK"),
		Youtube:           loadOAuthApp("YOUTUBE"),
		GoogleBusiness:    loadOAuthApp("GOOGLE_BUSINESS"),
		GoogleLogin:       loadOAuthApp("GOOGLE"),
		PostgresURI:       getEnv("POSTGRES_URI", ""),
		DatabaseName:      getEnv("DATABASE_NAME", ""),
		RedisURI:          getEnv("REDIS_URI", ""),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", ""),
	}
}

func loadOAuthApp(prefix string) OAuthApp {
	return OAuthApp{
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURI:  getEnv(prefix+"_REDIRECT_URI", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
