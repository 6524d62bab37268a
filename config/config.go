package config

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string
	Env       string
	StoreName string

	JWTSecret    string
	AuthProvider string // "local" or "gotrue"
	GoTrueURL    string
	GoTrueAnon   string
	// OAuthRedirectURL is where the identity provider sends the browser
	// after an OAuth sign-in.
	OAuthRedirectURL string

	RedisURL    string
	DatabaseURL string

	ScrapeAPIURL    string
	ScrapeAPIKey    string
	MockSearchDelay time.Duration
	SearchCacheTTL  time.Duration
	ScrapeKeyTTL    time.Duration
	INRPerUSD       float64

	WorkspaceTTL   time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	SNSTopicARN    string
	UseAWSSecrets  bool
}

// SecretGetter reads a named secret, e.g. from AWS Secrets Manager.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

var defaults = map[string]any{
	"PORT":                     "8090",
	"APP_ENV":                  "development",
	"STORE_NAME":               "BuildPrice",
	"AUTH_PROVIDER":            "local",
	"SCRAPE_API_URL":           "https://api.firecrawl.dev",
	"ONLINE_SEARCH_MOCK_DELAY": "1s",
	"SEARCH_CACHE_TTL":         "15m",
	"SCRAPE_KEY_TTL":           "720h",
	"INR_PER_USD":              83.0,
	"WORKSPACE_TTL":            "2h",
	"RATE_LIMIT_RPS":           20.0,
	"RATE_LIMIT_BURST":         40,
	"ALLOWED_ORIGINS":          "http://localhost:3000,http://localhost:5173",
	"AWS_USE_SECRETS":          false,
}

// Load reads .env (if present) and the process environment. Callers apply
// secrets and then call Validate.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port:            v.GetString("PORT"),
		Env:             v.GetString("APP_ENV"),
		StoreName:       v.GetString("STORE_NAME"),
		JWTSecret:       strings.TrimSpace(v.GetString("JWT_SECRET")),
		AuthProvider:    strings.ToLower(v.GetString("AUTH_PROVIDER")),
		GoTrueURL:       strings.TrimSuffix(v.GetString("GOTRUE_URL"), "/"),
		GoTrueAnon:      v.GetString("GOTRUE_ANON_KEY"),
		RedisURL:        v.GetString("REDIS_URL"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		ScrapeAPIURL:    strings.TrimSuffix(v.GetString("SCRAPE_API_URL"), "/"),
		ScrapeAPIKey:    strings.TrimSpace(v.GetString("SCRAPE_API_KEY")),
		MockSearchDelay: v.GetDuration("ONLINE_SEARCH_MOCK_DELAY"),
		SearchCacheTTL:  v.GetDuration("SEARCH_CACHE_TTL"),
		ScrapeKeyTTL:    v.GetDuration("SCRAPE_KEY_TTL"),
		INRPerUSD:       v.GetFloat64("INR_PER_USD"),
		WorkspaceTTL:    v.GetDuration("WORKSPACE_TTL"),
		RateLimitRPS:    v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:  v.GetInt("RATE_LIMIT_BURST"),
		AllowedOrigins:  splitOrigins(v.GetString("ALLOWED_ORIGINS")),
		SNSTopicARN:     v.GetString("NOTIFY_SNS_TOPIC_ARN"),
		UseAWSSecrets:   v.GetBool("AWS_USE_SECRETS"),
	}
	cfg.OAuthRedirectURL = v.GetString("OAUTH_REDIRECT_URL")
	return cfg
}

// ApplySecrets overrides the JWT secret and scrape token with values from
// the secret store. Lookup failures keep the environment values.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretGetter) {
	if jwt, err := sm.GetSecret(ctx, "storefront/JWT_SECRET"); err == nil && jwt != "" {
		c.JWTSecret = jwt
	}
	if key, err := sm.GetSecret(ctx, "storefront/SCRAPE_API_KEY"); err == nil && key != "" {
		c.ScrapeAPIKey = key
	}
}

// Validate checks the combinations that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.AuthProvider {
	case "local":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for the local auth provider")
		}
	case "gotrue":
		if c.GoTrueURL == "" {
			return fmt.Errorf("GOTRUE_URL is required for the gotrue auth provider")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	if c.INRPerUSD <= 0 {
		return fmt.Errorf("INR_PER_USD must be positive")
	}
	if c.MockSearchDelay < 0 {
		c.MockSearchDelay = 0
	}
	return nil
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(o), "/"))
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
