package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	// Upstream quote sources, one per asset class.
	BaseQuoteURL      string // JSON endpoint for the base-unit USD price
	CommodityQuoteURL string // metals endpoint, symbol appended
	EquityQuoteURL    string // equities endpoint, symbol appended
	QuoteAPIKey       string // sent as X-Api-Key to commodity/equity sources

	// InitialGrantSubunits is the base-unit balance granted once per user
	// (default 1 BTC = 100,000,000 subunits).
	InitialGrantSubunits int64
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	grant := viper.GetInt64("INITIAL_GRANT_SUBUNITS")
	if grant <= 0 {
		grant = 100_000_000
	}

	return &Config{
		Env:                  env,
		Port:                 port,
		SessionSecret:        viper.GetString("SESSION_SECRET"),
		DatabaseURL:          dbURL,
		RedisURL:             viper.GetString("REDIS_URL"),
		FrontendURLEndsWith:  viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:          viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:    strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:       viper.GetString("HEALTH_ADMIN_KEY"),
		BaseQuoteURL:         withDefault(viper.GetString("BASE_QUOTE_URL"), "https://api.coinbase.com/v2/prices/BTC-USD/spot"),
		CommodityQuoteURL:    withDefault(viper.GetString("COMMODITY_QUOTE_URL"), "https://api.metals.dev/v1/latest"),
		EquityQuoteURL:       withDefault(viper.GetString("EQUITY_QUOTE_URL"), "https://finnhub.io/api/v1/quote"),
		QuoteAPIKey:          viper.GetString("QUOTE_API_KEY"),
		InitialGrantSubunits: grant,
	}, nil
}

func withDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
