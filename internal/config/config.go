package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	Port             string
	DatabaseUser     string
	DatabasePassword string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseSSLMode  string
	SessionKey       []byte
	JwtSigningKey    []byte
	Env              string // either prod or dev, will disable https and few other bits
	JobsPerPage      int    // configures how many jobs are shown per page result
	SearchDebounce   time.Duration
	SiteName         string
	SupportEmail     string // displayed on the site for support queries
	NoReplyEmail     string // used for transactional emails
	EmailAPIKey      string
	AuthServiceURL   string // external auth service admin API
	AuthServiceToken string
	SentryDSN        string
}

const (
	defaultJobsPerPage      = 10
	defaultSearchDebounceMs = 500
)

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKeyString := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKeyString == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		return Config{}, fmt.Errorf("SITE_NAME cannot be empty")
	}
	supportEmail := os.Getenv("SUPPORT_EMAIL")
	if supportEmail == "" {
		return Config{}, fmt.Errorf("SUPPORT_EMAIL cannot be empty")
	}
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty")
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" {
		return Config{}, fmt.Errorf("EMAIL_API_KEY cannot be empty")
	}
	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		return Config{}, fmt.Errorf("AUTH_SERVICE_URL cannot be empty")
	}
	authServiceToken := os.Getenv("AUTH_SERVICE_TOKEN")
	if authServiceToken == "" {
		return Config{}, fmt.Errorf("AUTH_SERVICE_TOKEN cannot be empty")
	}
	jobsPerPage := defaultJobsPerPage
	if jobsPerPageStr := os.Getenv("JOBS_PER_PAGE"); jobsPerPageStr != "" {
		n, err := strconv.Atoi(jobsPerPageStr)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("JOBS_PER_PAGE must be a positive integer")
		}
		jobsPerPage = n
	}
	searchDebounceMs := defaultSearchDebounceMs
	if searchDebounceStr := os.Getenv("SEARCH_DEBOUNCE_MS"); searchDebounceStr != "" {
		n, err := strconv.Atoi(searchDebounceStr)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("SEARCH_DEBOUNCE_MS must be a non-negative integer")
		}
		searchDebounceMs = n
	}

	return Config{
		Port:             port,
		DatabaseUser:     databaseUser,
		DatabasePassword: databasePassword,
		DatabaseHost:     databaseHost,
		DatabasePort:     databasePort,
		DatabaseName:     databaseName,
		DatabaseSSLMode:  databaseSSLMode,
		SessionKey:       sessionKeyBytes,
		JwtSigningKey:    jwtSigningKeyBytes,
		Env:              env,
		JobsPerPage:      jobsPerPage,
		SearchDebounce:   time.Duration(searchDebounceMs) * time.Millisecond,
		SiteName:         siteName,
		SupportEmail:     supportEmail,
		NoReplyEmail:     noReplyEmail,
		EmailAPIKey:      emailAPIKey,
		AuthServiceURL:   authServiceURL,
		AuthServiceToken: authServiceToken,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
	}, nil
}

// DatabaseURL assembles the postgres connection string from its parts.
func (c Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}
