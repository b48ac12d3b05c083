package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Email providers understood by EMAIL_PROVIDER.
const (
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderStub     = "stub"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Zoho Bigin OAuth
	ZohoRefreshToken     string
	ZohoClientID         string
	ZohoClientSecret     string
	ZohoAuthDomain       string
	ZohoTokenCache       bool
	ZohoTokenRefreshSkew time.Duration

	// Failure notification email
	EmailProvider     string
	EmailHost         string
	EmailPort         int
	EmailUser         string
	EmailPass         string
	NotifyTo          string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	OutboundTimeout    time.Duration
	DefaultCountry     string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		ZohoRefreshToken:     getEnv("ZOHO_BIGIN_REFRESH_TOKEN", ""),
		ZohoClientID:         getEnv("ZOHO_BIGIN_CLIENT_ID", ""),
		ZohoClientSecret:     getEnv("ZOHO_BIGIN_CLIENT_SECRET", ""),
		ZohoAuthDomain:       strings.TrimRight(getEnv("ZOHO_AUTH_DOMAIN", "https://accounts.zoho.in"), "/"),
		ZohoTokenCache:       getEnvAsBool("ZOHO_TOKEN_CACHE", true),
		ZohoTokenRefreshSkew: getEnvAsDuration("ZOHO_TOKEN_REFRESH_SKEW", time.Minute),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", EmailProviderSMTP))),
		EmailHost:         getEnv("EMAIL_HOST", ""),
		EmailPort:         getEnvAsInt("EMAIL_PORT", 587),
		EmailUser:         getEnv("EMAIL_USER", ""),
		EmailPass:         getEnv("EMAIL_PASS", ""),
		NotifyTo:          getEnv("NOTIFY_TO", "contact@rishimehra.in"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Portfolio Contact Form"),

		AWSRegion:           getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 5),
		OutboundTimeout:    getEnvAsDuration("OUTBOUND_TIMEOUT", 15*time.Second),
		DefaultCountry:     strings.ToUpper(getEnv("DEFAULT_COUNTRY", "IN")),
	}
}

// Validate performs the startup presence checks. All problems are reported
// together so a misconfigured deploy fails once with the full list.
func (c *Config) Validate() error {
	var errs []error
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("config: %s is required", name))
		}
	}

	require(c.ZohoRefreshToken, "ZOHO_BIGIN_REFRESH_TOKEN")
	require(c.ZohoClientID, "ZOHO_BIGIN_CLIENT_ID")
	require(c.ZohoClientSecret, "ZOHO_BIGIN_CLIENT_SECRET")
	require(c.ZohoAuthDomain, "ZOHO_AUTH_DOMAIN")
	require(c.NotifyTo, "NOTIFY_TO")

	switch c.EmailProvider {
	case EmailProviderSMTP:
		require(c.EmailHost, "EMAIL_HOST")
		require(c.EmailUser, "EMAIL_USER")
		require(c.EmailPass, "EMAIL_PASS")
		if c.EmailPort <= 0 || c.EmailPort > 65535 {
			errs = append(errs, fmt.Errorf("config: EMAIL_PORT %d out of range", c.EmailPort))
		}
	case EmailProviderSendGrid:
		require(c.SendGridAPIKey, "SENDGRID_API_KEY")
		require(c.SendGridFromEmail, "SENDGRID_FROM_EMAIL")
	case EmailProviderSES:
		require(c.EmailUser, "EMAIL_USER")
		require(c.AWSRegion, "AWS_REGION")
	case EmailProviderStub:
	default:
		errs = append(errs, fmt.Errorf("config: unknown EMAIL_PROVIDER %q", c.EmailProvider))
	}

	if c.OutboundTimeout <= 0 {
		errs = append(errs, errors.New("config: OUTBOUND_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
