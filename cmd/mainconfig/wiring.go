package mainconfig

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rishimehra/portfolio-api/internal/api/router"
	appconfig "github.com/rishimehra/portfolio-api/internal/config"
	httpmiddleware "github.com/rishimehra/portfolio-api/internal/http/middleware"
	"github.com/rishimehra/portfolio-api/internal/leads"
	"github.com/rishimehra/portfolio-api/internal/notify"
	"github.com/rishimehra/portfolio-api/internal/observability/metrics"
	"github.com/rishimehra/portfolio-api/internal/zoho"
	"github.com/rishimehra/portfolio-api/pkg/logging"
)

// ZohoOAuth projects the flat config onto the refresher's settings.
func ZohoOAuth(cfg *appconfig.Config) zoho.OAuthConfig {
	return zoho.OAuthConfig{
		RefreshToken: cfg.ZohoRefreshToken,
		ClientID:     cfg.ZohoClientID,
		ClientSecret: cfg.ZohoClientSecret,
		AuthDomain:   cfg.ZohoAuthDomain,
	}
}

// SMTP projects the flat config onto the relay settings.
func SMTP(cfg *appconfig.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
	}
}

// NewRedisClient returns nil when REDIS_ADDR is empty.
func NewRedisClient(cfg *appconfig.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// NewCredentialSource picks between the shared credential cache and a
// refresh on every forward (ZOHO_TOKEN_CACHE=false).
func NewCredentialSource(cfg *appconfig.Config, client *http.Client, rdb *redis.Client, m *metrics.LeadMetrics, logger *logging.Logger) zoho.CredentialSource {
	refresher := zoho.NewTokenRefresher(ZohoOAuth(cfg), client, logger)
	if !cfg.ZohoTokenCache {
		logger.Info("zoho credential cache disabled")
		return zoho.NewDirectSource(refresher, m)
	}

	var store zoho.TokenStore = zoho.NewMemoryTokenStore()
	if rdb != nil {
		store = zoho.NewRedisTokenStore(rdb)
		logger.Info("zoho credential cache backed by redis", "addr", cfg.RedisAddr)
	}
	return zoho.NewCredentialCache(cfg.ZohoClientID, refresher, store, zoho.CacheOptions{
		Skew:    cfg.ZohoTokenRefreshSkew,
		Metrics: m,
	}, logger)
}

// NewEmailSender builds the relay named by EMAIL_PROVIDER.
func NewEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	switch cfg.EmailProvider {
	case appconfig.EmailProviderSMTP:
		if s := notify.NewSMTPSender(SMTP(cfg), logger); s != nil {
			return s, nil
		}
		return nil, fmt.Errorf("mainconfig: smtp provider needs EMAIL_HOST")
	case appconfig.EmailProviderSendGrid:
		s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if s == nil {
			return nil, fmt.Errorf("mainconfig: sendgrid provider needs SENDGRID_API_KEY")
		}
		return s, nil
	case appconfig.EmailProviderSES:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("mainconfig: load aws config: %w", err)
		}
		return notify.NewSESSender(NewSESClient(awsCfg, cfg), notify.SESConfig{FromEmail: cfg.EmailUser}, logger), nil
	case appconfig.EmailProviderStub:
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("mainconfig: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// SetupMetrics returns the /metrics handler and the pipeline metrics
// registered on a dedicated registry.
func SetupMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewLeadMetrics(reg)
}

// App is the assembled HTTP application.
type App struct {
	Handler http.Handler
	redis   *redis.Client
}

// Close releases the Redis connection pool, if any.
func (a *App) Close() error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}

// BuildApp wires config into the router shared by the server and Lambda.
func BuildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*App, error) {
	metricsHandler, leadMetrics := SetupMetrics()

	sender, err := NewEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rdb := NewRedisClient(cfg)
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable; credential lookups will refresh until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
	}

	outbound := &http.Client{Timeout: cfg.OutboundTimeout}
	credentials := NewCredentialSource(cfg, outbound, rdb, leadMetrics, logger)
	forwarder := leads.NewForwarder(credentials, zoho.NewBiginClient(outbound, logger), leadMetrics, logger)
	notifier := notify.NewFailureNotifier(sender, cfg.NotifyTo, leadMetrics, logger)

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(forwarder, leads.NewValidator(), leadMetrics, logger),
		NotifyHandler:      notify.NewHandler(notifier, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})
	return &App{Handler: handler, redis: rdb}, nil
}
