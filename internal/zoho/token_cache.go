package zoho

import (
	"context"
	"sync"
	"time"

	"github.com/rishimehra/portfolio-api/pkg/logging"
	"golang.org/x/sync/singleflight"
)

// Refresher mints a fresh access credential.
type Refresher interface {
	Refresh(ctx context.Context) (*AccessCredential, error)
}

// CredentialSource hands out access credentials to the forwarder.
type CredentialSource interface {
	Get(ctx context.Context) (*AccessCredential, error)
	Invalidate(ctx context.Context)
}

// TokenMetrics receives token fetch outcomes.
type TokenMetrics interface {
	ObserveTokenFetch(source, status string)
}

// TokenStore persists access credentials between requests. Load returns
// (nil, nil) when nothing is stored under key.
type TokenStore interface {
	Load(ctx context.Context, key string) (*AccessCredential, error)
	Save(ctx context.Context, key string, cred *AccessCredential) error
	Delete(ctx context.Context, key string) error
}

// DirectSource refreshes on every Get.
type DirectSource struct {
	refresher Refresher
	metrics   TokenMetrics
}

// NewDirectSource wraps a refresher without caching.
func NewDirectSource(refresher Refresher, metrics TokenMetrics) *DirectSource {
	return &DirectSource{refresher: refresher, metrics: metrics}
}

func (s *DirectSource) Get(ctx context.Context) (*AccessCredential, error) {
	cred, err := s.refresher.Refresh(ctx)
	observeTokenFetch(s.metrics, "refresh", err)
	return cred, err
}

func (s *DirectSource) Invalidate(context.Context) {}

// MemoryTokenStore keeps credentials in process memory.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	creds map[string]AccessCredential
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{creds: make(map[string]AccessCredential)}
}

func (s *MemoryTokenStore) Load(_ context.Context, key string) (*AccessCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[key]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, key string, cred *AccessCredential) error {
	if cred == nil {
		return nil
	}
	s.mu.Lock()
	s.creds[key] = *cred
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.creds, key)
	s.mu.Unlock()
	return nil
}

// CacheOptions tunes a CredentialCache.
type CacheOptions struct {
	// Skew is how long before expiry a credential stops being handed out.
	Skew    time.Duration
	Metrics TokenMetrics
}

// CredentialCache reuses access credentials across requests for one OAuth
// client and collapses concurrent refreshes into a single round trip.
type CredentialCache struct {
	key       string
	refresher Refresher
	store     TokenStore
	skew      time.Duration
	metrics   TokenMetrics
	logger    *logging.Logger
	group     singleflight.Group
	now       func() time.Time
}

// NewCredentialCache creates a cache keyed by clientID.
func NewCredentialCache(clientID string, refresher Refresher, store TokenStore, opts CacheOptions, logger *logging.Logger) *CredentialCache {
	if logger == nil {
		logger = logging.Default()
	}
	if store == nil {
		store = NewMemoryTokenStore()
	}
	if opts.Skew < 0 {
		opts.Skew = 0
	}
	return &CredentialCache{
		key:       clientID,
		refresher: refresher,
		store:     store,
		skew:      opts.Skew,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns a credential valid for at least the configured skew.
func (c *CredentialCache) Get(ctx context.Context) (*AccessCredential, error) {
	if cred := c.cached(ctx); cred != nil {
		observeTokenFetch(c.metrics, "cache", nil)
		return cred, nil
	}

	v, err, shared := c.group.Do(c.key, func() (any, error) {
		// A flight that finished just before this one started may have stored a credential.
		if cred := c.cached(ctx); cred != nil {
			return cred, nil
		}
		cred, err := c.refresher.Refresh(context.WithoutCancel(ctx))
		observeTokenFetch(c.metrics, "refresh", err)
		if err != nil {
			return nil, err
		}
		if err := c.store.Save(ctx, c.key, cred); err != nil {
			c.logger.Warn("zoho credential store save failed", "client_id", logging.Redact(c.key), "error", err)
		}
		return cred, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("zoho credential refresh shared", "client_id", logging.Redact(c.key))
	}
	cred := *v.(*AccessCredential)
	return &cred, nil
}

// Invalidate drops the stored credential so the next Get refreshes.
func (c *CredentialCache) Invalidate(ctx context.Context) {
	if err := c.store.Delete(ctx, c.key); err != nil {
		c.logger.Warn("zoho credential store delete failed", "client_id", logging.Redact(c.key), "error", err)
		return
	}
	c.logger.Info("zoho credential invalidated", "client_id", logging.Redact(c.key))
}

func (c *CredentialCache) cached(ctx context.Context) *AccessCredential {
	cred, err := c.store.Load(ctx, c.key)
	if err != nil {
		c.logger.Warn("zoho credential store load failed", "client_id", logging.Redact(c.key), "error", err)
		return nil
	}
	if !cred.Valid(c.now(), c.skew) {
		return nil
	}
	return cred
}

func observeTokenFetch(m TokenMetrics, source string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ObserveTokenFetch(source, status)
}
