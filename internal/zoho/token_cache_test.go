package zoho

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	expires time.Duration
}

func (f *fakeRefresher) Refresh(context.Context) (*AccessCredential, error) {
	n := f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	expires := f.expires
	if expires == 0 {
		expires = time.Hour
	}
	return &AccessCredential{
		AccessToken: "token-" + string(rune('0'+n)),
		APIDomain:   "https://www.zohoapis.in",
		ExpiresAt:   time.Now().Add(expires),
	}, nil
}

type recordingMetrics struct {
	mu     sync.Mutex
	events []string
}

func (m *recordingMetrics) ObserveTokenFetch(source, status string) {
	m.mu.Lock()
	m.events = append(m.events, source+":"+status)
	m.mu.Unlock()
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (*AccessCredential, error) {
	return nil, errors.New("store down")
}
func (failingStore) Save(context.Context, string, *AccessCredential) error {
	return errors.New("store down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("store down") }

func TestCredentialCache_ReusesValidCredential(t *testing.T) {
	ref := &fakeRefresher{}
	metrics := &recordingMetrics{}
	cache := NewCredentialCache("client", ref, nil, CacheOptions{Skew: time.Minute, Metrics: metrics}, nil)

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	second, err := cache.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), ref.calls.Load())
	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, []string{"refresh:success", "cache:success"}, metrics.events)
}

func TestCredentialCache_RefreshesWithinSkew(t *testing.T) {
	ref := &fakeRefresher{expires: 30 * time.Second}
	cache := NewCredentialCache("client", ref, nil, CacheOptions{Skew: time.Minute}, nil)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), ref.calls.Load())
}

func TestCredentialCache_ExpiryUsesClock(t *testing.T) {
	ref := &fakeRefresher{}
	cache := NewCredentialCache("client", ref, nil, CacheOptions{}, nil)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = cache.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), ref.calls.Load())
}

func TestCredentialCache_SingleFlight(t *testing.T) {
	ref := &fakeRefresher{release: make(chan struct{})}
	cache := NewCredentialCache("client", ref, nil, CacheOptions{}, nil)

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cred, err := cache.Get(context.Background())
			errs[i] = err
			if cred != nil {
				tokens[i] = cred.AccessToken
			}
		}(i)
	}

	require.Eventually(t, func() bool { return ref.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Let the waiting callers pile up on the in-flight refresh.
	time.Sleep(20 * time.Millisecond)
	close(ref.release)
	wg.Wait()

	assert.Equal(t, int32(1), ref.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0], tokens[i])
	}
}

func TestCredentialCache_RefreshErrorNotCached(t *testing.T) {
	refreshErr := &TokenRefreshError{Err: ErrIncompleteTokenResponse}
	ref := &fakeRefresher{err: refreshErr}
	metrics := &recordingMetrics{}
	cache := NewCredentialCache("client", ref, nil, CacheOptions{Metrics: metrics}, nil)

	_, err := cache.Get(context.Background())
	var terr *TokenRefreshError
	require.ErrorAs(t, err, &terr)

	_, err = cache.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), ref.calls.Load())
	assert.Equal(t, []string{"refresh:error", "refresh:error"}, metrics.events)
}

func TestCredentialCache_Invalidate(t *testing.T) {
	ref := &fakeRefresher{}
	cache := NewCredentialCache("client", ref, nil, CacheOptions{}, nil)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	cache.Invalidate(context.Background())
	_, err = cache.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), ref.calls.Load())
}

func TestCredentialCache_StoreFailureFallsBackToRefresh(t *testing.T) {
	ref := &fakeRefresher{}
	cache := NewCredentialCache("client", ref, failingStore{}, CacheOptions{}, nil)

	cred, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cred.AccessToken)
	cache.Invalidate(context.Background())
}

func TestDirectSource_AlwaysRefreshes(t *testing.T) {
	ref := &fakeRefresher{}
	metrics := &recordingMetrics{}
	src := NewDirectSource(ref, metrics)

	for i := 0; i < 3; i++ {
		_, err := src.Get(context.Background())
		require.NoError(t, err)
	}
	src.Invalidate(context.Background())

	assert.Equal(t, int32(3), ref.calls.Load())
	assert.Len(t, metrics.events, 3)
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	cred, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, cred)

	require.NoError(t, store.Save(ctx, "k", &AccessCredential{AccessToken: "a"}))
	cred, err = store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", cred.AccessToken)

	cred.AccessToken = "mutated"
	again, _ := store.Load(ctx, "k")
	assert.Equal(t, "a", again.AccessToken)

	require.NoError(t, store.Delete(ctx, "k"))
	cred, _ = store.Load(ctx, "k")
	assert.Nil(t, cred)
}
