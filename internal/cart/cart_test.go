package cart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Md-Afzal3135/optihub.project/internal/api"
	"github.com/Md-Afzal3135/optihub.project/internal/session"
	"github.com/Md-Afzal3135/optihub.project/internal/storage"
	"github.com/Md-Afzal3135/optihub.project/internal/stubapi"
)

// testBackend wraps the stub API so tests can count cart reads, inject
// failures and hold a fetch in flight.
type testBackend struct {
	server *httptest.Server

	totalRequests atomic.Int64
	cartGets      atomic.Int64
	failCart      atomic.Bool

	mu   sync.Mutex
	gate chan struct{}
}

func (b *testBackend) holdCartFetches() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = make(chan struct{})
}

func (b *testBackend) releaseCartFetches() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gate != nil {
		close(b.gate)
		b.gate = nil
	}
}

func (b *testBackend) currentGate() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gate
}

func setupTest(t *testing.T) (*Store, *session.Store, *testBackend) {
	stub := stubapi.New()
	stub.SeedUser("Asha", "a@b.com", "asha", "pw")
	inner := stub.Handler()

	backend := &testBackend{}
	backend.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.totalRequests.Add(1)
		if r.Method == http.MethodGet && r.URL.Path == "/orders/cart/" {
			backend.cartGets.Add(1)
			if backend.failCart.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if gate := backend.currentGate(); gate != nil {
				<-gate
			}
		}
		inner.ServeHTTP(w, r)
	}))
	t.Cleanup(backend.server.Close)

	client := api.New(backend.server.URL, nil)
	sess := session.New(client, storage.NewMemoryStore())
	store := New(client, sess)
	t.Cleanup(store.Close)
	return store, sess, backend
}

func login(t *testing.T, sess *session.Store) {
	t.Helper()
	_, err := sess.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
}

func TestNoNetworkWhileLoggedOut(t *testing.T) {
	store, _, backend := setupTest(t)

	store.Fetch(context.Background())
	store.Fetch(context.Background())

	view := store.Snapshot()
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)
	assert.Zero(t, view.Count)
	assert.Zero(t, backend.totalRequests.Load(), "logged-out fetches must not hit the network")
}

func TestLoginTriggersExactlyOneFetch(t *testing.T) {
	store, sess, backend := setupTest(t)

	login(t, sess)

	assert.Equal(t, int64(1), backend.cartGets.Load())
	assert.Zero(t, store.Count())
}

func TestAddThenFetch(t *testing.T) {
	store, sess, _ := setupTest(t)
	login(t, sess)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, 1, 2))
	store.Fetch(ctx)

	view := store.Snapshot()
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(1), view.Items[0].Product)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, view.Items[0].Total, view.Total)
}

func TestDerivedValuesMatchItems(t *testing.T) {
	store, sess, _ := setupTest(t)
	login(t, sess)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, 1, 2))
	require.NoError(t, store.Add(ctx, 2, 3))

	view := store.Snapshot()
	wantCount := 0
	wantTotal := 0.0
	for _, item := range view.Items {
		wantCount += item.Quantity
		wantTotal += item.Total
	}
	assert.Equal(t, wantCount, view.Count)
	assert.Equal(t, wantTotal, view.Total)
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	store, sess, _ := setupTest(t)
	login(t, sess)

	require.NoError(t, store.Add(context.Background(), 1, 0))
	assert.Equal(t, 1, store.Count())
}

func TestAddUpsertsExistingLine(t *testing.T) {
	store, sess, _ := setupTest(t)
	login(t, sess)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, 1, 1))
	require.NoError(t, store.Add(ctx, 1, 1))

	view := store.Snapshot()
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestFetchIsIdempotent(t *testing.T) {
	store, sess, _ := setupTest(t)
	login(t, sess)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, 2, 1))

	store.Fetch(ctx)
	first := store.Snapshot()
	store.Fetch(ctx)
	second := store.Snapshot()

	assert.Equal(t, first, second)
}

func TestUpdateQuantityPassesThroughUnclamped(t *testing.T) {
	store, sess, _ := setupTest(t)
	login(t, sess)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, 1, 1))
	itemID := store.Snapshot().Items[0].ID

	require.NoError(t, store.UpdateQuantity(ctx, itemID, 5))
	assert.Equal(t, 5, store.Count())

	// The store does no clamping: an invalid quantity is the server's
	// call to reject, and the error propagates to the caller.
	err := store.UpdateQuantity(ctx, itemID, 0)
	require.Error(t, err)
	assert.Equal(t, 5, store.Count(), "state unchanged after rejected mutation")
}

func TestRemove(t *testing.T) {
	store, sess, _ := setupTest(t)
	login(t, sess)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, 1, 2))
	itemID := store.Snapshot().Items[0].ID

	require.NoError(t, store.Remove(ctx, itemID))

	view := store.Snapshot()
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)
	assert.Zero(t, view.Count)
}

func TestMutationErrorPropagates(t *testing.T) {
	store, sess, _ := setupTest(t)
	login(t, sess)

	err := store.Remove(context.Background(), 9999)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestFailedFetchResetsToEmpty(t *testing.T) {
	store, sess, backend := setupTest(t)
	login(t, sess)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, 1, 2))
	require.NotZero(t, store.Count())

	backend.failCart.Store(true)
	store.Fetch(ctx)

	view := store.Snapshot()
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)
	assert.Zero(t, view.Count)
}

func TestLogoutResetsCartWithoutNetwork(t *testing.T) {
	store, sess, backend := setupTest(t)
	login(t, sess)

	require.NoError(t, store.Add(context.Background(), 1, 2))
	cartGetsBefore := backend.cartGets.Load()

	sess.Logout()

	view := store.Snapshot()
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)
	assert.Zero(t, view.Count)
	assert.Nil(t, sess.Current())
	assert.Equal(t, cartGetsBefore, backend.cartGets.Load(), "logout reset must not refetch")
}

func TestStaleRefetchIsDiscarded(t *testing.T) {
	store, sess, backend := setupTest(t)
	login(t, sess)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, 1, 2))

	// Hold a refetch in flight, then log out. The logout reset starts
	// after the held fetch, so the held fetch's result must be dropped.
	backend.holdCartFetches()
	cartGetsBefore := backend.cartGets.Load()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Fetch(ctx)
	}()

	require.Eventually(t, func() bool {
		return backend.cartGets.Load() > cartGetsBefore
	}, time.Second, 5*time.Millisecond, "held fetch never reached the server")

	sess.Logout()
	backend.releaseCartFetches()
	wg.Wait()

	view := store.Snapshot()
	assert.Empty(t, view.Items, "stale refetch must not overwrite the logout reset")
	assert.Zero(t, view.Count)
}

func TestSubscribersSeeAppliedViews(t *testing.T) {
	store, sess, _ := setupTest(t)

	var mu sync.Mutex
	var views []View
	unsubscribe := store.Subscribe(func(v View) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	})
	defer unsubscribe()

	login(t, sess)
	require.NoError(t, store.Add(context.Background(), 1, 1))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, views)
	last := views[len(views)-1]
	assert.Equal(t, 1, last.Count)
}
