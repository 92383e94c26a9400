package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Md-Afzal3135/optihub.project/internal/api"
	"github.com/Md-Afzal3135/optihub.project/internal/catalog/cache"
	"github.com/Md-Afzal3135/optihub.project/internal/domain"
	"github.com/Md-Afzal3135/optihub.project/internal/stubapi"
)

type mockCache struct {
	m       sync.RWMutex
	product *domain.Product
	err     error
}

func (m *mockCache) Get(context.Context, int64) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.product == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.product, nil
}

func (m *mockCache) Set(_ context.Context, product *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.product = product
	return m.err
}

func (m *mockCache) Delete(context.Context, int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.product = nil
	return nil
}

func setupTestCatalog(t *testing.T, productCache cache.ProductCache) (*Service, *atomic.Int64) {
	stub := stubapi.New()
	inner := stub.Handler()

	var upstream atomic.Int64
	server := httptest.NewServer(countingHandler(&upstream, inner))
	t.Cleanup(server.Close)

	return NewService(api.New(server.URL, nil), productCache), &upstream
}

func countingHandler(counter *atomic.Int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)
		next.ServeHTTP(w, r)
	})
}

func TestProducts_Search(t *testing.T) {
	svc, _ := setupTestCatalog(t, &mockCache{})

	products, err := svc.Products(context.Background(), api.ProductQuery{Search: "aviator"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Aviator Classic", products[0].Name)
}

func TestProducts_Ordering(t *testing.T) {
	svc, _ := setupTestCatalog(t, &mockCache{})

	products, err := svc.Products(context.Background(), api.ProductQuery{Ordering: "price"})
	require.NoError(t, err)
	require.NotEmpty(t, products)
	for i := 1; i < len(products); i++ {
		assert.LessOrEqual(t, products[i-1].Price, products[i].Price)
	}
}

func TestCategories(t *testing.T) {
	svc, _ := setupTestCatalog(t, &mockCache{})

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, categories)
}

func TestProduct_CacheHitSkipsNetwork(t *testing.T) {
	cached := &domain.Product{ID: 1, Name: "Cached Aviator", Price: 2499}
	svc, upstream := setupTestCatalog(t, &mockCache{product: cached})

	product, err := svc.Product(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Cached Aviator", product.Name)
	assert.Zero(t, upstream.Load())
}

func TestProduct_CacheMissHitsNetwork(t *testing.T) {
	svc, upstream := setupTestCatalog(t, &mockCache{})

	product, err := svc.Product(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Aviator Classic", product.Name)
	assert.Equal(t, int64(1), upstream.Load())
}

func TestProduct_CacheErrorFallsThrough(t *testing.T) {
	svc, upstream := setupTestCatalog(t, &mockCache{err: assert.AnError})

	product, err := svc.Product(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Round Tortoise", product.Name)
	assert.Equal(t, int64(1), upstream.Load())
}

func TestProduct_NotFound(t *testing.T) {
	svc, _ := setupTestCatalog(t, &mockCache{})

	_, err := svc.Product(context.Background(), 9999)
	require.Error(t, err)
}
