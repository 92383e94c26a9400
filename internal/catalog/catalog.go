package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/Md-Afzal3135/optihub.project/internal/api"
	"github.com/Md-Afzal3135/optihub.project/internal/catalog/cache"
	"github.com/Md-Afzal3135/optihub.project/internal/domain"
)

// Service is the read side of the product catalog. Detail lookups go
// through a cache; singleflight collapses concurrent misses for the
// same product into one API call.
type Service struct {
	client *api.Client
	cache  cache.ProductCache
	sfg    singleflight.Group
}

func NewService(client *api.Client, productCache cache.ProductCache) *Service {
	return &Service{
		client: client,
		cache:  productCache,
	}
}

// Products lists products, optionally narrowed by search text and
// ordering. Listings are not cached; the API owns search and sort.
func (s *Service) Products(ctx context.Context, query api.ProductQuery) ([]domain.Product, error) {
	return s.client.Products(ctx, query)
}

// Categories lists product categories.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.client.Categories(ctx)
}

// Product returns one product, from cache when possible.
func (s *Service) Product(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(fmt.Sprintf("%d", id), func() (interface{}, error) {

		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("product cache get error: %v \n", err) // log cache error but continue
		}

		product, errGet := s.client.Product(ctx, id)
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), product)
			if errSet != nil {
				log.Printf("product cache set error: %v \n", errSet)
			}
		}()

		return product, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}
