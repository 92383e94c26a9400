package cache

import (
	"context"
	"errors"

	"github.com/Md-Afzal3135/optihub.project/internal/domain"
)

type ProductCache interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
}

var ErrCacheMiss = errors.New("cache miss")
