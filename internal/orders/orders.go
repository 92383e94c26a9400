package orders

import (
	"context"
	"errors"

	"github.com/Md-Afzal3135/optihub.project/internal/api"
	"github.com/Md-Afzal3135/optihub.project/internal/cart"
	"github.com/Md-Afzal3135/optihub.project/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// Service places orders and reads order history.
type Service struct {
	client *api.Client
	cart   *cart.Store
}

func NewService(client *api.Client, cartStore *cart.Store) *Service {
	return &Service{
		client: client,
		cart:   cartStore,
	}
}

// Place turns the current cart into an order. The server empties the
// cart on placement, so the local cart store is refetched afterwards
// to converge on the (now empty) server state. An empty local cart
// fails fast without a round-trip.
func (s *Service) Place(ctx context.Context, address string) (*domain.Order, error) {
	if s.cart.Count() == 0 {
		return nil, ErrEmptyCart
	}

	order, err := s.client.PlaceOrder(ctx, address)
	if err != nil {
		return nil, err
	}

	s.cart.Fetch(ctx)
	return order, nil
}

// List returns the authenticated user's orders.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.client.Orders(ctx)
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.client.Order(ctx, id)
}
