package cart

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Md-Afzal3135/optihub.project/internal/api"
	"github.com/Md-Afzal3135/optihub.project/internal/domain"
	"github.com/Md-Afzal3135/optihub.project/internal/session"
)

// View is one consistent snapshot of the cart. Total comes from the
// server payload; Count is derived from the items. Both are recomputed
// from scratch on every apply so they cannot drift from the items.
type View struct {
	Items []domain.CartItem
	Total float64
	Count int
}

// Store holds the authoritative local view of the shopping cart. Every
// write is refetch-confirmed: mutate on the server, then re-derive the
// whole cart from GET /orders/cart/. There is no optimistic merge.
//
// Overlapping fetches are resolved by a monotonic sequence number: a
// result is applied only if no newer fetch (or identity change) has
// started since, so a slow refetch can never overwrite newer state.
type Store struct {
	client  *api.Client
	session *session.Store

	seq atomic.Uint64

	mu          sync.RWMutex
	items       []domain.CartItem
	total       float64
	count       int
	listeners   map[int]func(View)
	nextID      int
	unsubscribe func()
}

// New creates the store, subscribes it to identity changes and derives
// the initial state from the current identity (no network call when
// nobody is logged in).
func New(client *api.Client, sess *session.Store) *Store {
	c := &Store{
		client:    client,
		session:   sess,
		listeners: make(map[int]func(View)),
	}
	c.unsubscribe = sess.Subscribe(func(*domain.User) {
		c.Fetch(context.Background())
	})
	c.Fetch(context.Background())
	return c
}

// Close detaches the store from the session store.
func (c *Store) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Fetch re-derives the cart from the server. Without an identity it
// resets to empty with no network call. Any fetch failure also resets
// to empty: a missing cart beats a cart that might belong to someone
// else.
func (c *Store) Fetch(ctx context.Context) {
	seq := c.seq.Add(1)

	if c.session.Current() == nil {
		c.apply(seq, nil, 0)
		return
	}

	payload, err := c.client.Cart(ctx)
	if err != nil {
		log.Printf("cart fetch failed, resetting to empty: %v", err)
		c.apply(seq, nil, 0)
		return
	}
	c.apply(seq, payload.Items, payload.CartTotal)
}

func (c *Store) apply(seq uint64, items []domain.CartItem, total float64) {
	c.mu.Lock()
	if c.seq.Load() != seq {
		// A newer fetch or identity change started while this one was
		// in flight; its result wins.
		c.mu.Unlock()
		return
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	c.items = items
	c.total = total
	c.count = count

	view := c.viewLocked()
	fns := make([]func(View), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(view)
	}
}

// Add puts quantity of a product in the cart, then refetches. A zero
// quantity falls back to 1, matching the server's default.
func (c *Store) Add(ctx context.Context, productID int64, quantity int) error {
	if quantity == 0 {
		quantity = 1
	}
	if err := c.client.AddCartItem(ctx, productID, quantity); err != nil {
		return err
	}
	c.Fetch(ctx)
	return nil
}

// UpdateQuantity sets a line's quantity, then refetches. Callers clamp
// to >= 1 before calling; the store performs no clamping of its own.
func (c *Store) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if err := c.client.UpdateCartItem(ctx, itemID, quantity); err != nil {
		return err
	}
	c.Fetch(ctx)
	return nil
}

// Remove deletes a line, then refetches.
func (c *Store) Remove(ctx context.Context, itemID int64) error {
	if err := c.client.RemoveCartItem(ctx, itemID); err != nil {
		return err
	}
	c.Fetch(ctx)
	return nil
}

// Snapshot returns the current consistent view.
func (c *Store) Snapshot() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewLocked()
}

// Count is the sum of line quantities.
func (c *Store) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Total is the server-computed cart total.
func (c *Store) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Subscribe registers fn to run on every applied cart change. The
// returned func removes the subscription.
func (c *Store) Subscribe(fn func(View)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Store) viewLocked() View {
	items := make([]domain.CartItem, len(c.items))
	copy(items, c.items)
	return View{Items: items, Total: c.total, Count: c.count}
}
