package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Md-Afzal3135/optihub.project/internal/api"
	"github.com/Md-Afzal3135/optihub.project/internal/domain"
	"github.com/Md-Afzal3135/optihub.project/internal/storage"
)

// Store is the single source of truth for the authenticated identity.
// It is the only writer of the "credentials" and "identity" slots;
// every identity change is published to subscribers.
type Store struct {
	client *api.Client
	slots  storage.SlotStore

	mu        sync.RWMutex
	user      *domain.User
	listeners map[int]func(*domain.User)
	nextID    int
}

// New creates the store and hydrates it from durable storage: a
// synchronous, best-effort read with no network access. A stale cached
// identity is surfaced as-is; the first API call to come back 401 is
// what invalidates it.
func New(client *api.Client, slots storage.SlotStore) *Store {
	s := &Store{
		client:    client,
		slots:     slots,
		listeners: make(map[int]func(*domain.User)),
	}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	if data, err := s.slots.Get(storage.SlotCredentials); err == nil {
		var tokens domain.Tokens
		if err := json.Unmarshal(data, &tokens); err != nil {
			log.Printf("discarding unreadable credentials slot: %v", err)
		} else {
			s.client.SetCredentials(tokens)
		}
	}

	if data, err := s.slots.Get(storage.SlotIdentity); err == nil {
		var user domain.User
		if err := json.Unmarshal(data, &user); err != nil {
			log.Printf("discarding unreadable identity slot: %v", err)
		} else {
			s.user = &user
		}
	}
}

// Current returns the published identity, or nil when nobody is
// logged in.
func (s *Store) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Subscribe registers fn to run on every identity change. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func(*domain.User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) publish(user *domain.User) {
	s.mu.Lock()
	s.user = user
	fns := make([]func(*domain.User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// Login authenticates, persists the token bundle, fetches the profile
// and publishes it. A profile-fetch failure rolls the credentials back
// so no partial state survives.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.User, error) {
	tokens, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.persistTokens(tokens); err != nil {
		return nil, err
	}
	s.client.SetCredentials(tokens)

	user, err := s.client.Profile(ctx)
	if err != nil {
		s.client.ClearCredentials()
		if delErr := s.slots.Delete(storage.SlotCredentials); delErr != nil {
			log.Printf("rollback of credentials slot failed: %v", delErr)
		}
		return nil, fmt.Errorf("fetch profile after login: %w", err)
	}

	if err := s.persistUser(user); err != nil {
		return nil, err
	}
	s.publish(user)
	return user, nil
}

// Register creates an account; the endpoint returns tokens and profile
// in one response, both persisted and published together.
func (s *Store) Register(ctx context.Context, name, email, username, password string) (*domain.User, error) {
	resp, err := s.client.Register(ctx, name, email, username, password)
	if err != nil {
		return nil, err
	}

	if err := s.persistTokens(resp.Tokens); err != nil {
		return nil, err
	}
	user := resp.User
	if err := s.persistUser(&user); err != nil {
		return nil, err
	}

	s.client.SetCredentials(resp.Tokens)
	s.publish(&user)
	return &user, nil
}

// Logout clears persisted state synchronously and publishes an empty
// identity. Callers must run this before anything that reads the cart
// so no component observes a cart for a cleared identity.
func (s *Store) Logout() {
	if err := s.slots.Delete(storage.SlotCredentials); err != nil && !errors.Is(err, storage.ErrSlotNotFound) {
		log.Printf("clear credentials slot: %v", err)
	}
	if err := s.slots.Delete(storage.SlotIdentity); err != nil && !errors.Is(err, storage.ErrSlotNotFound) {
		log.Printf("clear identity slot: %v", err)
	}
	s.client.ClearCredentials()
	s.publish(nil)
}

func (s *Store) persistTokens(tokens domain.Tokens) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := s.slots.Set(storage.SlotCredentials, data); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

func (s *Store) persistUser(user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := s.slots.Set(storage.SlotIdentity, data); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	return nil
}
