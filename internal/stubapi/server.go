package stubapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Md-Afzal3135/optihub.project/internal/domain"
)

// Server is an in-memory implementation of the OptiHub REST API for
// local development and integration tests. It mirrors the backend's
// observable behavior: cart add is an upsert that increments quantity,
// line totals and cart_total are computed server-side, and placing an
// order snapshots the cart and clears it.
type Server struct {
	mu         sync.Mutex
	accounts   map[string]*account // keyed by email
	sessions   map[string]*account // keyed by access token
	products   []domain.Product
	categories []domain.Category
	carts      map[int64][]cartLine // keyed by user id
	orders     map[int64][]domain.Order

	nextUserID  int64
	nextItemID  int64
	nextOrderID int64
}

type account struct {
	user     domain.User
	password string
}

type cartLine struct {
	id        int64
	productID int64
	quantity  int
}

func New() *Server {
	s := &Server{
		accounts:    make(map[string]*account),
		sessions:    make(map[string]*account),
		carts:       make(map[int64][]cartLine),
		orders:      make(map[int64][]domain.Order),
		nextUserID:  1,
		nextItemID:  1,
		nextOrderID: 1,
	}
	s.seedCatalog()
	return s
}

// SeedUser creates an account directly, bypassing the register
// endpoint. Meant for tests.
func (s *Server) SeedUser(name, email, username, password string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccountLocked(name, email, username, password)
}

func (s *Server) createAccountLocked(name, email, username, password string) domain.User {
	user := domain.User{
		ID:       s.nextUserID,
		Name:     name,
		Email:    email,
		Username: username,
	}
	s.nextUserID++
	s.accounts[email] = &account{user: user, password: password}
	return user
}

// Handler returns the chi router serving the full API surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/users", func(r chi.Router) {
		r.Post("/login/", s.handleLogin)
		r.Post("/register/", s.handleRegister)
		r.Get("/profile/", s.handleProfile)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleProducts)
		r.Get("/categories/", s.handleCategories)
		r.Get("/{id}/", s.handleProduct)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/cart/", s.handleCartList)
		r.Post("/cart/add/", s.handleCartAdd)
		r.Put("/cart/{id}/", s.handleCartUpdate)
		r.Delete("/cart/{id}/", s.handleCartRemove)
		r.Get("/", s.handleOrderList)
		r.Post("/", s.handlePlaceOrder)
		r.Get("/{id}/", s.handleOrderDetail)
	})

	return r
}

func (s *Server) authenticate(r *http.Request) (*account, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.sessions[token]
	return acc, ok
}

func (s *Server) issueTokens(acc *account) domain.Tokens {
	tokens := domain.Tokens{
		Access:  uuid.NewString(),
		Refresh: uuid.NewString(),
	}
	s.mu.Lock()
	s.sessions[tokens.Access] = acc
	s.mu.Unlock()
	return tokens
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func respondFieldErrors(w http.ResponseWriter, fields map[string][]string) {
	respondJSON(w, http.StatusBadRequest, fields)
}

func (s *Server) seedCatalog() {
	s.categories = []domain.Category{
		{ID: 1, Name: "Eyeglasses"},
		{ID: 2, Name: "Sunglasses"},
		{ID: 3, Name: "Contact Lenses"},
	}

	now := time.Now()
	seed := []struct {
		name, description string
		price             float64
		category          int64
	}{
		{"Aviator Classic", "Timeless teardrop metal frame", 2499, 2},
		{"Round Tortoise", "Acetate round frame in tortoise shell", 1799, 1},
		{"Wayfarer Bold", "Thick rim square sunglasses", 2199, 2},
		{"Slim Titanium", "Featherweight titanium rectangle frame", 3299, 1},
		{"Daily Comfort 30", "30-pack daily disposable lenses", 999, 3},
		{"Cat Eye Noir", "Matte black cat eye frame", 1999, 1},
	}
	for i, p := range seed {
		s.products = append(s.products, domain.Product{
			ID:           int64(i + 1),
			Name:         p.name,
			Description:  p.description,
			Price:        p.price,
			Image:        "",
			Category:     p.category,
			CategoryName: s.categoryName(p.category),
			CreatedAt:    now.Add(time.Duration(i) * time.Minute),
		})
	}
}

func (s *Server) categoryName(id int64) string {
	for _, c := range s.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
