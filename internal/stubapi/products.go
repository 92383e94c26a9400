package stubapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Md-Afzal3135/optihub.project/internal/domain"
)

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	ordering := r.URL.Query().Get("ordering")

	s.mu.Lock()
	matched := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) &&
			!strings.Contains(strings.ToLower(p.CategoryName), search) {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	sortProducts(matched, ordering)
	respondJSON(w, http.StatusOK, matched)
}

func sortProducts(products []domain.Product, ordering string) {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")

	var less func(a, b domain.Product) bool
	switch field {
	case "price":
		less = func(a, b domain.Product) bool { return a.Price < b.Price }
	case "name":
		less = func(a, b domain.Product) bool { return a.Name < b.Name }
	case "created_at":
		less = func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			respondJSON(w, http.StatusOK, p)
			return
		}
	}
	respondDetail(w, http.StatusNotFound, "Not found.")
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	categories := make([]domain.Category, len(s.categories))
	copy(categories, s.categories)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, categories)
}
