package stubapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Md-Afzal3135/optihub.project/internal/domain"
)

type cartAddRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type cartUpdateRequestDTO struct {
	Quantity int `json:"quantity"`
}

type placeOrderRequestDTO struct {
	Address string `json:"address"`
}

func (s *Server) handleCartList(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	s.mu.Lock()
	payload := s.cartPayloadLocked(acc.user.ID)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	var req cartAddRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFieldErrors(w, map[string][]string{"detail": {"invalid JSON body"}})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		respondFieldErrors(w, map[string][]string{"quantity": {"Ensure this value is greater than or equal to 1."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, found := s.productLocked(req.ProductID)
	if !found {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}

	lines := s.carts[acc.user.ID]
	for i := range lines {
		if lines[i].productID == req.ProductID {
			lines[i].quantity += req.Quantity
			respondJSON(w, http.StatusOK, s.lineItemLocked(lines[i], product))
			return
		}
	}

	line := cartLine{id: s.nextItemID, productID: req.ProductID, quantity: req.Quantity}
	s.nextItemID++
	s.carts[acc.user.ID] = append(lines, line)
	respondJSON(w, http.StatusOK, s.lineItemLocked(line, product))
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Cart item not found"})
		return
	}

	var req cartUpdateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 1 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid quantity"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[acc.user.ID]
	for i := range lines {
		if lines[i].id == itemID {
			lines[i].quantity = req.Quantity
			product, _ := s.productLocked(lines[i].productID)
			respondJSON(w, http.StatusOK, s.lineItemLocked(lines[i], product))
			return
		}
	}
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "Cart item not found"})
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Cart item not found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[acc.user.ID]
	for i := range lines {
		if lines[i].id == itemID {
			s.carts[acc.user.ID] = append(lines[:i], lines[i+1:]...)
			respondJSON(w, http.StatusNoContent, nil)
			return
		}
	}
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "Cart item not found"})
}

func (s *Server) handleOrderList(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	s.mu.Lock()
	orders := make([]domain.Order, len(s.orders[acc.user.ID]))
	copy(orders, s.orders[acc.user.ID])
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	var req placeOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		respondFieldErrors(w, map[string][]string{"address": {"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[acc.user.ID]
	if len(lines) == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Your cart is empty"})
		return
	}

	order := domain.Order{
		ID:        s.nextOrderID,
		Status:    "pending",
		Address:   req.Address,
		CreatedAt: time.Now(),
	}
	s.nextOrderID++

	for _, line := range lines {
		product, _ := s.productLocked(line.productID)
		order.Items = append(order.Items, domain.OrderItem{
			ID:           line.id,
			ProductName:  product.Name,
			ProductPrice: product.Price,
			Quantity:     line.quantity,
		})
		order.TotalPrice += product.Price * float64(line.quantity)
	}

	delete(s.carts, acc.user.ID)
	s.orders[acc.user.ID] = append(s.orders[acc.user.ID], order)

	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders[acc.user.ID] {
		if order.ID == orderID {
			respondJSON(w, http.StatusOK, order)
			return
		}
	}
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
}

func (s *Server) productLocked(id int64) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Server) lineItemLocked(line cartLine, product domain.Product) domain.CartItem {
	return domain.CartItem{
		ID:      line.id,
		Product: product.ID,
		ProductDetail: domain.ProductDetail{
			ID:           product.ID,
			Name:         product.Name,
			Price:        product.Price,
			Image:        product.Image,
			Category:     product.Category,
			CategoryName: product.CategoryName,
		},
		Quantity: line.quantity,
		Total:    product.Price * float64(line.quantity),
	}
}

func (s *Server) cartPayloadLocked(userID int64) domain.CartPayload {
	payload := domain.CartPayload{Items: []domain.CartItem{}}
	for _, line := range s.carts[userID] {
		product, found := s.productLocked(line.productID)
		if !found {
			continue
		}
		item := s.lineItemLocked(line, product)
		payload.Items = append(payload.Items, item)
		payload.CartTotal += item.Total
	}
	return payload
}
