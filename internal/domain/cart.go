package domain

// ProductDetail is the embedded product snapshot carried by each cart line.
type ProductDetail struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Image        string  `json:"image"`
	Category     int64   `json:"category"`
	CategoryName string  `json:"category_name"`
}

// CartItem is one line of the server-side cart. Total is computed by the
// server (price * quantity); it is never recomputed client-side.
type CartItem struct {
	ID            int64         `json:"id"`
	Product       int64         `json:"product"`
	ProductDetail ProductDetail `json:"product_detail"`
	Quantity      int           `json:"quantity"`
	Total         float64       `json:"total"`
}

// CartPayload is the response of GET /orders/cart/.
type CartPayload struct {
	Items     []CartItem `json:"items"`
	CartTotal float64    `json:"cart_total"`
}
