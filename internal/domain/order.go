package domain

import "time"

type OrderItem struct {
	ID           int64   `json:"id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	Quantity     int     `json:"quantity"`
}

type Order struct {
	ID         int64       `json:"id"`
	TotalPrice float64     `json:"total_price"`
	Status     string      `json:"status"`
	Address    string      `json:"address"`
	Items      []OrderItem `json:"items"`
	CreatedAt  time.Time   `json:"created_at"`
}
