package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/Md-Afzal3135/optihub.project/internal/domain"
)

const (
	authorizationHeader = "Authorization"
	requestIDHeader     = "X-Request-ID"
)

// Client talks to the OptiHub REST API. Credentials, once set, are
// attached to every request; all round-trips go through a circuit
// breaker so a dead backend fails fast instead of piling up requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]

	mu     sync.RWMutex
	access string
}

// New creates a Client for the given base URL. If httpClient is nil,
// a client with a 30s timeout is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "optihub-api",
		MaxRequests: 3,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker:    breaker,
	}
}

// SetCredentials installs the token bundle used for the Authorization
// header on subsequent requests.
func (c *Client) SetCredentials(t domain.Tokens) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = t.Access
}

// ClearCredentials removes any installed token bundle.
func (c *Client) ClearCredentials() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = ""
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set(authorizationHeader, "Bearer "+token)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// decodeError maps the API's failure responses onto the client error
// taxonomy: 401 is an AuthError, 400 carries field-level validation
// messages, everything else is an opaque APIError.
func decodeError(status int, data []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		var payload struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.Unmarshal(data, &payload)
		msg := payload.Detail
		if msg == "" {
			msg = payload.Error
		}
		if msg == "" {
			msg = "invalid credentials"
		}
		return &AuthError{Message: msg}
	case http.StatusBadRequest:
		fields := map[string][]string{}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err == nil {
			for field, value := range raw {
				var many []string
				if json.Unmarshal(value, &many) == nil {
					fields[field] = many
					continue
				}
				var one string
				if json.Unmarshal(value, &one) == nil {
					fields[field] = []string{one}
				}
			}
		}
		if len(fields) == 0 {
			fields["detail"] = []string{"bad request"}
		}
		return &ValidationError{Fields: fields}
	default:
		return &APIError{Status: status, Body: strings.TrimSpace(string(data))}
	}
}

// Login exchanges credentials for a token bundle. It does not install
// the bundle; that is the session store's call.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Tokens, error) {
	var tokens domain.Tokens
	err := c.do(ctx, http.MethodPost, "/users/login/", map[string]string{
		"email":    email,
		"password": password,
	}, &tokens)
	return tokens, err
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/users/profile/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterResponse is the combined payload of POST /users/register/.
type RegisterResponse struct {
	Tokens domain.Tokens `json:"tokens"`
	User   domain.User   `json:"user"`
}

// Register creates an account and returns tokens plus profile in one
// round-trip.
func (c *Client) Register(ctx context.Context, name, email, username, password string) (*RegisterResponse, error) {
	var resp RegisterResponse
	err := c.do(ctx, http.MethodPost, "/users/register/", map[string]string{
		"name":     name,
		"email":    email,
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cart fetches the full server-side cart for the current identity.
func (c *Client) Cart(ctx context.Context) (*domain.CartPayload, error) {
	var payload domain.CartPayload
	if err := c.do(ctx, http.MethodGet, "/orders/cart/", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// AddCartItem adds quantity of a product to the cart. The server
// upserts: an existing line has its quantity incremented.
func (c *Client) AddCartItem(ctx context.Context, productID int64, quantity int) error {
	return c.do(ctx, http.MethodPost, "/orders/cart/add/", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	}, nil)
}

// UpdateCartItem sets the quantity of an existing cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/cart/%d/", itemID), map[string]any{
		"quantity": quantity,
	}, nil)
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/orders/cart/%d/", itemID), nil, nil)
}

// ProductQuery narrows a product listing.
type ProductQuery struct {
	Search   string
	Ordering string
}

// Products lists products, optionally filtered and ordered.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Ordering != "" {
		values.Set("ordering", q.Ordering)
	}
	path := "/products/"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d/", id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Categories lists product categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.do(ctx, http.MethodGet, "/products/categories/", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// PlaceOrder turns the current cart into an order. The server clears
// the cart as part of placement.
func (c *Client) PlaceOrder(ctx context.Context, address string) (*domain.Order, error) {
	var order domain.Order
	err := c.do(ctx, http.MethodPost, "/orders/", map[string]string{
		"address": address,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders lists the authenticated user's orders.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d/", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
