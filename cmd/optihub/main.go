package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Md-Afzal3135/optihub.project/internal/api"
	"github.com/Md-Afzal3135/optihub.project/internal/cart"
	"github.com/Md-Afzal3135/optihub.project/internal/catalog"
	"github.com/Md-Afzal3135/optihub.project/internal/catalog/cache"
	"github.com/Md-Afzal3135/optihub.project/internal/orders"
	"github.com/Md-Afzal3135/optihub.project/internal/session"
	"github.com/Md-Afzal3135/optihub.project/internal/storage"
)

type Config struct {
	BaseURL        string
	StateDir       string
	MigrationsPath string
	RedisAddr      string
	RequestTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		BaseURL:        getEnv("API_BASE_URL", "http://localhost:8000"),
		StateDir:       getEnv("OPTIHUB_STATE_DIR", defaultStateDir()),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "internal/storage/migrations"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RequestTimeout: 30 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".optihub"
	}
	return filepath.Join(home, ".optihub")
}

const usage = `usage: optihub <command> [flags]

commands:
  products    list products (-search, -ordering)
  product     show one product: product <id>
  categories  list categories
  register    create an account (-name -email -username -password -confirm)
  login       sign in (-email -password)
  logout      sign out and clear local state
  cart        show the cart
  add         add a product: add <product-id> [-qty N]
  update      set a line quantity: update <item-id> -qty N
  remove      remove a line: remove <item-id>
  checkout    place an order (-address)
  orders      list your orders
  order       show one order: order <id>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	slots, err := openSlots(cfg)
	if err != nil {
		log.Fatalf("open local state: %v", err)
	}
	defer slots.Close()

	client := api.New(cfg.BaseURL, nil)
	sess := session.New(client, slots)
	cartStore := cart.New(client, sess)
	defer cartStore.Close()

	catalogSvc := catalog.NewService(client, newProductCache(cfg))
	ordersSvc := orders.NewService(client, cartStore)

	app := &app{
		session: sess,
		cart:    cartStore,
		catalog: catalogSvc,
		orders:  ordersSvc,
	}

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func openSlots(cfg *Config) (storage.SlotStore, error) {
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	store, err := storage.NewSQLiteStore(filepath.Join(cfg.StateDir, "state.db"))
	if err != nil {
		return nil, err
	}
	if err := store.RunMigrations(cfg.MigrationsPath); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func newProductCache(cfg *Config) cache.ProductCache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(0)
	}
	return cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
}

type app struct {
	session *session.Store
	cart    *cart.Store
	catalog *catalog.Service
	orders  *orders.Service
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "products":
		return a.cmdProducts(ctx, args)
	case "product":
		return a.cmdProduct(ctx, args)
	case "categories":
		return a.cmdCategories(ctx)
	case "register":
		return a.cmdRegister(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		a.session.Logout()
		fmt.Println("logged out")
		return nil
	case "cart":
		return a.cmdCart(ctx)
	case "add":
		return a.cmdAdd(ctx, args)
	case "update":
		return a.cmdUpdate(ctx, args)
	case "remove":
		return a.cmdRemove(ctx, args)
	case "checkout":
		return a.cmdCheckout(ctx, args)
	case "orders":
		return a.cmdOrders(ctx)
	case "order":
		return a.cmdOrder(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	search := fs.String("search", "", "search text")
	ordering := fs.String("ordering", "-created_at", "sort field, prefix - for descending")
	fs.Parse(args)

	products, err := a.catalog.Products(ctx, api.ProductQuery{Search: *search, Ordering: *ordering})
	if err != nil {
		return err
	}
	for _, p := range products {
		fmt.Printf("%4d  %-24s ₹%-10.2f %s\n", p.ID, p.Name, p.Price, p.CategoryName)
	}
	fmt.Printf("%d products found\n", len(products))
	return nil
}

func (a *app) cmdProduct(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	p, err := a.catalog.Product(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s (₹%.2f)\n%s\ncategory: %s\n", p.Name, p.Price, p.Description, p.CategoryName)
	return nil
}

func (a *app) cmdCategories(ctx context.Context) error {
	categories, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Printf("%4d  %s\n", c.ID, c.Name)
	}
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	fs.Parse(args)

	// Checked here, before any network call.
	if *password != *confirm {
		return fmt.Errorf("passwords do not match")
	}

	user, err := a.session.Register(ctx, *name, *email, *username, *password)
	if err != nil {
		return err
	}
	fmt.Printf("welcome, %s\n", user.Name)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", user.Email)
	return nil
}

func (a *app) cmdCart(ctx context.Context) error {
	a.cart.Fetch(ctx)
	view := a.cart.Snapshot()
	if len(view.Items) == 0 {
		fmt.Println("your cart is empty")
		return nil
	}
	for _, item := range view.Items {
		fmt.Printf("%4d  %-24s x%-3d ₹%.2f\n", item.ID, item.ProductDetail.Name, item.Quantity, item.Total)
	}
	fmt.Printf("total: ₹%.2f (%d items)\n", view.Total, view.Count)
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: add <product-id> [-qty N]")
	}
	productID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	qty := fs.Int("qty", 1, "quantity")
	fs.Parse(args[1:])

	if err := a.cart.Add(ctx, productID, *qty); err != nil {
		return err
	}
	fmt.Printf("added, cart now has %d items\n", a.cart.Count())
	return nil
}

func (a *app) cmdUpdate(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: update <item-id> -qty N")
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	qty := fs.Int("qty", 1, "new quantity")
	fs.Parse(args[1:])

	if err := a.cart.UpdateQuantity(ctx, itemID, clampQuantity(*qty)); err != nil {
		return err
	}
	fmt.Printf("updated, cart now has %d items\n", a.cart.Count())
	return nil
}

func (a *app) cmdRemove(ctx context.Context, args []string) error {
	itemID, err := parseID(args)
	if err != nil {
		return err
	}
	if err := a.cart.Remove(ctx, itemID); err != nil {
		return err
	}
	fmt.Printf("removed, cart now has %d items\n", a.cart.Count())
	return nil
}

func (a *app) cmdCheckout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	address := fs.String("address", "", "shipping address")
	fs.Parse(args)
	if *address == "" {
		return fmt.Errorf("an -address is required")
	}

	order, err := a.orders.Place(ctx, *address)
	if err != nil {
		return err
	}
	fmt.Printf("order #%d placed, total ₹%.2f\n", order.ID, order.TotalPrice)
	return nil
}

func (a *app) cmdOrders(ctx context.Context) error {
	list, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no orders yet")
		return nil
	}
	for _, o := range list {
		fmt.Printf("#%-4d %-10s ₹%-10.2f %s\n", o.ID, o.Status, o.TotalPrice, o.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func (a *app) cmdOrder(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	o, err := a.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("order #%d (%s) to %s\n", o.ID, o.Status, o.Address)
	for _, item := range o.Items {
		fmt.Printf("  %-24s x%-3d ₹%.2f\n", item.ProductName, item.Quantity, item.ProductPrice)
	}
	fmt.Printf("total: ₹%.2f\n", o.TotalPrice)
	return nil
}

// clampQuantity enforces the quantity floor at the call site; the cart
// store passes values through untouched.
func clampQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	return quantity
}

func parseID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("an id argument is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}
