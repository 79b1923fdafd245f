package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sokoide/workshop/storefront/pkg/domain"
	"github.com/sokoide/workshop/storefront/pkg/infra/util"
)

// Keys the provider uses when it is given a store. They never overlap with
// the cart or session keys.
const (
	accountsKey = "mockapi.accounts"
	ordersKey   = "mockapi.orders"
)

const minPasswordLen = 6

type Config struct {
	Latency    time.Duration
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	// Store, when set, keeps accounts and orders across restarts.
	Store domain.KeyValueStore
	IDGen domain.IDGenerator
	Now   func() time.Time
}

type account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// Provider simulates the remote storefront API: every call waits Latency
// (or until ctx is done) before answering from fixture data.
type Provider struct {
	cfg Config

	mu       sync.Mutex
	accounts map[string]account // by lower-cased email
	orders   map[string][]domain.Order
}

func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "changeme"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.IDGen == nil {
		cfg.IDGen = &util.UUIDGenerator{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	p := &Provider{
		cfg:      cfg,
		accounts: map[string]account{},
		orders:   map[string][]domain.Order{},
	}
	if err := p.load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) load(ctx context.Context) error {
	if p.cfg.Store != nil {
		if raw, ok, err := p.cfg.Store.Get(ctx, accountsKey); err != nil {
			return fmt.Errorf("mockapi: load accounts: %w", err)
		} else if ok {
			if err := json.Unmarshal([]byte(raw), &p.accounts); err != nil {
				p.accounts = map[string]account{}
			}
		}
		if raw, ok, err := p.cfg.Store.Get(ctx, ordersKey); err != nil {
			return fmt.Errorf("mockapi: load orders: %w", err)
		} else if ok {
			if err := json.Unmarshal([]byte(raw), &p.orders); err != nil {
				p.orders = map[string][]domain.Order{}
			}
		}
	}

	if _, ok := p.accounts[demoEmail]; !ok {
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), p.cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("mockapi: hash demo password: %w", err)
		}
		p.accounts[demoEmail] = account{ID: demoUserID, Name: demoName, Email: demoEmail, PasswordHash: string(hash)}
		if len(p.orders[demoUserID]) == 0 {
			p.orders[demoUserID] = []domain.Order{seedOrder(p.cfg.Now())}
		}
	}
	return nil
}

// save must be called with p.mu held.
func (p *Provider) save(ctx context.Context) error {
	if p.cfg.Store == nil {
		return nil
	}
	accounts, err := json.Marshal(p.accounts)
	if err != nil {
		return err
	}
	orders, err := json.Marshal(p.orders)
	if err != nil {
		return err
	}
	if err := p.cfg.Store.Set(ctx, accountsKey, string(accounts)); err != nil {
		return fmt.Errorf("mockapi: save accounts: %w", err)
	}
	if err := p.cfg.Store.Set(ctx, ordersKey, string(orders)); err != nil {
		return fmt.Errorf("mockapi: save orders: %w", err)
	}
	return nil
}

func (p *Provider) delay(ctx context.Context) error {
	if p.cfg.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(p.cfg.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	if err := p.delay(ctx); err != nil {
		return domain.Identity{}, err
	}

	p.mu.Lock()
	acc, ok := p.accounts[normalizeEmail(email)]
	p.mu.Unlock()
	if !ok {
		return domain.Identity{}, domain.ErrAuth
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return domain.Identity{}, domain.ErrAuth
	}
	return p.identity(acc)
}

func (p *Provider) RegisterAccount(ctx context.Context, name, email, password string) (domain.Identity, error) {
	if err := p.delay(ctx); err != nil {
		return domain.Identity{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Identity{}, fmt.Errorf("%w: name is required", domain.ErrRegistration)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: invalid email %q", domain.ErrRegistration, email)
	}
	if len(password) < minPasswordLen {
		return domain.Identity{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrRegistration, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: hash password: %v", domain.ErrRegistration, err)
	}

	key := normalizeEmail(addr.Address)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, taken := p.accounts[key]; taken {
		return domain.Identity{}, fmt.Errorf("%w: email already registered", domain.ErrRegistration)
	}
	acc := account{ID: "user-" + p.cfg.IDGen.GenerateID(), Name: name, Email: addr.Address, PasswordHash: string(hash)}
	p.accounts[key] = acc
	if err := p.save(ctx); err != nil {
		delete(p.accounts, key)
		return domain.Identity{}, err
	}
	return p.identity(acc)
}

func (p *Provider) identity(acc account) (domain.Identity, error) {
	token, err := generateToken(acc.ID, acc.Email, p.cfg.JWTSecret, p.cfg.TokenTTL, p.cfg.Now())
	if err != nil {
		return domain.Identity{}, fmt.Errorf("mockapi: issue token: %w", err)
	}
	return domain.Identity{ID: acc.ID, Name: acc.Name, Email: acc.Email, Token: token}, nil
}

// VerifyToken checks a token issued by this provider and returns its claims.
func (p *Provider) VerifyToken(token string) (*Claims, error) {
	claims, err := parseToken(token, p.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	return claims, nil
}

func (p *Provider) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	if err := p.delay(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Restaurant, len(restaurants))
	copy(out, restaurants)
	return out, nil
}

func (p *Provider) GetRestaurant(ctx context.Context, id string) (domain.Restaurant, bool, error) {
	if err := p.delay(ctx); err != nil {
		return domain.Restaurant{}, false, err
	}
	for _, r := range restaurants {
		if r.ID == id {
			return r, true, nil
		}
	}
	return domain.Restaurant{}, false, nil
}

func (p *Provider) ListMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	if err := p.delay(ctx); err != nil {
		return nil, err
	}
	items := menus[restaurantID]
	out := make([]domain.MenuItem, len(items))
	copy(out, items)
	return out, nil
}

func (p *Provider) SubmitOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	if err := p.delay(ctx); err != nil {
		return domain.Order{}, err
	}
	if err := validateDraft(draft); err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:              "order-" + p.cfg.IDGen.GenerateID(),
		UserID:          draft.UserID,
		RestaurantID:    draft.RestaurantID,
		Items:           append([]domain.OrderLine(nil), draft.Items...),
		TotalAmount:     draft.TotalAmount,
		Status:          domain.OrderStatusPending,
		DeliveryAddress: draft.DeliveryAddress,
		CreatedAt:       p.cfg.Now().UTC(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders[order.UserID] = append(p.orders[order.UserID], order)
	if err := p.save(ctx); err != nil {
		list := p.orders[order.UserID]
		p.orders[order.UserID] = list[:len(list)-1]
		return domain.Order{}, err
	}
	return order, nil
}

func validateDraft(draft domain.OrderDraft) error {
	if draft.UserID == "" {
		return fmt.Errorf("%w: user is required", domain.ErrInvalidOrder)
	}
	if strings.TrimSpace(draft.DeliveryAddress) == "" {
		return fmt.Errorf("%w: %v", domain.ErrInvalidOrder, domain.ErrAddressRequired)
	}
	menu, ok := menus[draft.RestaurantID]
	if !ok {
		return fmt.Errorf("%w: %v: %q", domain.ErrInvalidOrder, domain.ErrRestaurantNotFound, draft.RestaurantID)
	}
	if len(draft.Items) == 0 {
		return fmt.Errorf("%w: no items", domain.ErrInvalidOrder)
	}

	known := make(map[string]bool, len(menu))
	for _, it := range menu {
		known[it.ID] = true
	}
	total := decimal.Zero
	for _, line := range draft.Items {
		if !known[line.ItemID] {
			return fmt.Errorf("%w: item %q is not on the menu of restaurant %q", domain.ErrInvalidOrder, line.ItemID, draft.RestaurantID)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: item %q has quantity %d", domain.ErrInvalidOrder, line.ItemID, line.Quantity)
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if !total.Equal(draft.TotalAmount) {
		return fmt.Errorf("%w: total %s does not match items %s", domain.ErrInvalidOrder, draft.TotalAmount, total)
	}
	return nil
}

// ListOrders returns the user's orders, newest first.
func (p *Provider) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if err := p.delay(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	out := append([]domain.Order(nil), p.orders[userID]...)
	p.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// AdvanceOrder moves an order to next, enforcing the status machine. Status
// changes are the provider's business; clients only observe them.
func (p *Provider) AdvanceOrder(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for userID, list := range p.orders {
		for i := range list {
			if list[i].ID != orderID {
				continue
			}
			prev := list[i].Status
			if !prev.CanTransition(next) {
				return domain.Order{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, next)
			}
			list[i].Status = next
			if err := p.save(ctx); err != nil {
				list[i].Status = prev
				return domain.Order{}, err
			}
			p.orders[userID] = list
			return list[i], nil
		}
	}
	return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
