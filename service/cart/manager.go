// Package cart owns the shopper's cart mirror and keeps it in sync with the
// local store and, once a token is present, with the server cart.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"storefront.GO/core/apperror"
	"storefront.GO/core/logging"
	cartEntity "storefront.GO/model/entity/cart"
	catalogEntity "storefront.GO/model/entity/catalog"
)

// Remote is the server cart API.
type Remote interface {
	FetchCart(ctx context.Context, token string) (cartEntity.Cart, error)
	PushLine(ctx context.Context, token string, line cartEntity.Line) error
	UpdateQuantity(ctx context.Context, token, key string, quantity int) error
	RemoveLine(ctx context.Context, token, key string) error
	ClearCart(ctx context.Context, token string) error
}

// Store persists the guest cart mirror and the auth token between runs.
type Store interface {
	LoadCart(ctx context.Context) (cartEntity.Cart, error)
	SaveCart(ctx context.Context, c cartEntity.Cart) error
	ClearCart(ctx context.Context) error
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
}

// Products resolves live products for validation and stock checks.
type Products interface {
	Catalog() *catalogEntity.Catalog
	Product(ctx context.Context, id string) (catalogEntity.Product, error)
}

// LoginPolicy decides what happens to the guest cart when a token is acquired.
type LoginPolicy int

const (
	// DiscardGuestCart replaces the mirror with the server cart.
	DiscardGuestCart LoginPolicy = iota
	// MergeGuestCart keeps server lines on key conflicts and pushes guest-only lines.
	MergeGuestCart
)

func (p LoginPolicy) String() string {
	if p == MergeGuestCart {
		return "merge"
	}
	return "discard"
}

// ParseLoginPolicy accepts "discard" (or "") and "merge".
func ParseLoginPolicy(s string) (LoginPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "discard":
		return DiscardGuestCart, nil
	case "merge":
		return MergeGuestCart, nil
	}
	return DiscardGuestCart, fmt.Errorf("unknown login policy %q", s)
}

// Manager is the only writer of the cart mirror. Operations run one at a time;
// readers get clones and never block on a running server call.
type Manager struct {
	remote   Remote
	store    Store
	products Products
	policy   LoginPolicy
	logger   *zap.Logger

	ops sync.Mutex

	mu       sync.RWMutex
	token    string
	lines    cartEntity.Cart
	revision uint64
}

type Option func(*Manager)

func WithLoginPolicy(p LoginPolicy) Option {
	return func(m *Manager) { m.policy = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(remote Remote, store Store, products Products, opts ...Option) *Manager {
	m := &Manager{
		remote:   remote,
		store:    store,
		products: products,
		lines:    cartEntity.Cart{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrNop(m.logger)
	return m
}

// remoteErr gives untyped server failures the network kind.
func remoteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.KindOf(err) == apperror.KindUnknown {
		return apperror.Wrap(apperror.KindNetwork, op, err)
	}
	return err
}

// replace swaps the mirror and persists it. Store failures are logged: the
// in-memory mirror stays authoritative for the running session.
func (m *Manager) replace(ctx context.Context, next cartEntity.Cart) {
	m.mu.Lock()
	m.lines = next
	m.revision++
	m.mu.Unlock()
	if err := m.store.SaveCart(ctx, next); err != nil {
		m.logger.Warn("persisting cart failed", zap.Error(err))
	}
}

func (m *Manager) current() (string, cartEntity.Cart) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.lines.Clone()
}

// Open restores the token and cart from the local store. With a stored token the
// mirror is then refreshed from the server; if that fails the stored mirror is kept.
func (m *Manager) Open(ctx context.Context) error {
	const op = "cart.Open"
	m.ops.Lock()
	defer m.ops.Unlock()

	token, err := m.store.LoadToken(ctx)
	if err != nil {
		return apperror.Wrap(apperror.KindUnknown, op, err)
	}
	stored, err := m.store.LoadCart(ctx)
	if err != nil {
		return apperror.Wrap(apperror.KindUnknown, op, err)
	}
	m.mu.Lock()
	m.token = token
	m.lines = stored
	m.revision++
	m.mu.Unlock()

	if token == "" {
		return nil
	}
	server, err := m.remote.FetchCart(ctx, token)
	if err != nil {
		m.logger.Warn("server cart unavailable, using stored mirror", zap.Error(err))
		return nil
	}
	m.replace(ctx, server)
	return nil
}

// Login stores the token and adopts the server cart according to the login policy.
// On failure the session stays a guest session and the mirror is unchanged.
func (m *Manager) Login(ctx context.Context, token string) error {
	const op = "cart.Login"
	if strings.TrimSpace(token) == "" {
		return apperror.Validation(op, "token is required")
	}
	m.ops.Lock()
	defer m.ops.Unlock()

	server, err := m.remote.FetchCart(ctx, token)
	if err != nil {
		return remoteErr(op, err)
	}
	_, guest := m.current()
	next := server
	if m.policy == MergeGuestCart {
		for _, l := range guest.Lines() {
			if _, ok := next[l.Key]; ok {
				continue
			}
			if err := m.remote.PushLine(ctx, token, l); err != nil {
				m.logger.Warn("guest line not merged", zap.String("key", l.Key), zap.Error(err))
				continue
			}
			next[l.Key] = l
		}
	} else if len(guest) > 0 {
		m.logger.Info("guest cart discarded on login", zap.Int("lines", len(guest)))
	}

	if err := m.store.SaveToken(ctx, token); err != nil {
		m.logger.Warn("persisting token failed", zap.Error(err))
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	m.replace(ctx, next)
	return nil
}

// Logout forgets the token and empties the mirror and the local store.
func (m *Manager) Logout(ctx context.Context) error {
	m.ops.Lock()
	defer m.ops.Unlock()
	m.mu.Lock()
	m.token = ""
	m.lines = cartEntity.Cart{}
	m.revision++
	m.mu.Unlock()
	if err := m.store.SaveToken(ctx, ""); err != nil {
		return apperror.Wrap(apperror.KindUnknown, "cart.Logout", err)
	}
	return m.store.ClearCart(ctx)
}

// AddToCart validates the request, writes the priced line into the mirror and,
// when authenticated, pushes it to the server. Re-adding a key overwrites its
// quantity. A failed push restores the previous mirror.
func (m *Manager) AddToCart(ctx context.Context, productID string, quantity int, choices cartEntity.Choices) (cartEntity.Line, error) {
	const op = "cart.AddToCart"
	m.ops.Lock()
	defer m.ops.Unlock()

	p, err := m.products.Product(ctx, productID)
	if err != nil {
		return cartEntity.Line{}, err
	}
	line, clamped, err := PriceLine(p, quantity, choices)
	if err != nil {
		return cartEntity.Line{}, err
	}
	if clamped {
		m.logger.Warn("unit price floored at zero", zap.String("key", line.Key))
	}

	token, prev := m.current()
	next := prev.Clone()
	next[line.Key] = line
	m.replace(ctx, next)

	if token == "" {
		return line.Clone(), nil
	}
	if err := m.remote.PushLine(ctx, token, line); err != nil {
		m.replace(ctx, prev)
		return cartEntity.Line{}, remoteErr(op, err)
	}
	return line.Clone(), nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
// The server is updated first, so a rejection leaves the mirror untouched.
func (m *Manager) UpdateQuantity(ctx context.Context, key string, quantity int) error {
	const op = "cart.UpdateQuantity"
	m.ops.Lock()
	defer m.ops.Unlock()

	token, lines := m.current()
	line, ok := lines[key]
	if !ok {
		return apperror.NotFound(op, "no cart line "+key)
	}

	if quantity <= 0 {
		if token != "" {
			if err := m.remote.RemoveLine(ctx, token, key); err != nil {
				return remoteErr(op, err)
			}
		}
		delete(lines, key)
		m.replace(ctx, lines)
		return nil
	}

	p, ok := m.products.Catalog().Lookup(line.BaseProductID)
	if !ok {
		return apperror.New(apperror.KindStale, op, "product "+line.BaseProductID+" is no longer available")
	}
	if err := checkStock(p, line.Variations, quantity); err != nil {
		return err
	}
	if token != "" {
		if err := m.remote.UpdateQuantity(ctx, token, key, quantity); err != nil {
			return remoteErr(op, err)
		}
	}
	line.Quantity = quantity
	lines[key] = line
	m.replace(ctx, lines)
	return nil
}

// RemoveFromCart deletes the line right away and restores it if the server refuses.
func (m *Manager) RemoveFromCart(ctx context.Context, key string) error {
	const op = "cart.RemoveFromCart"
	m.ops.Lock()
	defer m.ops.Unlock()

	token, prev := m.current()
	if _, ok := prev[key]; !ok {
		return apperror.NotFound(op, "no cart line "+key)
	}
	next := prev.Clone()
	delete(next, key)
	m.replace(ctx, next)

	if token == "" {
		return nil
	}
	if err := m.remote.RemoveLine(ctx, token, key); err != nil {
		m.replace(ctx, prev)
		return remoteErr(op, err)
	}
	return nil
}

// ClearCart empties the server cart, then the mirror and the local store.
// It requires a token; on server failure nothing changes. A local store failure
// after the server cleared is logged, like any other persist failure.
func (m *Manager) ClearCart(ctx context.Context) error {
	const op = "cart.ClearCart"
	m.ops.Lock()
	defer m.ops.Unlock()

	token, _ := m.current()
	if token == "" {
		return apperror.Unauthenticated(op)
	}
	if err := m.remote.ClearCart(ctx, token); err != nil {
		return remoteErr(op, err)
	}
	m.mu.Lock()
	m.lines = cartEntity.Cart{}
	m.revision++
	m.mu.Unlock()
	if err := m.store.ClearCart(ctx); err != nil {
		m.logger.Warn("clearing stored cart failed", zap.Error(err))
	}
	return nil
}

// Reset empties the mirror and the local store after an order was placed.
// The server clears its own cart as part of order placement.
func (m *Manager) Reset(ctx context.Context) error {
	m.ops.Lock()
	defer m.ops.Unlock()
	m.mu.Lock()
	m.lines = cartEntity.Cart{}
	m.revision++
	m.mu.Unlock()
	return m.store.ClearCart(ctx)
}

// Snapshot returns a copy of the mirror and its revision.
func (m *Manager) Snapshot() (cartEntity.Cart, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lines.Clone(), m.revision
}

func (m *Manager) Line(key string) (cartEntity.Line, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lines[key]
	if !ok {
		return cartEntity.Line{}, false
	}
	return l.Clone(), true
}

func (m *Manager) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}

func (m *Manager) Policy() LoginPolicy {
	return m.policy
}
