package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/deshimart/storefront-go/internal/domain"
	"github.com/deshimart/storefront-go/internal/platform/restclient"
	"github.com/deshimart/storefront-go/internal/platform/sessionstore"
)

// State is the observable lifecycle phase of the cart session.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateReady
	StateMutating
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	case StateMutating:
		return "mutating"
	default:
		return "uninitialized"
	}
}

var (
	// ErrCartUnavailable indicates the server could not supply a usable cart.
	ErrCartUnavailable = errors.New("cart: unavailable")
	// ErrGuestDecisionRequired signals that an add was suspended pending the
	// guest/login decision; resolve with ContinueAsGuest or ChooseLogin.
	ErrGuestDecisionRequired = errors.New("cart: guest decision required")
	// ErrQuantityTooLow rejects quantities below one; use RemoveItem to
	// delete a line.
	ErrQuantityTooLow = errors.New("cart: quantity must be at least 1")
	// ErrNoPendingAction indicates ContinueAsGuest was called with nothing
	// suspended.
	ErrNoPendingAction = errors.New("cart: no pending action")

	errCartClientRequired = errors.New("cart session: request client is required")
	errCartStoreRequired  = errors.New("cart session: session store is required")
	errCartAuthRequired   = errors.New("cart session: auth state is required")
)

// ServerError carries the server-reported message for a failed operation.
// The message is already normalized and safe to surface to the user.
type ServerError struct {
	Message string
	Status  int
}

func (e *ServerError) Error() string { return e.Message }

func serverError(res restclient.Result) error {
	return &ServerError{Message: res.Message, Status: res.Status}
}

// CartSessionDeps wires the collaborators of the cart session manager.
type CartSessionDeps struct {
	Client RequestClient
	Store  sessionstore.Store
	Auth   AuthState
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// CartSession owns the cart identifier's lifecycle. The cart's authoritative
// state lives server-side; this manager is a read-through cache reconciled by
// re-fetch after every mutation, with no optimistic local writes. Mutations
// are serialized behind an internal operation lock, so overlapping calls
// queue rather than interleave.
type CartSession struct {
	client RequestClient
	store  sessionstore.Store
	auth   AuthState
	logger func(ctx context.Context, event string, fields map[string]any)

	initGroup singleflight.Group

	// opMu is the mutual-exclusion region for mutations; held across the
	// network round-trip and the reconciling refresh.
	opMu sync.Mutex

	mu      sync.Mutex
	state   State
	cart    domain.Cart
	pending *domain.PendingAction
}

// NewCartSession constructs a CartSession enforcing dependency validation.
func NewCartSession(deps CartSessionDeps) (*CartSession, error) {
	if deps.Client == nil {
		return nil, errCartClientRequired
	}
	if deps.Store == nil {
		return nil, errCartStoreRequired
	}
	if deps.Auth == nil {
		return nil, errCartAuthRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &CartSession{
		client: deps.Client,
		store:  deps.Store,
		auth:   deps.Auth,
		logger: logger,
	}, nil
}

// State reports the current lifecycle phase.
func (s *CartSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cart returns a snapshot of the last reconciled cart.
func (s *CartSession) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCart(s.cart)
}

// Totals derives the displayable totals for the current snapshot.
func (s *CartSession) Totals(region domain.ShippingRegion) domain.Totals {
	return domain.CalculateTotals(s.Cart(), region)
}

// PendingAction exposes the suspended add, when one exists.
func (s *CartSession) PendingAction() (domain.PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return domain.PendingAction{}, false
	}
	return *s.pending, true
}

// Initialize resolves the cart: a persisted identifier is fetched, and on
// absence or fetch failure a cart is provisioned via get-or-create and the
// returned identifier persisted. Concurrent calls collapse into a single
// in-flight resolution, so duplicate carts are never created.
func (s *CartSession) Initialize(ctx context.Context) (domain.Cart, error) {
	value, err, _ := s.initGroup.Do("initialize", func() (any, error) {
		return s.resolve(ctx)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return value.(domain.Cart), nil
}

func (s *CartSession) resolve(ctx context.Context) (domain.Cart, error) {
	prev := s.State()
	s.setState(StateResolving)

	if id, ok := s.store.Get(sessionstore.KeyCartID); ok && strings.TrimSpace(id) != "" {
		cart, err := s.fetch(ctx, id)
		if err == nil {
			s.setCart(cart)
			s.setState(StateReady)
			return cart, nil
		}
		s.logger(ctx, "cart.fetch_failed", map[string]any{
			"cartID": id,
			"error":  err.Error(),
		})
	}

	cart, err := s.provision(ctx)
	if err != nil {
		s.setState(prev)
		return domain.Cart{}, err
	}
	s.setState(StateReady)
	return cart, nil
}

// Refresh re-fetches the cart by its current identifier, delegating to
// Initialize when none exists yet.
func (s *CartSession) Refresh(ctx context.Context) (domain.Cart, error) {
	id, ok := s.store.Get(sessionstore.KeyCartID)
	if !ok || strings.TrimSpace(id) == "" {
		return s.Initialize(ctx)
	}
	cart, err := s.fetch(ctx, id)
	if err != nil {
		return domain.Cart{}, err
	}
	s.setCart(cart)
	if s.State() != StateMutating {
		s.setState(StateReady)
	}
	return cart, nil
}

// AddItem resolves the variant for product and adds it to the cart, then
// reconciles via refresh. When the actor is unauthenticated and guest mode is
// not yet chosen, the call is suspended: the request is stored as the sole
// pending action (a second attempt overwrites the first) and
// ErrGuestDecisionRequired is returned without any server contact.
func (s *CartSession) AddItem(ctx context.Context, product domain.Product, quantity int, variantOverride int64) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}

	if !s.auth.IsAuthenticated() && !s.guestModeChosen() {
		s.mu.Lock()
		s.pending = &domain.PendingAction{
			Product:         product,
			Quantity:        quantity,
			VariantOverride: variantOverride,
		}
		s.mu.Unlock()
		s.logger(ctx, "cart.add_gated", map[string]any{"productID": product.ID})
		return ErrGuestDecisionRequired
	}

	return s.addItem(ctx, product, quantity, variantOverride)
}

// ContinueAsGuest persists the guest-mode flag and replays the suspended add
// exactly once. The pending action is cleared regardless of the replay's
// outcome; a failed replay surfaces its error and the caller simply re-adds.
func (s *CartSession) ContinueAsGuest(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if pending == nil {
		return ErrNoPendingAction
	}

	if err := s.store.Set(sessionstore.KeyGuestMode, "true"); err != nil {
		return err
	}
	return s.addItem(ctx, pending.Product, pending.Quantity, pending.VariantOverride)
}

// ChooseLogin discards the suspended add without replaying it; the caller is
// expected to re-add after authenticating.
func (s *CartSession) ChooseLogin() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// UpdateQuantity sets a line's quantity. Quantities below one are rejected
// locally without contacting the server; deletion goes through RemoveItem.
func (s *CartSession) UpdateQuantity(ctx context.Context, lineID int64, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}
	return s.mutate(ctx, func(ctx context.Context) restclient.Result {
		return s.client.Patch(ctx, fmt.Sprintf(endpointCartItem, lineID), map[string]any{
			"quantity": quantity,
		}, nil)
	})
}

// RemoveItem deletes a line, then reconciles via refresh.
func (s *CartSession) RemoveItem(ctx context.Context, lineID int64) error {
	return s.mutate(ctx, func(ctx context.Context) restclient.Result {
		return s.client.Delete(ctx, fmt.Sprintf(endpointCartItem, lineID), nil)
	})
}

// Clear empties the cart server-side and immediately provisions a brand-new
// cart identifier. The old identifier is never reused.
func (s *CartSession) Clear(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	id, ok := s.store.Get(sessionstore.KeyCartID)
	if !ok || strings.TrimSpace(id) == "" {
		_, err := s.Initialize(ctx)
		return err
	}

	prev := s.State()
	s.setState(StateMutating)

	res := s.client.Post(ctx, fmt.Sprintf(endpointCartClear, id), nil, nil)
	if !res.Success {
		s.setState(prev)
		return serverError(res)
	}

	if err := s.rotateCart(ctx); err != nil {
		s.setState(prev)
		return err
	}
	s.setState(StateReady)
	return nil
}

// ProvisionFresh abandons the current identifier and provisions a new cart.
// Used after a finalized cash-on-delivery order consumes the cart.
func (s *CartSession) ProvisionFresh(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.rotateCart(ctx)
}

func (s *CartSession) addItem(ctx context.Context, product domain.Product, quantity int, variantOverride int64) error {
	variantID, err := domain.ResolveVariantID(product, variantOverride)
	if err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	cartID, err := s.ensureCartID(ctx)
	if err != nil {
		return err
	}

	prev := s.State()
	s.setState(StateMutating)

	res := s.client.Post(ctx, fmt.Sprintf(endpointCartAddItem, cartID), map[string]any{
		"variant_id": variantID,
		"quantity":   quantity,
	}, nil)
	if !res.Success {
		s.setState(prev)
		return serverError(res)
	}

	if _, err := s.Refresh(ctx); err != nil {
		// The add may have applied server-side; the next refresh reconciles.
		s.setState(prev)
		return err
	}
	s.setState(StateReady)
	return nil
}

// mutate runs a line-level mutation inside the exclusion region and
// reconciles with a refresh.
func (s *CartSession) mutate(ctx context.Context, op func(ctx context.Context) restclient.Result) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.ensureCartID(ctx); err != nil {
		return err
	}

	prev := s.State()
	s.setState(StateMutating)

	if res := op(ctx); !res.Success {
		s.setState(prev)
		return serverError(res)
	}

	if _, err := s.Refresh(ctx); err != nil {
		s.setState(prev)
		return err
	}
	s.setState(StateReady)
	return nil
}

// ensureCartID lazily resolves a cart before the first mutation.
func (s *CartSession) ensureCartID(ctx context.Context) (string, error) {
	if id, ok := s.store.Get(sessionstore.KeyCartID); ok && strings.TrimSpace(id) != "" {
		return id, nil
	}
	cart, err := s.Initialize(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cart.ID) == "" {
		return "", ErrCartUnavailable
	}
	return cart.ID, nil
}

func (s *CartSession) fetch(ctx context.Context, id string) (domain.Cart, error) {
	res := s.client.Get(ctx, fmt.Sprintf(endpointCartDetail, id), nil)
	if !res.Success {
		return domain.Cart{}, serverError(res)
	}
	var cart domain.Cart
	if err := res.Decode(&cart); err != nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	if strings.TrimSpace(cart.ID) == "" {
		cart.ID = id
	}
	return cart, nil
}

func (s *CartSession) provision(ctx context.Context) (domain.Cart, error) {
	res := s.client.Post(ctx, endpointCartGetOrCreate, nil, nil)
	if !res.Success {
		return domain.Cart{}, serverError(res)
	}
	var cart domain.Cart
	if err := res.Decode(&cart); err != nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	if strings.TrimSpace(cart.ID) == "" {
		return domain.Cart{}, ErrCartUnavailable
	}
	if err := s.store.Set(sessionstore.KeyCartID, cart.ID); err != nil {
		return domain.Cart{}, err
	}
	s.setCart(cart)
	return cart, nil
}

// rotateCart drops the persisted identifier and provisions a replacement.
func (s *CartSession) rotateCart(ctx context.Context) error {
	if err := s.store.Delete(sessionstore.KeyCartID); err != nil {
		return err
	}
	if _, err := s.provision(ctx); err != nil {
		return err
	}
	return nil
}

func (s *CartSession) guestModeChosen() bool {
	value, ok := s.store.Get(sessionstore.KeyGuestMode)
	return ok && strings.EqualFold(strings.TrimSpace(value), "true")
}

func (s *CartSession) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *CartSession) setCart(cart domain.Cart) {
	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()
}

func cloneCart(cart domain.Cart) domain.Cart {
	if len(cart.Items) == 0 {
		return cart
	}
	items := make([]domain.CartLine, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return cart
}
