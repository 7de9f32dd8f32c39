package services

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/deshimart/storefront-go/internal/domain"
)

var (
	// ErrEmptyCart indicates checkout was attempted with no purchasable lines.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrPaymentMethodRequired indicates no payment method was supplied.
	ErrPaymentMethodRequired = errors.New("checkout: payment method is required")

	errCheckoutClientRequired  = errors.New("checkout service: request client is required")
	errCheckoutSessionRequired = errors.New("checkout service: cart session is required")
	errCheckoutAuthRequired    = errors.New("checkout service: auth state is required")
)

// CheckoutOutcome classifies the result of an order submission.
type CheckoutOutcome int

const (
	// OutcomeFailed means the server rejected the order; Message carries the
	// server-reported reason verbatim and the cart is left untouched.
	OutcomeFailed CheckoutOutcome = iota
	// OutcomeRedirect means an external payment is required; the cart is not
	// cleared until payment is confirmed.
	OutcomeRedirect
	// OutcomeOrderConfirmed means a cash-on-delivery order was finalized and
	// a fresh cart has been provisioned.
	OutcomeOrderConfirmed
)

// CheckoutResult is the classified outcome of a checkout attempt.
type CheckoutResult struct {
	Outcome    CheckoutOutcome
	OrderID    string
	PaymentURL string
	Message    string
}

// CheckoutDeps wires the checkout orchestrator.
type CheckoutDeps struct {
	Client      RequestClient
	Session     *CartSession
	Auth        AuthState
	Logger      func(ctx context.Context, event string, fields map[string]any)
	IDGenerator func() string
}

// CheckoutService builds the auth-state-dependent order payload, submits it,
// and classifies the response.
type CheckoutService struct {
	client  RequestClient
	session *CartSession
	auth    AuthState
	logger  func(ctx context.Context, event string, fields map[string]any)
	newID   func() string
}

// NewCheckoutService constructs a CheckoutService validating required
// dependencies.
func NewCheckoutService(deps CheckoutDeps) (*CheckoutService, error) {
	if deps.Client == nil {
		return nil, errCheckoutClientRequired
	}
	if deps.Session == nil {
		return nil, errCheckoutSessionRequired
	}
	if deps.Auth == nil {
		return nil, errCheckoutAuthRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	return &CheckoutService{
		client:  deps.Client,
		session: deps.Session,
		auth:    deps.Auth,
		logger:  logger,
		newID:   idGen,
	}, nil
}

// Checkout submits the current cart as an order.
//
// The payload always carries the cart identifier, payment method, and the
// shipping region code. Contact fields (name, email, phone, address text) are
// included only for unauthenticated actors; an authenticated actor's address
// text is optional and passed through when provided.
func (s *CheckoutService) Checkout(ctx context.Context, address domain.ShippingAddress, paymentMethod, notes string) (CheckoutResult, error) {
	paymentMethod = strings.ToLower(strings.TrimSpace(paymentMethod))
	if paymentMethod == "" {
		return CheckoutResult{}, ErrPaymentMethodRequired
	}

	cart := s.session.Cart()
	if strings.TrimSpace(cart.ID) == "" || cart.IsEmpty() {
		return CheckoutResult{}, ErrEmptyCart
	}

	submission := domain.OrderSubmission{
		CartID:         cart.ID,
		PaymentMethod:  paymentMethod,
		ShippingRegion: address.Region,
		IdempotencyKey: s.newID(),
		Notes:          strings.TrimSpace(notes),
	}
	if submission.ShippingRegion == "" {
		submission.ShippingRegion = domain.RegionInsideDhaka
	}
	if s.auth.IsAuthenticated() {
		submission.Address = strings.TrimSpace(address.Address)
	} else {
		submission.Name = strings.TrimSpace(address.Name)
		submission.Email = strings.TrimSpace(address.Email)
		submission.Phone = strings.TrimSpace(address.Phone)
		submission.Address = strings.TrimSpace(address.Address)
	}

	res := s.client.Post(ctx, endpointOrderCreate, submission, nil)
	if !res.Success {
		s.logger(ctx, "checkout.rejected", map[string]any{
			"cartID": cart.ID,
			"status": res.Status,
		})
		return CheckoutResult{Outcome: OutcomeFailed, Message: res.Message}, nil
	}

	var created struct {
		OrderID    string `json:"order_id"`
		PaymentURL string `json:"payment_url"`
	}
	if err := res.Decode(&created); err != nil {
		return CheckoutResult{Outcome: OutcomeFailed, Message: "Order status could not be read. Please check your orders before retrying."}, nil
	}

	if url := strings.TrimSpace(created.PaymentURL); url != "" {
		// Payment is unconfirmed until the gateway reports back, so the cart
		// stays as-is.
		s.logger(ctx, "checkout.redirect", map[string]any{"cartID": cart.ID})
		return CheckoutResult{
			Outcome:    OutcomeRedirect,
			OrderID:    strings.TrimSpace(created.OrderID),
			PaymentURL: url,
		}, nil
	}

	// Finalized cash-on-delivery order: the cart is consumed, provision a
	// replacement. A provisioning hiccup does not undo the order.
	if err := s.session.ProvisionFresh(ctx); err != nil {
		s.logger(ctx, "checkout.cart_rotation_failed", map[string]any{
			"orderID": created.OrderID,
			"error":   err.Error(),
		})
	}
	s.logger(ctx, "checkout.confirmed", map[string]any{"orderID": created.OrderID})
	return CheckoutResult{
		Outcome: OutcomeOrderConfirmed,
		OrderID: strings.TrimSpace(created.OrderID),
	}, nil
}
