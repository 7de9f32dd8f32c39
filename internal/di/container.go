package di

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/deshimart/storefront-go/internal/auth"
	"github.com/deshimart/storefront-go/internal/domain"
	"github.com/deshimart/storefront-go/internal/platform/config"
	"github.com/deshimart/storefront-go/internal/platform/restclient"
	"github.com/deshimart/storefront-go/internal/platform/sessionstore"
	"github.com/deshimart/storefront-go/internal/services"
)

// Container wires the client stack for runtime use: configuration, the signed
// session file, the resilient request client, and the cart and checkout
// services on top.
type Container struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    sessionstore.Store
	Client   *restclient.Client
	Auth     *auth.Provider
	Cart     *services.CartSession
	Checkout *services.CheckoutService
}

// NewContainer assembles the runtime dependencies from configuration. Tests
// wire the pieces directly; this path is for binaries.
func NewContainer(cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := sessionstore.NewFileStore(cfg.Session.FilePath, []byte(cfg.Session.SigningKey))
	if err != nil {
		return nil, err
	}
	if _, err := sessionstore.EnsureDeviceID(store); err != nil {
		return nil, err
	}

	authProvider, err := auth.NewProvider(store)
	if err != nil {
		return nil, err
	}

	client, err := restclient.New(restclient.Deps{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		MaxRetries:  &cfg.API.MaxRetries,
		BackoffBase: cfg.API.BackoffBase,
		Token:       authProvider.Token,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	applyDeliveryDefaults(cfg.Defaults)

	eventLog := zapEventLogger(logger)
	cart, err := services.NewCartSession(services.CartSessionDeps{
		Client: client,
		Store:  store,
		Auth:   authProvider,
		Logger: eventLog,
	})
	if err != nil {
		return nil, err
	}

	checkout, err := services.NewCheckoutService(services.CheckoutDeps{
		Client:  client,
		Session: cart,
		Auth:    authProvider,
		Logger:  eventLog,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Client:   client,
		Auth:     authProvider,
		Cart:     cart,
		Checkout: checkout,
	}, nil
}

// Close flushes buffered log output.
func (c *Container) Close() {
	if c == nil || c.Logger == nil {
		return
	}
	_ = c.Logger.Sync()
}

// applyDeliveryDefaults pushes configured fallback charges into the totals
// calculator. Server-supplied charges still take precedence per cart.
func applyDeliveryDefaults(defaults config.Defaults) {
	if defaults.DeliveryChargeInsideDhaka > 0 {
		domain.DefaultChargeInsideDhaka = decimal.NewFromInt(defaults.DeliveryChargeInsideDhaka)
	}
	if defaults.DeliveryChargeOutsideDhaka > 0 {
		domain.DefaultChargeOutsideDhaka = decimal.NewFromInt(defaults.DeliveryChargeOutsideDhaka)
	}
}

// zapEventLogger bridges the services' event-callback logging onto zap.
func zapEventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}
