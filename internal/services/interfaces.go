package services

import (
	"context"

	"github.com/deshimart/storefront-go/internal/platform/restclient"
)

// RequestClient is the slice of the resilient HTTP client the services
// consume, abstracted for stubbing in tests.
type RequestClient interface {
	Get(ctx context.Context, endpoint string, opts *restclient.CallOptions) restclient.Result
	Post(ctx context.Context, endpoint string, body any, opts *restclient.CallOptions) restclient.Result
	Patch(ctx context.Context, endpoint string, body any, opts *restclient.CallOptions) restclient.Result
	Delete(ctx context.Context, endpoint string, opts *restclient.CallOptions) restclient.Result
}

// AuthState is the read-only authentication input owned by the auth
// collaborator.
type AuthState interface {
	IsAuthenticated() bool
}

// Commerce service endpoints the cart core talks to. The API shape is owned
// by the server; nothing here defines new protocol.
const (
	endpointCartGetOrCreate = "/api/cart/get-or-create/"
	endpointCartDetail      = "/api/cart/%s/"
	endpointCartAddItem     = "/api/cart/%s/add-item/"
	endpointCartItem        = "/api/cart/items/%d/"
	endpointCartClear       = "/api/cart/%s/clear/"
	endpointOrderCreate     = "/api/orders/create/"
)
