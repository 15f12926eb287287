package payments

import (
	"context"
	"encoding/json"
)

// Gateway abstracts the external payment provider. The lifecycle core only
// needs "charge this and tell me the provider's verdict"; everything else is
// the provider's business.
type Gateway interface {
	CreatePayment(ctx context.Context, requestPayload json.RawMessage) (providerPaymentID string, providerStatus string, providerResponse json.RawMessage, err error)
}
