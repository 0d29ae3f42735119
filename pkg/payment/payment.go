package payment

import "context"

// Request describes one STK-push top-up. MerchantOrderID is the idempotency
// key echoed back in the webhook callback.
type Request struct {
	AmountCents     int64
	Currency        string
	MerchantOrderID string
	CustomerPhone   string
	Narration       string
	CallbackURL     string
}

// Response is the provider's synchronous ack; the outcome arrives later via
// webhook.
type Response struct {
	Reference         string
	Status            string
	CheckoutRequestID string
}

type Provider interface {
	InitiatePayment(ctx context.Context, req Request) (*Response, error)
}
