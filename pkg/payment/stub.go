package payment

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a no-op provider for development and tests.
type StubProvider struct{}

func (s *StubProvider) InitiatePayment(ctx context.Context, req Request) (*Response, error) {
	ref := req.MerchantOrderID
	if ref == "" {
		ref = fmt.Sprintf("stub_%d", time.Now().UnixNano())
	}
	return &Response{Reference: ref, Status: "PENDING"}, nil
}
