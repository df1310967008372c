package types

import (
	"context"
)

// Transport executes a built request against the gateway
type Transport interface {
	Send(ctx context.Context, req *Request) (*RawResponse, error)
}

// Values is a read-only key-value source for webhook payloads.
// url.Values satisfies it.
type Values interface {
	Get(key string) string
	Has(key string) bool
}

