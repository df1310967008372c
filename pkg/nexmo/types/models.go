package types

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Credentials identify the gateway account
type Credentials struct {
	Key    string
	Secret string
}

// RestCommand is one entry of the request template catalogue
type RestCommand struct {
	Name   string
	Method string
	// Path holds {name} placeholders; {k} and {s} are the credentials.
	Path string
	// FormBody commands carry their parameters and credentials as a
	// form-encoded body instead of in the URL.
	FormBody bool
}

// Request is a fully built gateway request
type Request struct {
	Command string
	Method  string
	URL     string
	Body    []byte
	Header  http.Header
}

// RawResponse is what the transport hands back
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// MessageStatus describes one part of a sent message
type MessageStatus struct {
	StatusCode       int             `json:"status_code"`
	StatusText       string          `json:"status_text"`
	ErrorText        string          `json:"error_text,omitempty"`
	MessageID        string          `json:"message_id,omitempty"`
	To               string          `json:"to,omitempty"`
	Network          string          `json:"network,omitempty"`
	RemainingBalance string          `json:"remaining_balance,omitempty"`
	Price            decimal.Decimal `json:"price"`
}

// OK reports whether the gateway accepted this part
func (s MessageStatus) OK() bool {
	return s.StatusCode == 0
}

// SendResult is the normalized answer to a send request
type SendResult struct {
	MessageCount int             `json:"message_count"`
	Messages     []MessageStatus `json:"messages"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// Delivered reports whether every part was accepted
func (r *SendResult) Delivered() bool {
	if r == nil || len(r.Messages) == 0 {
		return false
	}
	for _, m := range r.Messages {
		if !m.OK() {
			return false
		}
	}
	return true
}

// Number is an owned or purchasable virtual number
type Number struct {
	Country  string          `json:"country"`
	MSISDN   string          `json:"msisdn"`
	Type     string          `json:"type,omitempty"`
	Features []string        `json:"features,omitempty"`
	Cost     decimal.Decimal `json:"cost"`
}

// InboundMessage is a message delivered to one of the account's numbers
type InboundMessage struct {
	To          string `json:"to"`
	From        string `json:"from"`
	Text        string `json:"text"`
	NetworkCode string `json:"network_code,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
}

// ReceiptStatus is the delivery state reported by a receipt
type ReceiptStatus string

const (
	ReceiptDelivered ReceiptStatus = "DELIVERED"
	ReceiptExpired   ReceiptStatus = "EXPIRED"
	ReceiptFailed    ReceiptStatus = "FAILED"
	ReceiptBuffered  ReceiptStatus = "BUFFERED"
)

// Known reports whether the status is one the gateway documents
func (s ReceiptStatus) Known() bool {
	switch s {
	case ReceiptDelivered, ReceiptExpired, ReceiptFailed, ReceiptBuffered:
		return true
	}
	return false
}

// Receipt is a delivery receipt callback. Found is false when the payload
// did not carry a receipt; the other fields are then zero.
type Receipt struct {
	To           string        `json:"to"`
	From         string        `json:"from"`
	NetworkCode  string        `json:"network_code"`
	MessageID    string        `json:"message_id"`
	Status       ReceiptStatus `json:"status"`
	ReceivedTime time.Time     `json:"received_time"`
	Found        bool          `json:"found"`
}

// Bool returns a pointer to v, for optional flags such as the unicode override.
func Bool(v bool) *bool {
	return &v
}
