package types

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSendResult_Delivered(t *testing.T) {
	tests := []struct {
		name     string
		result   *SendResult
		expected bool
	}{
		{"nil result", nil, false},
		{"no parts", &SendResult{}, false},
		{"all parts accepted", &SendResult{Messages: []MessageStatus{{StatusCode: 0}, {StatusCode: 0}}}, true},
		{"one part rejected", &SendResult{Messages: []MessageStatus{{StatusCode: 0}, {StatusCode: 9, ErrorText: "Partner quota exceeded"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Delivered())
		})
	}
}

func TestMessageStatus_OK(t *testing.T) {
	assert.True(t, MessageStatus{StatusCode: 0, StatusText: "OK", Price: decimal.RequireFromString("0.05")}.OK())
	assert.False(t, MessageStatus{StatusCode: 2, StatusText: "Missing to param"}.OK())
}

func TestReceiptStatus_Known(t *testing.T) {
	for _, s := range []ReceiptStatus{ReceiptDelivered, ReceiptExpired, ReceiptFailed, ReceiptBuffered} {
		assert.True(t, s.Known(), string(s))
	}
	assert.False(t, ReceiptStatus("ACCEPTED").Known())
	assert.False(t, ReceiptStatus("").Known())
}

func TestValues_URLValuesSatisfiesInterface(t *testing.T) {
	var v Values = url.Values{"msisdn": {"447700900001"}}
	assert.True(t, v.Has("msisdn"))
	assert.Equal(t, "447700900001", v.Get("msisdn"))
	assert.False(t, v.Has("text"))
}

func TestBool(t *testing.T) {
	p := Bool(true)
	assert.NotNil(t, p)
	assert.True(t, *p)
	assert.False(t, *Bool(false))
}
