package gatewaytwin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"nexmosms/pkg/nexmo/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwin() *Twin {
	return New(DefaultState("abc123", "s3cr3t"), nil)
}

func serve(t *testing.T, twin *Twin, method, target string, form url.Values) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", types.ContentTypeForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	twin.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func sendForm(to, text string) url.Values {
	return url.Values{
		types.ParamUsername: {"abc123"},
		types.ParamPassword: {"s3cr3t"},
		types.ParamFrom:     {"Acme"},
		types.ParamTo:       {to},
		types.ParamType:     {string(types.MessageTypeText)},
		types.ParamText:     {text},
	}
}

func TestTwin_Credentials(t *testing.T) {
	twin := newTestTwin()

	code, body := serve(t, twin, http.MethodGet, "/account/get-balance/abc123/wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "401", body["error-code"])
	assert.Equal(t, 1, twin.Count(types.CommandGetBalance), "rejected calls are still counted")

	code, body = serve(t, twin, http.MethodGet, "/account/get-balance/abc123/s3cr3t", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 10.0, body["value"])
}

func TestTwin_Pricing(t *testing.T) {
	twin := newTestTwin()

	_, body := serve(t, twin, http.MethodGet, "/account/get-pricing/outbound/abc123/s3cr3t/de", nil)
	assert.Equal(t, "49", body["prefix"])
	assert.Equal(t, "0.07280000", body["mt"])

	_, body = serve(t, twin, http.MethodGet, "/account/get-pricing/outbound/abc123/s3cr3t/ZZ", nil)
	assert.Equal(t, map[string]any{"country": "ZZ"}, body)
}

func TestTwin_NumbersLifecycle(t *testing.T) {
	twin := newTestTwin()

	_, body := serve(t, twin, http.MethodGet, "/number/search/abc123/s3cr3t/US", nil)
	assert.Len(t, body["numbers"], 1)

	_, body = serve(t, twin, http.MethodGet, "/number/search/abc123/s3cr3t/DE", nil)
	assert.NotContains(t, body, "numbers")

	code, _ := serve(t, twin, http.MethodPost, "/number/buy/abc123/s3cr3t/US/14155550100", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"14155550100", "447700900001"}, twin.Owned())

	code, _ = serve(t, twin, http.MethodPost, "/number/buy/abc123/s3cr3t/US/14155550100", nil)
	assert.Equal(t, 420, code)

	code, _ = serve(t, twin, http.MethodPost, "/number/cancel/abc123/s3cr3t/US/14155550100", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"447700900001"}, twin.Owned())
}

func TestTwin_SendStatuses(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		status string
	}{
		{"accepted", sendForm("447700900555", "hi"), "0"},
		{"bad credentials", func() url.Values { f := sendForm("447700900555", "hi"); f.Set(types.ParamPassword, "x"); return f }(), "4"},
		{"missing from", func() url.Values { f := sendForm("447700900555", "hi"); f.Del(types.ParamFrom); return f }(), "2"},
		{"missing text", sendForm("447700900555", ""), "2"},
		{"invalid type", func() url.Values { f := sendForm("447700900555", "hi"); f.Set(types.ParamType, "fax"); return f }(), "3"},
		{"unknown country", sendForm("999700900555", "hi"), "6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, newTestTwin(), http.MethodPost, "/sms/json", tt.form)
			assert.Equal(t, http.StatusOK, code, "sends always answer 200")
			messages := body["messages"].([]any)
			require.Len(t, messages, 1)
			assert.Equal(t, tt.status, messages[0].(map[string]any)["status"])
		})
	}
}

func TestTwin_SendChargesEachPart(t *testing.T) {
	state := DefaultState("abc123", "s3cr3t")
	state.Balance = decimal.RequireFromString("0.05")
	twin := New(state, nil)

	// 200 GSM characters need two concatenated parts; only one is affordable.
	_, body := serve(t, twin, http.MethodPost, "/sms/json", sendForm("447700900555", strings.Repeat("a", 200)))

	assert.Equal(t, "2", body["message-count"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "0", first["status"])
	assert.Equal(t, "0.03330000", first["message-price"])
	assert.Equal(t, "44001", first["network"])
	assert.Equal(t, "9", messages[1].(map[string]any)["status"])

	assert.Equal(t, "0.0167", twin.Balance().String())
	require.Len(t, twin.Sent(), 1)
	assert.Equal(t, 1, twin.Sent()[0].Part)
}

func TestTwin_Faults(t *testing.T) {
	twin := newTestTwin()
	twin.SetFault(types.CommandGetBalance, Fault{StatusCode: http.StatusServiceUnavailable, Body: `{"error":"down"}`})

	code, body := serve(t, twin, http.MethodGet, "/account/get-balance/abc123/s3cr3t", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "down", body["error"])

	twin.ClearFaults()
	code, _ = serve(t, twin, http.MethodGet, "/account/get-balance/abc123/s3cr3t", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCountryFor_LongestPrefix(t *testing.T) {
	state := DefaultState("k", "s")
	state.Countries["XX"] = Country{Code: "XX", Prefix: "4477", Price: decimal.NewFromInt(1)}

	c, ok := state.countryFor("447700900555")
	require.True(t, ok)
	assert.Equal(t, "XX", c.Code)

	c, ok = state.countryFor("441234")
	require.True(t, ok)
	assert.Equal(t, "GB", c.Code)

	_, ok = state.countryFor("999")
	assert.False(t, ok)
}
