package nexmo

import (
	"net/http"
	"net/url"
	"testing"

	"nexmosms/pkg/nexmo/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = types.Credentials{Key: "abc123", Secret: "s3cr3t"}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name   string
		method string
		path   string
		form   bool
	}{
		{types.CommandGetBalance, http.MethodGet, "/account/get-balance/{k}/{s}", false},
		{types.CommandGetPricing, http.MethodGet, "/account/get-pricing/outbound/{k}/{s}/{countryCode}", false},
		{types.CommandGetOwnNumbers, http.MethodGet, "/account/numbers/{k}/{s}", false},
		{types.CommandSearchNumbers, http.MethodGet, "/number/search/{k}/{s}/{countryCode}?pattern={pattern}", false},
		{types.CommandBuyNumber, http.MethodPost, "/number/buy/{k}/{s}/{countryCode}/{msisdn}", false},
		{types.CommandCancelNumber, http.MethodPost, "/number/cancel/{k}/{s}/{countryCode}/{msisdn}", false},
		{types.CommandSendSMS, http.MethodPost, "/sms/json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := r.Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.method, cmd.Method)
			assert.Equal(t, tt.path, cmd.Path)
			assert.Equal(t, tt.form, cmd.FormBody)
		})
	}

	assert.Len(t, r.Names(), len(tests))
	_, ok := r.Lookup("deleteAccount")
	assert.False(t, ok)
}

func TestNewRegistry_LaterEntryWins(t *testing.T) {
	r := NewRegistry(
		types.RestCommand{Name: "x", Method: http.MethodGet, Path: "/one"},
		types.RestCommand{Name: "x", Method: http.MethodGet, Path: "/two"},
	)
	cmd, ok := r.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "/two", cmd.Path)
	assert.Equal(t, []string{"x"}, r.Names())
}

func TestBuild_PathTemplates(t *testing.T) {
	b := NewRequestBuilder("https://rest.nexmo.com/")
	r := DefaultRegistry()

	tests := []struct {
		name    string
		command string
		params  map[string]string
		wantURL string
	}{
		{
			name:    "balance",
			command: types.CommandGetBalance,
			wantURL: "https://rest.nexmo.com/account/get-balance/abc123/s3cr3t",
		},
		{
			name:    "pricing",
			command: types.CommandGetPricing,
			params:  map[string]string{types.ParamCountryCode: "GB"},
			wantURL: "https://rest.nexmo.com/account/get-pricing/outbound/abc123/s3cr3t/GB",
		},
		{
			name:    "search with query",
			command: types.CommandSearchNumbers,
			params:  map[string]string{types.ParamCountryCode: "GB", types.ParamPattern: "77 00"},
			wantURL: "https://rest.nexmo.com/number/search/abc123/s3cr3t/GB?pattern=77+00",
		},
		{
			name:    "buy",
			command: types.CommandBuyNumber,
			params:  map[string]string{types.ParamCountryCode: "GB", types.ParamMSISDN: "447700900100"},
			wantURL: "https://rest.nexmo.com/number/buy/abc123/s3cr3t/GB/447700900100",
		},
		{
			name:    "missing placeholder stays literal",
			command: types.CommandGetPricing,
			wantURL: "https://rest.nexmo.com/account/get-pricing/outbound/abc123/s3cr3t/{countryCode}",
		},
		{
			name:    "path value is escaped",
			command: types.CommandGetPricing,
			params:  map[string]string{types.ParamCountryCode: "G/B"},
			wantURL: "https://rest.nexmo.com/account/get-pricing/outbound/abc123/s3cr3t/G%2FB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := r.Lookup(tt.command)
			require.True(t, ok)

			req := b.Build(cmd, testCreds, tt.params)
			assert.Equal(t, tt.wantURL, req.URL)
			assert.Equal(t, cmd.Method, req.Method)
			assert.Equal(t, tt.command, req.Command)
			assert.Nil(t, req.Body)
			assert.Equal(t, types.ContentTypeJSON, req.Header.Get("Accept"))
			assert.Empty(t, req.Header.Get("Content-Type"))
		})
	}
}

func TestBuild_FormBody(t *testing.T) {
	b := NewRequestBuilder("https://rest.nexmo.com")
	cmd, ok := DefaultRegistry().Lookup(types.CommandSendSMS)
	require.True(t, ok)

	req := b.Build(cmd, testCreds, map[string]string{
		types.ParamFrom: "TestSender",
		types.ParamTo:   "447700900000",
		types.ParamText: "hi & bye",
		types.ParamType: "text",
	})

	assert.Equal(t, "https://rest.nexmo.com/sms/json", req.URL)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, types.ContentTypeForm, req.Header.Get("Content-Type"))
	assert.Equal(t, types.ContentTypeJSON, req.Header.Get("Accept"))

	form, err := url.ParseQuery(string(req.Body))
	require.NoError(t, err)
	assert.Equal(t, "TestSender", form.Get("from"))
	assert.Equal(t, "447700900000", form.Get("to"))
	assert.Equal(t, "hi & bye", form.Get("text"), "values are encoded exactly once")
	assert.Equal(t, "text", form.Get("type"))
	assert.Equal(t, "abc123", form.Get("username"))
	assert.Equal(t, "s3cr3t", form.Get("password"))
}
