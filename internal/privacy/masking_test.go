package privacy

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestMaskPhoneNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"+", "+"},
		{"+1234", "+****"},
		{"+447700900123", "+********0123"},
		{"447700900123", "********0123"},
		{"123", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskPhoneNumber(tt.input))
		})
	}
}

func TestMaskOriginator(t *testing.T) {
	assert.Equal(t, "TestSender", MaskOriginator("TestSender"))
	assert.Equal(t, "********0123", MaskOriginator("447700900123"))
	assert.Equal(t, "+********0123", MaskOriginator("+447700900123"))
}

func TestMaskMessageID(t *testing.T) {
	assert.Equal(t, "************C3D4", MaskMessageID("0A0000000123C3D4"))
	assert.Equal(t, "", MaskMessageID(""))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "******", MaskSecret("s3cr3t"))
}

func TestMaskCredentialsInURL(t *testing.T) {
	raw := "https://rest.nexmo.com/account/get-balance/abc123/s3cr3t"
	assert.Equal(t, "https://rest.nexmo.com/account/get-balance/******/******", MaskCredentialsInURL(raw, "abc123", "s3cr3t"))

	escaped := "https://rest.nexmo.com/account/numbers/key/a%2Fb"
	assert.Equal(t, "https://rest.nexmo.com/account/numbers/***/***", MaskCredentialsInURL(escaped, "key", "a/b"))
}

func TestMaskFormBody(t *testing.T) {
	body := []byte("from=TestSender&password=s3cr3t&text=hi&to=447700900000&type=text&username=abc123")

	masked := MaskFormBody(body)

	assert.Contains(t, masked, "password=%2A%2A%2A%2A%2A%2A")
	assert.Contains(t, masked, "username=%2A%2A%2A%2A%2A%2A")
	assert.Contains(t, masked, "from=TestSender")
	assert.Contains(t, masked, "to=%2A%2A%2A%2A%2A%2A%2A%2A0000")
	assert.Contains(t, masked, "text=hi")
	assert.NotContains(t, masked, "s3cr3t")
}

func TestMaskSensitiveFields(t *testing.T) {
	fields := logrus.Fields{
		"to":         "447700900000",
		"from":       "TestSender",
		"message_id": "0A0000000123C3D4",
		"api_secret": "s3cr3t",
		"count":      2,
		"command":    "sendSMS",
	}

	masked := MaskSensitiveFields(fields)

	assert.Equal(t, "********0000", masked["to"])
	assert.Equal(t, "TestSender", masked["from"])
	assert.Equal(t, "************C3D4", masked["message_id"])
	assert.Equal(t, "******", masked["api_secret"])
	assert.Equal(t, 2, masked["count"])
	assert.Equal(t, "sendSMS", masked["command"])
	assert.Nil(t, MaskSensitiveFields(nil))
}
