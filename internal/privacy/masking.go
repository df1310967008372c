package privacy

import (
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// MaskPhoneNumber masks a phone number showing only the last 4 digits
// Example: "+447700900123" -> "+********0123"
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	if strings.HasPrefix(phone, "+") {
		if len(phone) == 1 {
			return phone
		}
		if len(phone) <= 5 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-5) + phone[len(phone)-4:]
	}

	return maskString(phone, 4)
}

// MaskOriginator masks numeric sender IDs like phone numbers and leaves
// alphanumeric brand names readable.
func MaskOriginator(from string) string {
	if isNumeric(strings.TrimPrefix(from, "+")) {
		return MaskPhoneNumber(from)
	}
	return from
}

// MaskMessageID shows the last 4 characters of a gateway message ID
func MaskMessageID(messageID string) string {
	return maskString(messageID, 4)
}

// MaskSecret hides a credential entirely but keeps its length visible
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return strings.Repeat("*", len(secret))
}

// MaskCredentialsInURL replaces the given key and secret wherever they
// appear in a request URL, including escaped forms.
func MaskCredentialsInURL(rawURL, key, secret string) string {
	out := rawURL
	for _, s := range []string{secret, key} {
		if s == "" {
			continue
		}
		masked := MaskSecret(s)
		out = strings.ReplaceAll(out, url.PathEscape(s), masked)
		out = strings.ReplaceAll(out, s, masked)
	}
	return out
}

// MaskFormBody masks credentials and phone numbers in a form-encoded body
func MaskFormBody(body []byte) string {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "[unparseable body]"
	}
	for k := range values {
		switch k {
		case "password", "username":
			values.Set(k, MaskSecret(values.Get(k)))
		case "to", "msisdn":
			values.Set(k, MaskPhoneNumber(values.Get(k)))
		case "from":
			values.Set(k, MaskOriginator(values.Get(k)))
		}
	}
	return values.Encode()
}

// maskString masks a string showing only the last n characters
func maskString(s string, keepLast int) string {
	if s == "" {
		return ""
	}

	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}

	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// MaskSensitiveFields applies appropriate masking to common logging fields
func MaskSensitiveFields(fields logrus.Fields) logrus.Fields {
	if fields == nil {
		return nil
	}

	masked := make(logrus.Fields, len(fields))
	for k, v := range fields {
		s, ok := v.(string)
		if !ok {
			masked[k] = v
			continue
		}
		switch k {
		case "to", "msisdn", "phone":
			masked[k] = MaskPhoneNumber(s)
		case "from":
			masked[k] = MaskOriginator(s)
		case "message_id", "messageId":
			masked[k] = MaskMessageID(s)
		case "api_key", "api_secret", "password", "secret":
			masked[k] = MaskSecret(s)
		default:
			masked[k] = v
		}
	}

	return masked
}
