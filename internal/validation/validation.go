package validation

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"nexmosms/internal/errors"
)

// MSISDN length bounds (E.164 allows at most 15 digits)
const (
	MinMSISDNLength = 7
	MaxMSISDNLength = 15
)

// ValidateMSISDN validates a destination number: digits only, an optional
// leading '+', and E.164 length.
func ValidateMSISDN(msisdn string) error {
	if msisdn == "" {
		return errors.NewValidationError("msisdn", msisdn, "phone number cannot be empty")
	}

	cleaned := strings.TrimPrefix(msisdn, "+")
	if len(cleaned) < MinMSISDNLength {
		return errors.NewValidationError("msisdn", msisdn,
			fmt.Sprintf("phone number must be at least %d digits", MinMSISDNLength))
	}
	if len(cleaned) > MaxMSISDNLength {
		return errors.NewValidationError("msisdn", msisdn,
			fmt.Sprintf("phone number too long (max %d digits)", MaxMSISDNLength))
	}

	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] < '0' || cleaned[i] > '9' {
			return errors.NewValidationError("msisdn", msisdn, "phone number must contain only digits")
		}
	}
	return nil
}

// ValidateCountryCode validates an ISO 3166-1 alpha-2 code in either case.
func ValidateCountryCode(code string) error {
	if len(code) != 2 {
		return errors.NewValidationError("country", code, "country code must be two letters")
	}
	for i := 0; i < 2; i++ {
		c := code[i] | 0x20
		if c < 'a' || c > 'z' {
			return errors.NewValidationError("country", code, "country code must be two letters")
		}
	}
	return nil
}

// ValidateBaseURL requires an absolute http(s) URL.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.NewValidationError("base_url", raw, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewValidationError("base_url", raw, "URL scheme must be http or https")
	}
	if u.Host == "" {
		return errors.NewValidationError("base_url", raw, "URL must include a host")
	}
	return nil
}

// ValidateWebhookPath requires an absolute URL path.
func ValidateWebhookPath(path, fieldName string) error {
	if !strings.HasPrefix(path, "/") {
		return errors.NewValidationError(fieldName, path, "path must start with '/'")
	}
	return nil
}

// ValidateHTTPRequestSize validates incoming HTTP request size
func ValidateHTTPRequestSize(r *http.Request, maxSizeBytes int64) error {
	if r.ContentLength > maxSizeBytes {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("request too large: %d bytes (max %d bytes)", r.ContentLength, maxSizeBytes))
	}

	return nil
}

// ValidateStringLength validates string length against bounds
func ValidateStringLength(value, fieldName string, minLength, maxLength int) error {
	if len(value) < minLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too short (min %d characters)", fieldName, minLength))
	}

	if len(value) > maxLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too long (max %d characters)", fieldName, maxLength))
	}

	return nil
}

// ValidateNumericRange validates numeric values against bounds
func ValidateNumericRange(value int, fieldName string, min, max int) error {
	if value < min {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too small (min %d)", fieldName, min))
	}

	if value > max {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max %d)", fieldName, max))
	}

	return nil
}

// ValidateTimeout validates timeout values
func ValidateTimeout(timeoutSec int, fieldName string) error {
	if timeoutSec < 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s must be at least 1 second", fieldName))
	}

	if timeoutSec > 3600 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max 3600 seconds)", fieldName))
	}

	return nil
}
