package constants

// Gateway defaults
const (
	DefaultBaseURL        = "https://rest.nexmo.com"
	DefaultHTTPTimeoutSec = 30
	// DefaultWapValidityMs is how long a WAP push stays valid (48 hours)
	DefaultWapValidityMs = 172800000
	MaxResponseBytes     = 4 << 20
)

// Webhook server defaults
const (
	DefaultServerPort            = 8082
	DefaultInboundPath           = "/webhook/inbound"
	DefaultReceiptPath           = "/webhook/receipt"
	DefaultGracefulShutdownSec   = 30
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	MaxWebhookBodyBytes          = 64 << 10
)

// Logging defaults
const (
	DefaultLogLevel = "info"
)

// Environment variables that override file configuration
const (
	EnvAPIKey    = "NEXMO_API_KEY"
	EnvAPISecret = "NEXMO_API_SECRET"
	EnvBaseURL   = "NEXMO_BASE_URL"
	EnvLogLevel  = "NEXMO_LOG_LEVEL"
)
