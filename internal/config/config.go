package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"nexmosms/internal/constants"
	apperrors "nexmosms/internal/errors"
	"nexmosms/internal/models"
	"nexmosms/internal/security"
	"nexmosms/internal/tracing"
	"nexmosms/internal/validation"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAPIKey    = apperrors.NewConfigError("gateway.api_key", "missing gateway API key")
	ErrMissingAPISecret = apperrors.NewConfigError("gateway.api_secret", "missing gateway API secret")
)

// Default returns a configuration with every optional field filled in.
func Default() *models.Config {
	return &models.Config{
		Gateway: models.GatewayConfig{
			BaseURL:    constants.DefaultBaseURL,
			TimeoutSec: constants.DefaultHTTPTimeoutSec,
		},
		Server: models.ServerConfig{
			Port:        constants.DefaultServerPort,
			InboundPath: constants.DefaultInboundPath,
			ReceiptPath: constants.DefaultReceiptPath,
		},
		Tracing:  tracing.DefaultTracingConfig(),
		LogLevel: constants.DefaultLogLevel,
	}
}

// LoadConfig reads a JSON or YAML file, chosen by extension, over the
// defaults, then applies environment overrides and validates the result.
func LoadConfig(path string) (*models.Config, error) {
	format, err := security.ValidateConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateConfigPath above
	if err != nil {
		return nil, err
	}

	config := Default()
	switch format {
	case "yaml":
		err = yaml.Unmarshal(file, config)
	default:
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidConfig, "failed to parse "+format+" config")
	}

	return Finalize(config)
}

// FromEnvironment builds a configuration from the defaults and the
// environment alone, for running without a config file.
func FromEnvironment() (*models.Config, error) {
	return Finalize(Default())
}

// Finalize fills zero values with defaults, applies environment overrides
// and validates.
func Finalize(c *models.Config) (*models.Config, error) {
	applyDefaults(c)
	applyEnvironmentOverrides(c)
	if err := validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func applyDefaults(c *models.Config) {
	d := Default()
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = d.Gateway.BaseURL
	}
	if c.Gateway.TimeoutSec <= 0 {
		c.Gateway.TimeoutSec = d.Gateway.TimeoutSec
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.InboundPath == "" {
		c.Server.InboundPath = d.Server.InboundPath
	}
	if c.Server.ReceiptPath == "" {
		c.Server.ReceiptPath = d.Server.ReceiptPath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = d.Tracing.ServiceName
	}
	if c.Tracing.ShutdownTimeoutSec <= 0 {
		c.Tracing.ShutdownTimeoutSec = d.Tracing.ShutdownTimeoutSec
	}
}

func applyEnvironmentOverrides(c *models.Config) {
	// Credentials belong in the environment rather than in files
	if key := os.Getenv(constants.EnvAPIKey); key != "" {
		c.Gateway.APIKey = key
	}
	if secret := os.Getenv(constants.EnvAPISecret); secret != "" {
		c.Gateway.APISecret = secret
	}
	if url := os.Getenv(constants.EnvBaseURL); url != "" {
		c.Gateway.BaseURL = url
	}
	if level := os.Getenv(constants.EnvLogLevel); level != "" {
		c.LogLevel = level
	}
}

func validate(c *models.Config) error {
	if strings.TrimSpace(c.Gateway.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(c.Gateway.APISecret) == "" {
		return ErrMissingAPISecret
	}
	if err := validation.ValidateBaseURL(c.Gateway.BaseURL); err != nil {
		return configError("gateway.base_url", err)
	}
	if err := validation.ValidateTimeout(c.Gateway.TimeoutSec, "timeout_sec"); err != nil {
		return configError("gateway.timeout_sec", err)
	}
	if err := validation.ValidateNumericRange(c.Server.Port, "port", 1, 65535); err != nil {
		return configError("server.port", err)
	}
	if err := validation.ValidateWebhookPath(c.Server.InboundPath, "inbound_path"); err != nil {
		return configError("server.inbound_path", err)
	}
	if err := validation.ValidateWebhookPath(c.Server.ReceiptPath, "receipt_path"); err != nil {
		return configError("server.receipt_path", err)
	}
	if c.Server.InboundPath == c.Server.ReceiptPath {
		return apperrors.NewConfigError("server.receipt_path", "inbound and receipt paths must differ")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return configError("log_level", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return configError("tracing", err)
	}
	return nil
}

func configError(key string, err error) error {
	return apperrors.Wrap(err, apperrors.ErrCodeInvalidConfig, "invalid "+key).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}
