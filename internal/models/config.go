package models

import (
	"nexmosms/internal/tracing"
)

// Config holds the application configuration
type Config struct {
	Gateway  GatewayConfig         `json:"gateway" yaml:"gateway"`
	Server   ServerConfig          `json:"server" yaml:"server"`
	Tracing  tracing.TracingConfig `json:"tracing" yaml:"tracing"`
	LogLevel string                `json:"log_level" yaml:"log_level"`
}

// GatewayConfig holds the SMS gateway account and endpoint
type GatewayConfig struct {
	BaseURL    string `json:"base_url" yaml:"base_url"`
	APIKey     string `json:"api_key" yaml:"api_key"`
	APISecret  string `json:"api_secret" yaml:"api_secret"`
	TimeoutSec int    `json:"timeout_sec" yaml:"timeout_sec"`
}

// ServerConfig holds the webhook receiver settings
type ServerConfig struct {
	Port        int    `json:"port" yaml:"port"`
	InboundPath string `json:"inbound_path" yaml:"inbound_path"`
	ReceiptPath string `json:"receipt_path" yaml:"receipt_path"`
	// AutoReply, when set, is sent back to every inbound message.
	AutoReply string `json:"auto_reply" yaml:"auto_reply"`
}
