package types

// Command names of the gateway REST catalogue
const (
	CommandGetBalance    = "getBalance"
	CommandGetPricing    = "getPricing"
	CommandGetOwnNumbers = "getOwnNumbers"
	CommandSearchNumbers = "searchNumbers"
	CommandBuyNumber     = "buyNumber"
	CommandCancelNumber  = "cancelNumber"
	CommandSendSMS       = "sendSMS"
)

// Placeholders substituted into every URL template
const (
	PlaceholderKey    = "k"
	PlaceholderSecret = "s"
)

// Call parameter names
const (
	ParamCountryCode = "countryCode"
	ParamPattern     = "pattern"
	ParamMSISDN      = "msisdn"
	ParamFrom        = "from"
	ParamTo          = "to"
	ParamText        = "text"
	ParamType        = "type"
	ParamBody        = "body"
	ParamUDH         = "udh"
	ParamURL         = "url"
	ParamTitle       = "title"
	ParamValidity    = "validity"
	ParamUsername    = "username"
	ParamPassword    = "password"
)

// MessageType is the value of the send request's type field
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeUnicode MessageType = "unicode"
	MessageTypeBinary  MessageType = "binary"
	MessageTypeWapPush MessageType = "wappush"
)

// Content types used on the wire
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Webhook payload field names
const (
	FieldText        = "text"
	FieldMSISDN      = "msisdn"
	FieldTo          = "to"
	FieldNetworkCode = "network-code"
	FieldMessageID   = "messageId"
	FieldStatus      = "status"
	FieldSCTS        = "scts"
)

// SCTSLayout is the receipt timestamp layout (yyMMddHHmm)
const SCTSLayout = "0601021504"
