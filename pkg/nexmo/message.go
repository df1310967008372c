package nexmo

import (
	"context"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"nexmosms/internal/constants"
	apperrors "nexmosms/internal/errors"
	"nexmosms/internal/metrics"
	"nexmosms/internal/privacy"
	"nexmosms/internal/tracing"
	"nexmosms/pkg/nexmo/types"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// MessageClient sends SMS and keeps the most recent inbound message so it
// can be answered with Reply.
type MessageClient struct {
	gw *gateway

	mu      sync.Mutex
	inbound types.InboundMessage
	pending bool
	last    *types.SendResult
}

// NewMessageClient returns a client sending on behalf of creds.
func NewMessageClient(creds types.Credentials, baseURL string, opts ...Option) *MessageClient {
	return &MessageClient{gw: newGateway(creds, baseURL, opts...)}
}

// SendText sends a text message. A nil unicode lets the message content
// decide between a text and a unicode message.
func (c *MessageClient) SendText(ctx context.Context, to, from, message string, unicode *bool) (*types.SendResult, error) {
	if !utf8.ValidString(from) {
		return nil, apperrors.NewEncodingError("from")
	}
	if !utf8.ValidString(message) {
		return nil, apperrors.NewEncodingError("message")
	}

	useUnicode := RequiresUnicode(message, unicode)
	msgType := types.MessageTypeText
	if useUnicode {
		msgType = types.MessageTypeUnicode
	}

	c.gw.logger.WithFields(logrus.Fields{
		"to":    privacy.MaskPhoneNumber(to),
		"type":  msgType,
		"parts": EstimateParts(message, useUnicode),
	}).Debug("Sending text message")

	return c.send(ctx, msgType, map[string]string{
		types.ParamFrom: ValidateOriginator(from),
		types.ParamTo:   to,
		types.ParamText: message,
	})
}

// SendBinary sends a binary message. Body and UDH travel hex encoded.
func (c *MessageClient) SendBinary(ctx context.Context, to, from string, body, udh []byte) (*types.SendResult, error) {
	if !utf8.ValidString(from) {
		return nil, apperrors.NewEncodingError("from")
	}

	return c.send(ctx, types.MessageTypeBinary, map[string]string{
		types.ParamFrom: ValidateOriginator(from),
		types.ParamTo:   to,
		types.ParamBody: hex.EncodeToString(body),
		types.ParamUDH:  hex.EncodeToString(udh),
	})
}

// PushWap sends a WAP push link. A zero validity means 48 hours and a
// negative one is rejected; the gateway receives it in milliseconds.
func (c *MessageClient) PushWap(ctx context.Context, to, from, title, url string, validity time.Duration) (*types.SendResult, error) {
	if !utf8.ValidString(title) {
		return nil, apperrors.NewEncodingError("title")
	}
	if !utf8.ValidString(url) {
		return nil, apperrors.NewEncodingError("url")
	}
	if !utf8.ValidString(from) {
		return nil, apperrors.NewEncodingError("from")
	}
	if validity < 0 {
		return nil, apperrors.NewValidationError("validity", validity.String(), "must not be negative")
	}

	validityMs := validity.Milliseconds()
	if validity == 0 {
		validityMs = constants.DefaultWapValidityMs
	}

	return c.send(ctx, types.MessageTypeWapPush, map[string]string{
		types.ParamFrom:     ValidateOriginator(from),
		types.ParamTo:       to,
		types.ParamURL:      url,
		types.ParamTitle:    title,
		types.ParamValidity: strconv.FormatInt(validityMs, 10),
	})
}

// InboundText records an inbound message from a webhook payload and marks
// it pending for Reply. It reports false, changing nothing, when text,
// msisdn or to is missing.
func (c *MessageClient) InboundText(values types.Values) bool {
	msg, ok := ParseInbound(values)
	if !ok {
		return false
	}

	c.mu.Lock()
	c.inbound = msg
	c.pending = true
	c.mu.Unlock()

	c.gw.logger.WithFields(privacy.MaskSensitiveFields(logrus.Fields{
		"from":       msg.From,
		"to":         msg.To,
		"message_id": msg.MessageID,
	})).Debug("Inbound message recorded")
	return true
}

// Inbound returns the pending inbound message, if any.
func (c *MessageClient) Inbound() (types.InboundMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inbound, c.pending
}

// Reply answers the pending inbound message: it goes back to the sender,
// from the number the message was sent to.
func (c *MessageClient) Reply(ctx context.Context, message string) (*types.SendResult, error) {
	in, ok := c.Inbound()
	if !ok {
		return nil, apperrors.NewPreconditionError("reply", "no inbound message pending")
	}
	return c.SendText(ctx, in.From, in.To, message, nil)
}

// Last returns the most recent send result, or nil before the first send.
func (c *MessageClient) Last() *types.SendResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *MessageClient) send(ctx context.Context, msgType types.MessageType, params map[string]string) (*types.SendResult, error) {
	ctx, span := tracing.StartSpan(ctx, "message.Send", attribute.String("sms.type", string(msgType)))
	defer span.End()

	params[types.ParamType] = string(msgType)
	resp, err := c.gw.fetch(ctx, types.CommandSendSMS, params)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	result, err := parseSendResult(resp)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	c.mu.Lock()
	c.last = result
	c.mu.Unlock()

	cost, _ := result.TotalCost.Float64()
	labels := map[string]string{"type": string(msgType)}
	metrics.AddToCounter(metrics.SMSPartsSentTotal, float64(result.MessageCount), labels, "SMS parts reported by the gateway")
	metrics.SetGauge(metrics.SMSLastCost, cost, nil, "Total cost of the most recent send")
	span.SetAttributes(
		attribute.Int("sms.parts", result.MessageCount),
		attribute.String("sms.cost", result.TotalCost.String()),
	)

	for _, m := range result.Messages {
		if !m.OK() {
			c.gw.logger.WithFields(logrus.Fields{
				"to":     privacy.MaskPhoneNumber(m.To),
				"status": m.StatusCode,
				"error":  m.ErrorText,
			}).Warn("Gateway rejected message part")
		}
	}
	return result, nil
}

func parseSendResult(resp *Node) (*types.SendResult, error) {
	const command = types.CommandSendSMS

	messages, ok := resp.Field("messages")
	if !ok || messages.IsNull() {
		return nil, apperrors.NewNoDataError(command, "messages")
	}
	parts, ok := messages.Items()
	if !ok {
		return nil, malformed(command, "messages: expected a list, got %s", messages.Kind())
	}

	total, err := AggregateCost(parts)
	if err != nil {
		return nil, apperrors.NewMalformedResponseError(command, err)
	}

	result := &types.SendResult{
		MessageCount: len(parts),
		Messages:     make([]types.MessageStatus, 0, len(parts)),
		TotalCost:    total,
	}
	if count, ok := resp.Field("messagecount"); ok && !count.IsNull() {
		n, err := count.Int()
		if err != nil {
			return nil, malformed(command, "message-count: %w", err)
		}
		result.MessageCount = n
	}

	for i, part := range parts {
		if part.Kind() != KindMap {
			return nil, malformed(command, "message %d: expected an object, got %s", i, part.Kind())
		}

		statusNode, ok := part.Field("status")
		if !ok {
			return nil, malformed(command, "message %d: missing status", i)
		}
		code, err := statusNode.Int()
		if err != nil {
			return nil, malformed(command, "message %d: status: %w", i, err)
		}
		price, _ := partPrice(part)

		status := types.MessageStatus{
			StatusCode:       code,
			ErrorText:        stringField(part, "errortext"),
			MessageID:        stringField(part, "messageid"),
			To:               stringField(part, "to"),
			Network:          stringField(part, "network"),
			RemainingBalance: stringField(part, "remainingbalance"),
			Price:            price,
		}
		status.StatusText = "OK"
		if code != 0 {
			status.StatusText = status.ErrorText
		}
		result.Messages = append(result.Messages, status)
	}
	return result, nil
}
