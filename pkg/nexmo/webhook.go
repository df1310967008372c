package nexmo

import (
	"strings"
	"time"

	"nexmosms/pkg/nexmo/types"
)

// ParseInbound extracts an inbound message from a webhook payload. It
// reports false when text, msisdn or to is missing.
func ParseInbound(values types.Values) (types.InboundMessage, bool) {
	for _, field := range []string{types.FieldText, types.FieldMSISDN, types.FieldTo} {
		if !values.Has(field) {
			return types.InboundMessage{}, false
		}
	}

	return types.InboundMessage{
		To:          values.Get(types.FieldTo),
		From:        values.Get(types.FieldMSISDN),
		Text:        values.Get(types.FieldText),
		NetworkCode: values.Get(types.FieldNetworkCode),
		MessageID:   values.Get(types.FieldMessageID),
	}, true
}

// ParseReceipt extracts a delivery receipt. A payload without msisdn,
// network-code and messageId is not a receipt; the result then has Found
// false and no other fields set.
func ParseReceipt(values types.Values) types.Receipt {
	for _, field := range []string{types.FieldMSISDN, types.FieldNetworkCode, types.FieldMessageID} {
		if !values.Has(field) {
			return types.Receipt{}
		}
	}

	r := types.Receipt{
		To:          values.Get(types.FieldMSISDN),
		From:        values.Get(types.FieldTo),
		NetworkCode: values.Get(types.FieldNetworkCode),
		MessageID:   values.Get(types.FieldMessageID),
		Status:      types.ReceiptStatus(strings.ToUpper(strings.TrimSpace(values.Get(types.FieldStatus)))),
		Found:       true,
	}

	// An unreadable timestamp leaves ReceivedTime zero.
	if scts := strings.TrimSpace(values.Get(types.FieldSCTS)); scts != "" {
		if t, err := time.ParseInLocation(types.SCTSLayout, scts, time.UTC); err == nil {
			r.ReceivedTime = t
		}
	}
	return r
}
