package nexmo

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Segment sizes for single and concatenated messages
const (
	gsmSingleLen  = 160
	gsmPartLen    = 153
	ucs2SingleLen = 70
	ucs2PartLen   = 67
)

// GSM 03.38 characters sent through the escape table, costing two septets.
const gsmExtended = "^{}\\[~]|€"

// RequiresUnicode decides whether text must be sent as a unicode message.
// An explicit override always wins; otherwise any code point above 127
// requires unicode.
func RequiresUnicode(message string, override *bool) bool {
	if override != nil {
		return *override
	}
	for _, r := range message {
		if r > 127 {
			return true
		}
	}
	return false
}

// EstimateParts returns how many SMS segments the gateway will bill for
// message when sent as text (GSM-7) or unicode (UCS-2).
func EstimateParts(message string, unicodeMessage bool) int {
	if message == "" {
		return 1
	}

	var units, single, part int
	if unicodeMessage {
		units, single, part = ucs2Units(message), ucs2SingleLen, ucs2PartLen
	} else {
		units, single, part = gsmSeptets(message), gsmSingleLen, gsmPartLen
	}

	if units <= single {
		return 1
	}
	return (units + part - 1) / part
}

func gsmSeptets(message string) int {
	n := 0
	for _, r := range message {
		if strings.ContainsRune(gsmExtended, r) {
			n += 2
			continue
		}
		n++
	}
	return n
}

func ucs2Units(message string) int {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	b, _, err := transform.Bytes(enc, []byte(message))
	if err != nil {
		// Invalid UTF-8 never reaches a send; count runes as a fallback.
		return utf8.RuneCountInString(message)
	}
	return len(b) / 2
}
