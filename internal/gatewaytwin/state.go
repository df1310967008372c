// Package gatewaytwin is an in-memory stand-in for the SMS gateway's REST
// API. It backs the client tests and the CLI sandbox mode.
package gatewaytwin

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Country is the outbound pricing of one destination country.
type Country struct {
	Code   string
	Name   string
	Prefix string
	Price  decimal.Decimal
}

// Number is a virtual number held by the twin.
type Number struct {
	Country  string
	MSISDN   string
	Type     string
	Features []string
	Cost     decimal.Decimal
}

// SentMessage is one accepted message part.
type SentMessage struct {
	ID       string
	From     string
	To       string
	Type     string
	Text     string
	Body     string
	UDH      string
	URL      string
	Title    string
	Validity string
	Part     int
	Price    decimal.Decimal
}

// State is the account the twin simulates.
type State struct {
	Key       string
	Secret    string
	Balance   decimal.Decimal
	Countries map[string]Country
	Owned     []Number
	Available []Number
}

// DefaultState returns a small account with credit, three priced
// countries, one owned number and a few for sale.
func DefaultState(key, secret string) State {
	sms := []string{"SMS"}
	return State{
		Key:     key,
		Secret:  secret,
		Balance: decimal.RequireFromString("10.00"),
		Countries: map[string]Country{
			"GB": {Code: "GB", Name: "United Kingdom", Prefix: "44", Price: decimal.RequireFromString("0.0333")},
			"US": {Code: "US", Name: "United States of America", Prefix: "1", Price: decimal.RequireFromString("0.0062")},
			"DE": {Code: "DE", Name: "Germany", Prefix: "49", Price: decimal.RequireFromString("0.0728")},
		},
		Owned: []Number{
			{Country: "GB", MSISDN: "447700900001", Type: "mobile-lvn", Features: sms, Cost: decimal.RequireFromString("0.50")},
		},
		Available: []Number{
			{Country: "GB", MSISDN: "447700900100", Type: "mobile-lvn", Features: sms, Cost: decimal.RequireFromString("0.50")},
			{Country: "GB", MSISDN: "447700900123", Type: "mobile-lvn", Features: sms, Cost: decimal.RequireFromString("0.50")},
			{Country: "US", MSISDN: "14155550100", Type: "landline", Features: sms, Cost: decimal.RequireFromString("0.90")},
		},
	}
}

// countryFor finds the destination country of msisdn by longest prefix.
func (s *State) countryFor(msisdn string) (Country, bool) {
	var best Country
	found := false
	for _, c := range s.Countries {
		if strings.HasPrefix(msisdn, c.Prefix) && len(c.Prefix) > len(best.Prefix) {
			best, found = c, true
		}
	}
	return best, found
}

func (s *State) search(country, pattern string) []Number {
	var out []Number
	for _, n := range s.Available {
		if n.Country == country && strings.Contains(n.MSISDN, pattern) {
			out = append(out, n)
		}
	}
	return out
}

func (s *State) buy(country, msisdn string) bool {
	for i, n := range s.Available {
		if n.Country == country && n.MSISDN == msisdn {
			s.Available = append(s.Available[:i], s.Available[i+1:]...)
			s.Owned = append(s.Owned, n)
			sortNumbers(s.Owned)
			return true
		}
	}
	return false
}

func (s *State) cancel(country, msisdn string) bool {
	for i, n := range s.Owned {
		if n.Country == country && n.MSISDN == msisdn {
			s.Owned = append(s.Owned[:i], s.Owned[i+1:]...)
			s.Available = append(s.Available, n)
			sortNumbers(s.Available)
			return true
		}
	}
	return false
}

func sortNumbers(numbers []Number) {
	sort.Slice(numbers, func(i, j int) bool { return numbers[i].MSISDN < numbers[j].MSISDN })
}
