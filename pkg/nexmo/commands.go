package nexmo

import (
	"net/http"
	"sort"

	"nexmosms/pkg/nexmo/types"
)

// Registry is an immutable catalogue of REST command templates.
type Registry struct {
	commands map[string]types.RestCommand
}

// NewRegistry builds a registry from the given commands. Later entries with
// the same name replace earlier ones.
func NewRegistry(commands ...types.RestCommand) Registry {
	m := make(map[string]types.RestCommand, len(commands))
	for _, c := range commands {
		m[c.Name] = c
	}
	return Registry{commands: m}
}

// DefaultRegistry returns the gateway's REST catalogue.
func DefaultRegistry() Registry {
	return NewRegistry(
		types.RestCommand{Name: types.CommandGetBalance, Method: http.MethodGet, Path: "/account/get-balance/{k}/{s}"},
		types.RestCommand{Name: types.CommandGetPricing, Method: http.MethodGet, Path: "/account/get-pricing/outbound/{k}/{s}/{countryCode}"},
		types.RestCommand{Name: types.CommandGetOwnNumbers, Method: http.MethodGet, Path: "/account/numbers/{k}/{s}"},
		types.RestCommand{Name: types.CommandSearchNumbers, Method: http.MethodGet, Path: "/number/search/{k}/{s}/{countryCode}?pattern={pattern}"},
		types.RestCommand{Name: types.CommandBuyNumber, Method: http.MethodPost, Path: "/number/buy/{k}/{s}/{countryCode}/{msisdn}"},
		types.RestCommand{Name: types.CommandCancelNumber, Method: http.MethodPost, Path: "/number/cancel/{k}/{s}/{countryCode}/{msisdn}"},
		types.RestCommand{Name: types.CommandSendSMS, Method: http.MethodPost, Path: "/sms/json", FormBody: true},
	)
}

// Lookup returns the named command.
func (r Registry) Lookup(name string) (types.RestCommand, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Names lists the registered command names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
