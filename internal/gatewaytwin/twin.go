package gatewaytwin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"nexmosms/internal/privacy"
	"nexmosms/pkg/nexmo"
	"nexmosms/pkg/nexmo/types"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Fault replaces the answer of one command with a fixed status and body.
type Fault struct {
	StatusCode int
	Body       string
}

// Twin serves the gateway's REST catalogue from in-memory state.
type Twin struct {
	mu     sync.Mutex
	state  State
	sent   []SentMessage
	nextID int
	counts map[string]int
	faults map[string]Fault
	logger *logrus.Logger
	router chi.Router
}

// New returns a twin holding state. A nil logger logs warnings only.
func New(state State, logger *logrus.Logger) *Twin {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	t := &Twin{
		state:  state,
		counts: make(map[string]int),
		faults: make(map[string]Fault),
		logger: logger,
	}
	t.router = t.routes()
	return t
}

// ServeHTTP makes the twin an http.Handler.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.router.ServeHTTP(w, r)
}

func (t *Twin) routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/account", func(r chi.Router) {
		r.With(t.track(types.CommandGetBalance), t.auth).
			Get("/get-balance/{key}/{secret}", t.handleBalance)
		r.With(t.track(types.CommandGetPricing), t.auth).
			Get("/get-pricing/outbound/{key}/{secret}/{country}", t.handlePricing)
		r.With(t.track(types.CommandGetOwnNumbers), t.auth).
			Get("/numbers/{key}/{secret}", t.handleOwnNumbers)
	})

	r.Route("/number", func(r chi.Router) {
		r.With(t.track(types.CommandSearchNumbers), t.auth).
			Get("/search/{key}/{secret}/{country}", t.handleSearch)
		r.With(t.track(types.CommandBuyNumber), t.auth).
			Post("/buy/{key}/{secret}/{country}/{msisdn}", t.handleBuy)
		r.With(t.track(types.CommandCancelNumber), t.auth).
			Post("/cancel/{key}/{secret}/{country}/{msisdn}", t.handleCancel)
	})

	r.With(t.track(types.CommandSendSMS)).Post("/sms/json", t.handleSend)

	return r
}

// SetFault makes every later call of command answer with f.
func (t *Twin) SetFault(command string, f Fault) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.faults[command] = f
}

// ClearFaults removes all injected faults.
func (t *Twin) ClearFaults() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.faults = make(map[string]Fault)
}

// Count returns how many requests reached command.
func (t *Twin) Count(command string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[command]
}

// Sent returns every message part accepted so far.
func (t *Twin) Sent() []SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SentMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

// Balance returns the current simulated credit.
func (t *Twin) Balance() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Balance
}

// Owned lists the MSISDNs the account currently holds.
func (t *Twin) Owned() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.state.Owned))
	for _, n := range t.state.Owned {
		out = append(out, n.MSISDN)
	}
	return out
}

// track counts the request and applies any fault set for command.
func (t *Twin) track(command string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.mu.Lock()
			t.counts[command]++
			fault, faulted := t.faults[command]
			t.mu.Unlock()

			if faulted {
				w.Header().Set("Content-Type", types.ContentTypeJSON)
				w.WriteHeader(fault.StatusCode)
				fmt.Fprint(w, fault.Body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (t *Twin) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.validCredentials(chi.URLParam(r, "key"), chi.URLParam(r, "secret")) {
			t.logger.WithField("url", privacy.MaskCredentialsInURL(r.URL.Path, chi.URLParam(r, "key"), chi.URLParam(r, "secret"))).
				Warn("Twin rejected credentials")
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error-code":       "401",
				"error-code-label": "authentication failed",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *Twin) validCredentials(key, secret string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return key == t.state.Key && secret == t.state.Secret
}

func (t *Twin) handleBalance(w http.ResponseWriter, r *http.Request) {
	t.mu.Lock()
	balance := t.state.Balance
	t.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"value":      json.Number(balance.String()),
		"autoReload": false,
	})
}

func (t *Twin) handlePricing(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "country"))

	t.mu.Lock()
	c, ok := t.state.Countries[code]
	t.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"country": code})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"country": c.Code,
		"name":    c.Name,
		"prefix":  c.Prefix,
		"mt":      c.Price.StringFixed(8),
	})
}

func (t *Twin) handleOwnNumbers(w http.ResponseWriter, r *http.Request) {
	t.mu.Lock()
	owned := append([]Number(nil), t.state.Owned...)
	t.mu.Unlock()

	writeJSON(w, http.StatusOK, numbersBody(owned))
}

func (t *Twin) handleSearch(w http.ResponseWriter, r *http.Request) {
	country := strings.ToUpper(chi.URLParam(r, "country"))
	pattern := r.URL.Query().Get("pattern")

	t.mu.Lock()
	found := t.state.search(country, pattern)
	t.mu.Unlock()

	writeJSON(w, http.StatusOK, numbersBody(found))
}

func (t *Twin) handleBuy(w http.ResponseWriter, r *http.Request) {
	t.mu.Lock()
	ok := t.state.buy(strings.ToUpper(chi.URLParam(r, "country")), chi.URLParam(r, "msisdn"))
	t.mu.Unlock()

	writeNumberChange(w, ok)
}

func (t *Twin) handleCancel(w http.ResponseWriter, r *http.Request) {
	t.mu.Lock()
	ok := t.state.cancel(strings.ToUpper(chi.URLParam(r, "country")), chi.URLParam(r, "msisdn"))
	t.mu.Unlock()

	writeNumberChange(w, ok)
}

// handleSend mimics /sms/json: the HTTP status is always 200 and each
// part carries its own status code.
func (t *Twin) handleSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error-code": "400", "error-code-label": "bad request"})
		return
	}
	form := r.PostForm

	if !t.validCredentials(form.Get(types.ParamUsername), form.Get(types.ParamPassword)) {
		writeJSON(w, http.StatusOK, rejected(form.Get(types.ParamTo), 4, "Bad Credentials"))
		return
	}
	for _, field := range []string{types.ParamFrom, types.ParamTo} {
		if form.Get(field) == "" {
			writeJSON(w, http.StatusOK, rejected(form.Get(types.ParamTo), 2, "Missing "+field+" param"))
			return
		}
	}

	msgType := form.Get(types.ParamType)
	parts := 1
	switch types.MessageType(msgType) {
	case types.MessageTypeText, types.MessageTypeUnicode:
		if form.Get(types.ParamText) == "" {
			writeJSON(w, http.StatusOK, rejected(form.Get(types.ParamTo), 2, "Missing text param"))
			return
		}
		parts = nexmo.EstimateParts(form.Get(types.ParamText), msgType == string(types.MessageTypeUnicode))
	case types.MessageTypeBinary:
		if form.Get(types.ParamBody) == "" {
			writeJSON(w, http.StatusOK, rejected(form.Get(types.ParamTo), 2, "Missing body param"))
			return
		}
	case types.MessageTypeWapPush:
		if form.Get(types.ParamURL) == "" || form.Get(types.ParamTitle) == "" {
			writeJSON(w, http.StatusOK, rejected(form.Get(types.ParamTo), 2, "Missing url or title param"))
			return
		}
	default:
		writeJSON(w, http.StatusOK, rejected(form.Get(types.ParamTo), 3, "Invalid type param"))
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	to := form.Get(types.ParamTo)
	country, ok := t.state.countryFor(to)
	if !ok {
		writeJSON(w, http.StatusOK, rejected(to, 6, "Invalid message"))
		return
	}

	messages := make([]map[string]any, 0, parts)
	for i := 0; i < parts; i++ {
		if t.state.Balance.LessThan(country.Price) {
			messages = append(messages, map[string]any{
				"to":         to,
				"status":     "9",
				"error-text": "Partner quota exceeded",
			})
			continue
		}

		t.nextID++
		t.state.Balance = t.state.Balance.Sub(country.Price)
		sent := SentMessage{
			ID:       fmt.Sprintf("0A%014X", t.nextID),
			From:     form.Get(types.ParamFrom),
			To:       to,
			Type:     msgType,
			Text:     form.Get(types.ParamText),
			Body:     form.Get(types.ParamBody),
			UDH:      form.Get(types.ParamUDH),
			URL:      form.Get(types.ParamURL),
			Title:    form.Get(types.ParamTitle),
			Validity: form.Get(types.ParamValidity),
			Part:     i + 1,
			Price:    country.Price,
		}
		t.sent = append(t.sent, sent)

		messages = append(messages, map[string]any{
			"to":                to,
			"message-id":        sent.ID,
			"status":            "0",
			"remaining-balance": t.state.Balance.StringFixed(8),
			"message-price":     country.Price.StringFixed(8),
			"network":           country.Prefix + "001",
		})
	}

	t.logger.WithFields(logrus.Fields{
		"to":    privacy.MaskPhoneNumber(to),
		"type":  msgType,
		"parts": parts,
	}).Debug("Twin accepted message")

	writeJSON(w, http.StatusOK, map[string]any{
		"message-count": strconv.Itoa(len(messages)),
		"messages":      messages,
	})
}

func rejected(to string, status int, text string) map[string]any {
	return map[string]any{
		"message-count": "1",
		"messages": []map[string]any{{
			"to":         to,
			"status":     strconv.Itoa(status),
			"error-text": text,
		}},
	}
}

// numbersBody leaves out the numbers field when there are none, as the
// gateway does.
func numbersBody(numbers []Number) map[string]any {
	body := map[string]any{"count": len(numbers)}
	if len(numbers) == 0 {
		return body
	}

	list := make([]map[string]any, 0, len(numbers))
	for _, n := range numbers {
		list = append(list, map[string]any{
			"country":  n.Country,
			"msisdn":   n.MSISDN,
			"type":     n.Type,
			"features": n.Features,
			"cost":     n.Cost.StringFixed(2),
		})
	}
	body["numbers"] = list
	return body
}

func writeNumberChange(w http.ResponseWriter, ok bool) {
	if !ok {
		writeJSON(w, 420, map[string]any{"error-code": "420", "error-code-label": "method failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"error-code": "200", "error-code-label": "success"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", types.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Twin failed to encode response")
	}
}
