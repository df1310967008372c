package nexmo

import (
	"context"
	"strings"
	"sync"

	apperrors "nexmosms/internal/errors"
	"nexmosms/internal/metrics"
	"nexmosms/internal/tracing"
	"nexmosms/pkg/nexmo/types"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// Cache keys of the account memo
const (
	cacheKeyBalance = "balance"
	cacheKeyPricing = "pricing:"
	cacheKeyNumbers = "numbers"
)

// AccountClient queries balance, pricing and number inventory. Balance,
// pricing and the owned number list are memoized for the lifetime of the
// client; nothing ever invalidates them.
type AccountClient struct {
	gw *gateway

	mu    sync.Mutex
	cache map[string]*Node
	group singleflight.Group
}

// NewAccountClient returns a client for the account behind creds.
func NewAccountClient(creds types.Credentials, baseURL string, opts ...Option) *AccountClient {
	return &AccountClient{
		gw:    newGateway(creds, baseURL, opts...),
		cache: make(map[string]*Node),
	}
}

// Balance returns the account's remaining credit.
func (c *AccountClient) Balance(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := tracing.StartSpan(ctx, "account.Balance")
	defer span.End()

	value, err := c.cached(ctx, cacheKeyBalance, types.CommandGetBalance, nil, func(n *Node) (*Node, error) {
		v, ok := n.Field("value")
		if !ok || v.IsNull() {
			return nil, apperrors.NewNoDataError(types.CommandGetBalance, "value")
		}
		if _, err := v.Decimal(); err != nil {
			return nil, malformed(types.CommandGetBalance, "value: %w", err)
		}
		return v, nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return decimal.Zero, err
	}

	balance, _ := value.Decimal()
	return balance, nil
}

// SMSPricing returns the outbound SMS price for a country.
func (c *AccountClient) SMSPricing(ctx context.Context, countryCode string) (decimal.Decimal, error) {
	ctx, span := tracing.StartSpan(ctx, "account.SMSPricing", attribute.String("country", countryCode))
	defer span.End()

	pricing, err := c.pricing(ctx, countryCode)
	if err != nil {
		tracing.RecordError(span, err)
		return decimal.Zero, err
	}

	mt, ok := pricing.Field("mt")
	if !ok || mt.IsNull() {
		err := apperrors.NewNoDataError(types.CommandGetPricing, "mt")
		tracing.RecordError(span, err)
		return decimal.Zero, err
	}
	price, _ := mt.Decimal()
	return price, nil
}

// DialingCode returns the international dialing prefix for a country. It
// shares the cached pricing payload with SMSPricing.
func (c *AccountClient) DialingCode(ctx context.Context, countryCode string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "account.DialingCode", attribute.String("country", countryCode))
	defer span.End()

	pricing, err := c.pricing(ctx, countryCode)
	if err != nil {
		tracing.RecordError(span, err)
		return "", err
	}

	prefix, ok := pricing.Field("prefix")
	if !ok || prefix.IsNull() {
		err := apperrors.NewNoDataError(types.CommandGetPricing, "prefix")
		tracing.RecordError(span, err)
		return "", err
	}
	code, _ := prefix.Str()
	return code, nil
}

func (c *AccountClient) pricing(ctx context.Context, countryCode string) (*Node, error) {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	params := map[string]string{types.ParamCountryCode: cc}

	return c.cached(ctx, cacheKeyPricing+cc, types.CommandGetPricing, params, func(n *Node) (*Node, error) {
		if n.Kind() != KindMap {
			return nil, malformed(types.CommandGetPricing, "expected an object, got %s", n.Kind())
		}
		if mt, ok := n.Field("mt"); ok && !mt.IsNull() {
			if _, err := mt.Decimal(); err != nil {
				return nil, malformed(types.CommandGetPricing, "mt: %w", err)
			}
		}
		return n, nil
	})
}

// NumbersList returns the numbers the account owns. An account without
// numbers yields an empty slice.
func (c *AccountClient) NumbersList(ctx context.Context) ([]types.Number, error) {
	ctx, span := tracing.StartSpan(ctx, "account.NumbersList")
	defer span.End()

	list, err := c.cached(ctx, cacheKeyNumbers, types.CommandGetOwnNumbers, nil, func(n *Node) (*Node, error) {
		numbers, ok := n.Field("numbers")
		if !ok || numbers.IsNull() {
			return &Node{kind: KindList}, nil
		}
		if numbers.Kind() != KindList {
			return nil, malformed(types.CommandGetOwnNumbers, "numbers: expected a list, got %s", numbers.Kind())
		}
		if _, err := parseNumbers(types.CommandGetOwnNumbers, numbers); err != nil {
			return nil, err
		}
		return numbers, nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	return parseNumbers(types.CommandGetOwnNumbers, list)
}

// NumbersSearch lists purchasable numbers in a country whose MSISDN
// matches pattern. Results are never cached.
func (c *AccountClient) NumbersSearch(ctx context.Context, countryCode, pattern string) ([]types.Number, error) {
	ctx, span := tracing.StartSpan(ctx, "account.NumbersSearch", attribute.String("country", countryCode))
	defer span.End()

	params := map[string]string{
		types.ParamCountryCode: strings.ToUpper(strings.TrimSpace(countryCode)),
		types.ParamPattern:     pattern,
	}
	resp, err := c.gw.fetch(ctx, types.CommandSearchNumbers, params)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	numbers, ok := resp.Field("numbers")
	if !ok || numbers.IsNull() {
		err := apperrors.NewNoDataError(types.CommandSearchNumbers, "numbers")
		tracing.RecordError(span, err)
		return nil, err
	}

	found, err := parseNumbers(types.CommandSearchNumbers, numbers)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return found, nil
}

// NumbersBuy purchases msisdn. Success means the gateway answered 200.
func (c *AccountClient) NumbersBuy(ctx context.Context, countryCode, msisdn string) error {
	return c.numberChange(ctx, "account.NumbersBuy", types.CommandBuyNumber, countryCode, msisdn)
}

// NumbersCancel releases msisdn. Success means the gateway answered 200.
func (c *AccountClient) NumbersCancel(ctx context.Context, countryCode, msisdn string) error {
	return c.numberChange(ctx, "account.NumbersCancel", types.CommandCancelNumber, countryCode, msisdn)
}

func (c *AccountClient) numberChange(ctx context.Context, spanName, command, countryCode, msisdn string) error {
	ctx, span := tracing.StartSpan(ctx, spanName, attribute.String("country", countryCode))
	defer span.End()

	params := map[string]string{
		types.ParamCountryCode: strings.ToUpper(strings.TrimSpace(countryCode)),
		types.ParamMSISDN:      msisdn,
	}
	if err := c.gw.confirm(ctx, command, params); err != nil {
		tracing.RecordError(span, err)
		return err
	}
	return nil
}

// cached returns the memoized fragment for key, fetching and extracting it
// on a miss. Concurrent misses for one key share a single request, which
// runs detached from any one caller's cancellation; each caller still stops
// waiting when its own ctx is done. Failed fetches are not stored.
func (c *AccountClient) cached(ctx context.Context, key, command string, params map[string]string, extract func(*Node) (*Node, error)) (*Node, error) {
	label := map[string]string{"key": cacheLabel(key)}

	if n, ok := c.lookup(key); ok {
		metrics.IncrementCounter(metrics.AccountCacheHitsTotal, label, "Account lookups served from memory")
		return n, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if n, ok := c.lookup(key); ok {
			return n, nil
		}
		metrics.IncrementCounter(metrics.AccountCacheMissTotal, label, "Account lookups that reached the gateway")

		resp, err := c.gw.fetch(shared, command, params)
		if err != nil {
			return nil, err
		}
		fragment, err := extract(resp)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = fragment
		c.mu.Unlock()
		return fragment, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewTransportError(command, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Node), nil
	}
}

func (c *AccountClient) lookup(key string) (*Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.cache[key]
	return n, ok
}

func cacheLabel(key string) string {
	name, _, _ := strings.Cut(key, ":")
	return name
}

func parseNumbers(command string, list *Node) ([]types.Number, error) {
	items, ok := list.Items()
	if !ok {
		return nil, malformed(command, "numbers: expected a list, got %s", list.Kind())
	}

	numbers := make([]types.Number, 0, len(items))
	for i, item := range items {
		if item.Kind() != KindMap {
			return nil, malformed(command, "number %d: expected an object, got %s", i, item.Kind())
		}

		n := types.Number{
			Country: stringField(item, "country"),
			MSISDN:  stringField(item, "msisdn"),
			Type:    stringField(item, "type"),
			Cost:    decimal.Zero,
		}
		if features, ok := item.Field("features"); ok {
			values, _ := features.Items()
			for _, f := range values {
				if s, ok := f.Str(); ok {
					n.Features = append(n.Features, s)
				}
			}
		}
		if cost, ok := item.Field("cost"); ok && !cost.IsNull() {
			d, err := cost.Decimal()
			if err != nil {
				return nil, malformed(command, "number %d: cost: %w", i, err)
			}
			n.Cost = d
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

func stringField(n *Node, key string) string {
	f, ok := n.Field(key)
	if !ok {
		return ""
	}
	s, _ := f.Str()
	return s
}
