package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IncrementCounter(t *testing.T) {
	registry := NewRegistry()

	registry.IncrementCounter(GatewayRequestsTotal, nil, "Gateway requests")
	counters := registry.GetAllMetrics().Counters
	require.Contains(t, counters, GatewayRequestsTotal)
	assert.Equal(t, float64(1), counters[GatewayRequestsTotal].Value)

	labels := map[string]string{"command": "getBalance", "status": "2xx"}
	registry.IncrementCounter(GatewayRequestsTotal, labels, "Gateway requests")
	registry.IncrementCounter(GatewayRequestsTotal, labels, "Gateway requests")

	key := "gateway_requests_total_command:getBalance_status:2xx"
	counters = registry.GetAllMetrics().Counters
	require.Contains(t, counters, key)
	assert.Equal(t, float64(2), counters[key].Value)
	assert.Equal(t, float64(2), registry.CounterValue(GatewayRequestsTotal, labels))
	assert.Equal(t, float64(0), registry.CounterValue("unknown", nil))
}

func TestRegistry_LabelOrderIsStable(t *testing.T) {
	registry := NewRegistry()
	a := map[string]string{"a": "1", "b": "2", "c": "3"}
	b := map[string]string{"c": "3", "b": "2", "a": "1"}

	registry.IncrementCounter("x", a, "")
	registry.IncrementCounter("x", b, "")

	assert.Len(t, registry.GetAllMetrics().Counters, 1)
	assert.Equal(t, float64(2), registry.CounterValue("x", a))
}

func TestRegistry_AddToCounter(t *testing.T) {
	registry := NewRegistry()
	registry.AddToCounter(SMSPartsSentTotal, 3, nil, "")
	registry.AddToCounter(SMSPartsSentTotal, 2, nil, "")

	assert.Equal(t, float64(5), registry.CounterValue(SMSPartsSentTotal, nil))
}

func TestRegistry_RecordTimer(t *testing.T) {
	registry := NewRegistry()

	for i := 1; i <= 20; i++ {
		registry.RecordTimer(GatewayRequestDuration, time.Duration(i)*time.Millisecond, nil, "")
	}

	timer := registry.GetAllMetrics().Timers[GatewayRequestDuration]
	assert.Equal(t, int64(20), timer.Count)
	assert.Equal(t, float64(1), timer.Min)
	assert.Equal(t, float64(20), timer.Max)
	assert.InDelta(t, 10.5, timer.Average, 0.0001)
	assert.Equal(t, float64(20), timer.P95)
	assert.Equal(t, float64(20), timer.P99)
}

func TestRegistry_SetGauge(t *testing.T) {
	registry := NewRegistry()
	registry.SetGauge(SMSLastCost, 0.1, nil, "")
	registry.SetGauge(SMSLastCost, 0.05, nil, "")

	gauges := registry.GetAllMetrics().Gauges
	assert.Equal(t, 0.05, gauges[SMSLastCost].Value)
	assert.Equal(t, Gauge, gauges[SMSLastCost].Type)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.IncrementCounter(WebhookReceivedTotal, map[string]string{"kind": "receipt"}, "")
			registry.RecordTimer(GatewayRequestDuration, time.Millisecond, nil, "")
			_ = registry.GetAllMetrics()
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(50), registry.CounterValue(WebhookReceivedTotal, map[string]string{"kind": "receipt"}))
}

func TestGlobalRegistry(t *testing.T) {
	before := GetRegistry().CounterValue(AccountCacheHitsTotal, nil)
	IncrementCounter(AccountCacheHitsTotal, nil, "")
	assert.Equal(t, before+1, GetRegistry().CounterValue(AccountCacheHitsTotal, nil))

	snapshot := GetAllMetrics()
	assert.GreaterOrEqual(t, snapshot.UptimeMs, int64(0))
}
