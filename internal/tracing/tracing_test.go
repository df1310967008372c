package tracing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()

	assert.True(t, strings.HasPrefix(a, "req_"))
	assert.Len(t, a, len("req_")+36)
	assert.NotEqual(t, a, b)
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req_abc")
	assert.Equal(t, "req_abc", GetRequestID(ctx))
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetRequestID(ctx))

	same, again := EnsureRequestID(ctx)
	assert.Equal(t, id, again)
	assert.Equal(t, id, GetRequestID(same))
}

func TestDuration(t *testing.T) {
	assert.Zero(t, Duration(context.Background()))

	ctx := WithStartTime(context.Background(), time.Now().Add(-50*time.Millisecond))
	assert.GreaterOrEqual(t, Duration(ctx), 50*time.Millisecond)
}
