package nexmo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"nexmosms/internal/constants"
	"nexmosms/internal/metrics"
	"nexmosms/internal/privacy"
	"nexmosms/internal/tracing"
	"nexmosms/pkg/nexmo/types"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// HTTPTransport sends requests with a standard http.Client.
type HTTPTransport struct {
	client *http.Client
	logger *logrus.Logger
}

// NewHTTPTransport wraps client; a nil client gets the default timeout.
func NewHTTPTransport(client *http.Client, logger *logrus.Logger) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: constants.DefaultHTTPTimeoutSec * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &HTTPTransport{client: client, logger: logger}
}

// Send executes req and returns the status and body. Only failures to
// complete the exchange are errors; any HTTP status is a response.
func (t *HTTPTransport) Send(ctx context.Context, req *types.Request) (*types.RawResponse, error) {
	ctx, span := tracing.StartClientSpan(ctx, "gateway."+req.Command,
		attribute.String("http.method", req.Method),
		attribute.String("gateway.command", req.Command),
	)
	defer span.End()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		metrics.IncrementCounter(metrics.GatewayErrorsTotal, map[string]string{"command": req.Command}, "Gateway requests that failed to complete")
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseBytes))
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	labels := map[string]string{"command": req.Command, "status": statusClass(resp.StatusCode)}
	metrics.IncrementCounter(metrics.GatewayRequestsTotal, labels, "Gateway requests by command and status class")
	metrics.RecordTimer(metrics.GatewayRequestDuration, elapsed, map[string]string{"command": req.Command}, "Gateway round trip time")
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	entry := t.logger.WithFields(logrus.Fields{
		"command":     req.Command,
		"status":      resp.StatusCode,
		"duration_ms": elapsed.Milliseconds(),
		"bytes":       len(data),
	})
	if req.Body != nil {
		entry = entry.WithField("form", privacy.MaskFormBody(req.Body))
	}
	entry.Debug("Gateway request completed")

	return &types.RawResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
