package nexmo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "nexmosms/internal/errors"
	"nexmosms/internal/privacy"
	"nexmosms/pkg/nexmo/types"

	"github.com/sirupsen/logrus"
)

// Option customizes a client at construction.
type Option func(*gateway)

// WithLogger sets the logger; the default logs warnings only.
func WithLogger(logger *logrus.Logger) Option {
	return func(g *gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRegistry replaces the REST command catalogue.
func WithRegistry(r Registry) Option {
	return func(g *gateway) {
		g.registry = r
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t types.Transport) Option {
	return func(g *gateway) {
		if t != nil {
			g.transport = t
		}
	}
}

// gateway is the request pipeline shared by the account and message
// clients: lookup, build, send, decode.
type gateway struct {
	creds     types.Credentials
	registry  Registry
	builder   *RequestBuilder
	transport types.Transport
	logger    *logrus.Logger
	errLog    *apperrors.Logger
}

func newGateway(creds types.Credentials, baseURL string, opts ...Option) *gateway {
	g := &gateway{
		creds:    creds,
		registry: DefaultRegistry(),
		builder:  NewRequestBuilder(baseURL),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logrus.New()
		g.logger.SetLevel(logrus.WarnLevel)
	}
	if g.transport == nil {
		g.transport = NewHTTPTransport(nil, g.logger)
	}
	g.errLog = apperrors.WrapLogger(g.logger)
	return g
}

// call builds and sends the named command. Only a failure to get any
// answer is an error here; the status code is left to the caller.
func (g *gateway) call(ctx context.Context, name string, params map[string]string) (*types.RawResponse, error) {
	cmd, ok := g.registry.Lookup(name)
	if !ok {
		return nil, apperrors.NewValidationError("command", name, "unknown command")
	}

	req := g.builder.Build(cmd, g.creds, params)
	g.logger.WithFields(logrus.Fields{
		"command": name,
		"method":  req.Method,
		"url":     privacy.MaskCredentialsInURL(req.URL, g.creds.Key, g.creds.Secret),
	}).Debug("Calling gateway")

	resp, err := g.transport.Send(ctx, req)
	if err != nil {
		appErr := apperrors.NewTransportError(name, err)
		g.errLog.LogRetryableError(appErr, "Gateway request failed")
		return nil, appErr
	}
	return resp, nil
}

// fetch calls a data-returning command and decodes its body. A non-2xx
// answer is a rejection; an empty body is no data.
func (g *gateway) fetch(ctx context.Context, name string, params map[string]string) (*Node, error) {
	resp, err := g.call(ctx, name, params)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperrors.NewRejectedError(name, resp.StatusCode)
	}

	node, err := Decode(resp.Body)
	if errors.Is(err, errEmptyBody) {
		return nil, apperrors.NewNoDataError(name, "body")
	}
	if err != nil {
		return nil, apperrors.NewMalformedResponseError(name, err)
	}
	return node, nil
}

// confirm calls a fire-and-confirm command: HTTP 200 is success whatever
// the body says.
func (g *gateway) confirm(ctx context.Context, name string, params map[string]string) error {
	resp, err := g.call(ctx, name, params)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.NewRejectedError(name, resp.StatusCode)
	}
	return nil
}

func malformed(command string, format string, args ...interface{}) error {
	return apperrors.NewMalformedResponseError(command, fmt.Errorf(format, args...))
}
