package nexmo

import (
	"net/http"
	"net/url"
	"strings"

	"nexmosms/pkg/nexmo/types"
)

// RequestBuilder turns a command template into a concrete request.
type RequestBuilder struct {
	baseURL string
}

// NewRequestBuilder returns a builder rooted at baseURL.
func NewRequestBuilder(baseURL string) *RequestBuilder {
	return &RequestBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// Build substitutes credentials and params into cmd. Placeholders without a
// matching parameter are left in place. Form-body commands get their params
// plus the credentials encoded into the body instead of the URL.
func (b *RequestBuilder) Build(cmd types.RestCommand, creds types.Credentials, params map[string]string) *types.Request {
	header := http.Header{}
	header.Set("Accept", types.ContentTypeJSON)

	req := &types.Request{
		Command: cmd.Name,
		Method:  cmd.Method,
		Header:  header,
	}

	if cmd.FormBody {
		form := url.Values{}
		for k, v := range params {
			form.Set(k, v)
		}
		form.Set(types.ParamUsername, creds.Key)
		form.Set(types.ParamPassword, creds.Secret)

		req.URL = b.baseURL + expandTemplate(cmd.Path, creds, nil)
		req.Body = []byte(form.Encode())
		header.Set("Content-Type", types.ContentTypeForm)
		return req
	}

	req.URL = b.baseURL + expandTemplate(cmd.Path, creds, params)
	return req
}

func expandTemplate(tmpl string, creds types.Credentials, params map[string]string) string {
	values := make(map[string]string, len(params)+2)
	for k, v := range params {
		values[k] = v
	}
	values[types.PlaceholderKey] = creds.Key
	values[types.PlaceholderSecret] = creds.Secret

	path, query, hasQuery := strings.Cut(tmpl, "?")
	path = substitute(path, values, url.PathEscape)
	if !hasQuery {
		return path
	}
	return path + "?" + substitute(query, values, url.QueryEscape)
}

func substitute(s string, values map[string]string, escape func(string) string) string {
	if !strings.Contains(s, "{") {
		return s
	}

	pairs := make([]string, 0, len(values)*2)
	for name, v := range values {
		pairs = append(pairs, "{"+name+"}", escape(v))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
