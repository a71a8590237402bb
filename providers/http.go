// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package providers holds the HTTP adapters for the commercial and community
// place services.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jcodagnone/rideloc/location"
	"github.com/jcodagnone/rideloc/utils/httputils"
)

// DefaultUserAgent identifies requests when no other agent is configured.
const DefaultUserAgent = "rideloc/1.0"

// ClientOptions configure NewHTTPClient.
type ClientOptions struct {
	UserAgent string
	// Trace receives a redacted dump of every request and response when set.
	Trace     io.Writer
	TraceBody bool
	Timeout   time.Duration
	// MinInterval spaces requests apart. Zero or negative disables the limiter.
	MinInterval time.Duration
}

// NewHTTPClient builds the client used by the adapters.
func NewHTTPClient(opts ClientOptions) *http.Client {
	var transport http.RoundTripper = httputils.NewTransport()

	if opts.MinInterval > 0 {
		transport = httputils.NewRateLimitRoundTripper(transport, opts.MinInterval)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	transport = &httputils.AppendRequestHeadersRoundTripper{
		Transport: transport,
		Headers: map[string]string{
			"User-Agent": ua,
			"Accept":     "application/json",
		},
	}

	if opts.Trace != nil {
		transport = &httputils.LoggingRoundTripper{
			Transport: transport,
			Writer:    opts.Trace,
			DumpBody:  opts.TraceBody,
		}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{Transport: transport, Timeout: timeout}
}

// getJSON fetches rawURL and decodes the body into out, mapping every failure
// onto a *location.ProviderError.
func getJSON(ctx context.Context, client *http.Client, source location.Source, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return location.NewProviderError(location.ProviderTransportError, source, op, fmt.Errorf("creating request: %w", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return location.NewProviderError(location.ProviderTransportError, source, op, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)

		return location.ClassifyHTTPStatus(source, op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return location.NewProviderError(location.ProviderParseError, source, op, fmt.Errorf("decoding response: %w", err))
	}

	return nil
}

// credential reads key from store, turning absence into ProviderUnavailable.
func credential(ctx context.Context, store location.CredentialStore, key location.CredentialKey, source location.Source, op string) (string, error) {
	if store == nil {
		return "", location.NewProviderError(location.ProviderUnavailable, source, op, fmt.Errorf("no credential store"))
	}

	v, ok, err := store.Get(ctx, key)
	if err != nil {
		return "", location.NewProviderError(location.ProviderUnavailable, source, op, fmt.Errorf("reading %s: %w", key, err))
	}

	if !ok {
		return "", location.NewProviderError(location.ProviderUnavailable, source, op, fmt.Errorf("%s not configured", key))
	}

	return v, nil
}
