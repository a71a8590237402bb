// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

// dummyRoundTripper is useful to simulate a response.
type dummyRoundTripper struct {
	response *http.Response
	calls    int
}

func (d *dummyRoundTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	d.calls++
	if d.response != nil {
		return d.response, nil
	}

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

//////////////////////////////////
// Test LoggingRoundTripper

// TestLoggingRoundTripper verifies that the LoggingRoundTripper logs both the request and
// the response (including timing information).
func TestLoggingRoundTripper(t *testing.T) {
	var logBuffer bytes.Buffer

	drt := &dummyRoundTripper{
		response: &http.Response{
			Status:     "200 OK",
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("response body")),
		},
	}

	lt := &LoggingRoundTripper{
		Transport: drt,
		Writer:    &logBuffer,
		DumpBody:  true,
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/abc?query=karachi&key=SECRET123", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	_, err = lt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	logContent := logBuffer.String()
	if !strings.Contains(logContent, "> GET /abc") {
		t.Errorf("log does not contain request info. Got: %s", logContent)
	}

	if strings.Contains(logContent, "SECRET123") {
		t.Errorf("log leaks the api key. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "< RESPONSE: [") {
		t.Errorf("log does not contain response header with timing info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "response body") {
		t.Errorf("log does not contain response body. Got: %s", logContent)
	}

	if req.URL.Query().Get("key") != "SECRET123" {
		t.Errorf("the original request was modified: %s", req.URL)
	}
}

func TestLoggingRoundTripperWithoutWriter(t *testing.T) {
	drt := &dummyRoundTripper{}
	lt := &LoggingRoundTripper{Transport: drt}

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if _, err := lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if drt.calls != 1 {
		t.Errorf("expected 1 call, got %d", drt.calls)
	}
}

func TestRedactURL(t *testing.T) {
	u, _ := url.Parse("https://api.mapbox.com/x.json?access_token=abc&limit=20")
	got := RedactURL(u)

	if got.Query().Get("access_token") != "***" {
		t.Errorf("token not redacted: %s", got)
	}

	if got.Query().Get("limit") != "20" {
		t.Errorf("other params must survive: %s", got)
	}

	if u.Query().Get("access_token") != "abc" {
		t.Errorf("input was modified: %s", u)
	}
}

//////////////////////////////////
// Test AppendRequestHeadersRoundTripper

// dummyHeadersRoundTripper is used to verify that the headers are added.
type dummyHeadersRoundTripper struct {
	lastRequest *http.Request
}

func (d *dummyHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	dummy := &dummyHeadersRoundTripper{}

	atr := &AppendRequestHeadersRoundTripper{
		Transport: dummy,
		Headers: map[string]string{
			"User-Agent": "rideloc/test (ops@example.com)",
		},
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	_, err = atr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if dummy.lastRequest == nil {
		t.Fatalf("dummy transport did not receive any request")
	}

	if got := dummy.lastRequest.Header.Get("User-Agent"); got != "rideloc/test (ops@example.com)" {
		t.Errorf("expected User-Agent to be set, but got '%s'", got)
	}
}

//////////////////////////////////
// Test RateLimitRoundTripper

func TestRateLimitRoundTripper(t *testing.T) {
	drt := &dummyRoundTripper{}
	rl := NewRateLimitRoundTripper(drt, 50*time.Millisecond)

	start := time.Now()

	for range 3 {
		req, _ := http.NewRequest(http.MethodGet, "http://example.org", nil)
		if _, err := rl.RoundTrip(req); err != nil {
			t.Fatalf("RoundTrip returned error: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("expected requests to be spaced out, took %v", elapsed)
	}

	if drt.calls != 3 {
		t.Errorf("expected 3 calls, got %d", drt.calls)
	}
}

func TestRateLimitRoundTripperHonoursContext(t *testing.T) {
	drt := &dummyRoundTripper{}
	rl := NewRateLimitRoundTripper(drt, time.Hour)

	req, _ := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if _, err := rl.RoundTrip(req); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	req, _ = http.NewRequestWithContext(ctx, http.MethodGet, "http://example.org", nil)
	if _, err := rl.RoundTrip(req); err == nil {
		t.Fatalf("expected the limiter to give up once the context expires")
	}

	if drt.calls != 1 {
		t.Errorf("expected 1 call, got %d", drt.calls)
	}
}
