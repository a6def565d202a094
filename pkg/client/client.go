/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

const DefaultTimeout = 30 * time.Second

// apiError is the wire form of a store error response.
type apiError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Client is the REST client for the torc store. All workflow state lives
// behind it; the client itself is stateless apart from connection pooling.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithBasicAuth attaches credentials to every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// New creates a store client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    32,
				MaxConnsPerHost: 16,
				IdleConnTimeout: 1 * time.Minute,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured store base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get issues a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post issues a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// put issues a PUT request with a JSON body and decodes the response.
func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// delete issues a DELETE request.
func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// do performs one request against the store. Transport failures surface as
// coded transport errors and are never retried here; retry policy belongs to
// the watcher.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	operation := fmt.Sprintf("%s %s", method, path)
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return torcerrors.NewInternalError(fmt.Sprintf("failed to encode request body for %s: %s", operation, err))
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return torcerrors.NewTransportFailure(operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	rsp, err := c.http.Do(req)
	if err != nil {
		return torcerrors.NewTransportFailure(operation, err)
	}
	defer rsp.Body.Close()
	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return torcerrors.NewTransportFailure(operation, err)
	}
	if rsp.StatusCode >= http.StatusBadRequest {
		return convertStatusError(operation, rsp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return torcerrors.NewTransportFailure(operation, err)
		}
	}
	return nil
}

// basicAuthHeader renders credentials as an Authorization header value.
func basicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// convertStatusError maps a non-2xx store response onto the torc error
// taxonomy, preserving the server's error code when it carries one.
func convertStatusError(operation string, status int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorMessage != "" {
		if status == http.StatusNotFound {
			return torcerrors.NewNotFound("entity", apiErr.ErrorMessage)
		}
		e := torcerrors.NewInternalError(apiErr.ErrorMessage)
		if apiErr.ErrorCode != "" {
			e.Code = apiErr.ErrorCode
		}
		return e.WithField("operation", operation).WithField("http_status", status)
	}
	if status == http.StatusNotFound {
		return torcerrors.NewNotFound("entity", operation)
	}
	klog.V(4).Infof("store returned status %d for %s: %s", status, operation, string(body))
	return torcerrors.NewTransportFailure(operation,
		fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body))))
}
