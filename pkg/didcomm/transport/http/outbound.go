/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/transport"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryInterval = 500 * time.Millisecond
	defaultMaxRetries    = 3
)

var logger = log.New("aries-framework/transport/http")

// outboundCommHTTPOpts holds options for the HTTP transport implementation of OutboundTransport.
type outboundCommHTTPOpts struct {
	client        *http.Client
	retryInterval time.Duration
	maxRetries    uint64
}

// OutboundHTTPOpt is an outbound HTTP transport option.
type OutboundHTTPOpt func(opts *outboundCommHTTPOpts)

// WithOutboundHTTPClient option is for creating an Outbound HTTP transport using an http.Client instance.
func WithOutboundHTTPClient(client *http.Client) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.client = client
	}
}

// WithOutboundTimeout option is for creating an Outbound HTTP transport using a client timeout value.
func WithOutboundTimeout(timeout time.Duration) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		if opts.client != nil {
			opts.client.Timeout = timeout
		}
	}
}

// WithOutboundTLSConfig option is for creating an Outbound HTTP transport using a tls.Config instance.
func WithOutboundTLSConfig(tlsConfig *tls.Config) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.client = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: tlsConfig,
			},
		}
	}
}

// WithOutboundRetry sets how often a failed post is retried and the interval between two attempts.
// Requests rejected with a 4xx status are not retried.
func WithOutboundRetry(maxRetries uint64, interval time.Duration) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.maxRetries = maxRetries
		opts.retryInterval = interval
	}
}

// OutboundHTTPClient represents the Outbound HTTP transport instance.
type OutboundHTTPClient struct {
	client        *http.Client
	retryInterval time.Duration
	maxRetries    uint64
}

var _ transport.OutboundTransport = (*OutboundHTTPClient)(nil)

// NewOutbound creates a new instance of Outbound HTTP transport to Post messages to other Agents.
func NewOutbound(opts ...OutboundHTTPOpt) (*OutboundHTTPClient, error) {
	clOpts := &outboundCommHTTPOpts{
		client:        &http.Client{Timeout: defaultTimeout},
		retryInterval: defaultRetryInterval,
		maxRetries:    defaultMaxRetries,
	}
	// Apply options
	for _, opt := range opts {
		opt(clOpts)
	}

	if clOpts.client == nil {
		return nil, errors.New("creating an outbound transport without an HTTP client")
	}

	return &OutboundHTTPClient{
		client:        clOpts.client,
		retryInterval: clOpts.retryInterval,
		maxRetries:    clOpts.maxRetries,
	}, nil
}

// Send posts the plaintext message to the agent at url.
func (cs *OutboundHTTPClient) Send(ctx context.Context, data []byte, url string) error {
	if url == "" {
		return errors.New("http outbound: empty destination url")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cs.retryInterval), cs.maxRetries), ctx)

	return backoff.RetryNotify(func() error {
		return cs.post(ctx, data, url)
	}, policy, func(err error, next time.Duration) {
		logger.Warnf("HTTP Transport - post to agent at [%s] failed, retrying in %s: %v", url, next, err)
	})
}

func (cs *OutboundHTTPClient) post(ctx context.Context, data []byte, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("http outbound: new request: %w", err))
	}

	req.Header.Set("Content-Type", transport.MediaTypeV1PlaintextPayload)

	resp, err := cs.client.Do(req)
	if err != nil {
		logger.Errorf("HTTP Transport - Error posting didcomm message to agent at [%s]: %v", url, err)

		return fmt.Errorf("http outbound: post: %w", err)
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Errorf("HTTP Transport - Error closing response body: %v", e)
		}
	}()

	// drain the body so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body) // nolint: errcheck

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return backoff.Permanent(fmt.Errorf("http outbound: agent at [%s] rejected the message: %s", url, resp.Status))
	default:
		return fmt.Errorf("http outbound: non success status from agent at [%s]: %s", url, resp.Status)
	}
}
