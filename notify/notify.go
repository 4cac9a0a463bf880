// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package notify pushes finalized outcomes to requesters.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/builtin/oracle"
	"github.com/fluxprotocol/oracle/log"
)

var logger = log.WithContext("pkg", "notify")

type Notifier interface {
	Notify(ctx context.Context, n *oracle.Notification) error
}

// StatusError is a non 2xx webhook response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

type WebhookOptions struct {
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
}

// Webhook posts notifications as JSON to a fixed URL. Server errors and
// 429 are retried with exponential backoff, other 4xx are not.
type Webhook struct {
	url    string
	client *http.Client
	opts   WebhookOptions
}

func NewWebhook(url string, opts WebhookOptions) *Webhook {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxElapsedTime == 0 {
		opts.MaxElapsedTime = time.Minute
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

func (w *Webhook) Notify(ctx context.Context, n *oracle.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := w.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		_, _ = io.Copy(io.Discard, res.Body)

		switch {
		case res.StatusCode >= 200 && res.StatusCode < 300:
			return nil
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
			return &StatusError{res.StatusCode}
		default:
			return backoff.Permanent(&StatusError{res.StatusCode})
		}
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = w.opts.InitialInterval
	strategy.MaxElapsedTime = w.opts.MaxElapsedTime
	notify := func(err error, wait time.Duration) {
		logger.Debug("webhook failed, retrying", "request", n.RequestID, "attempt", attempt, "wait", wait, "err", err)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(strategy, w.opts.MaxRetries), ctx), notify); err != nil {
		return errors.Wrapf(err, "notify %s", w.url)
	}
	logger.Debug("webhook delivered", "request", n.RequestID, "attempts", attempt)
	return nil
}

// Multi notifies each notifier in turn. All of them are tried; the first error is returned.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n *oracle.Notification) error {
	var first error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			if first == nil {
				first = err
			} else {
				logger.Warn("notifier failed", "request", n.RequestID, "err", err)
			}
		}
	}
	return first
}
