// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package httpstack

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/nesv/factorix/internal/config"
	"github.com/nesv/factorix/internal/ferr"
)

// Retrier decorates a Client with an exponential-backoff retry policy.
type Retrier struct {
	delegate Client
	cfg      config.Retry
	log      *zap.Logger
}

// NewRetrier wraps delegate with cfg's backoff policy.
func NewRetrier(delegate Client, cfg config.Retry, log *zap.Logger) *Retrier {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Retrier{delegate: delegate, cfg: cfg, log: log}
}

// Do implements Client, retrying retryable failures with jittered
// exponential backoff until cfg.MaxAttempts is exhausted or ctx is done.
func (r *Retrier) Do(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		resp, err := r.delegate.Do(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		delay := backoff(r.cfg.Base, r.cfg.Cap, attempt)
		r.log.Debug("retrying request",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ferr.Wrap(ferr.KindCancelled, "request cancelled during retry backoff", ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// backoff computes D_n = min(cap, base*2^(n-1)) * U[0.5,1.5].
func backoff(base, capD time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d <= 0 || d > capD {
		d = capD
	}
	jitter := 0.5 + rand.Float64()
	return time.Duration(float64(d) * jitter)
}

// retryable classifies whether err should trigger another attempt:
// network timeout/connection failures and 5xx are retryable; URL
// errors, 4xx, and anything else are not.
func retryable(err error) bool {
	switch ferr.KindOf(err) {
	case ferr.KindNetworkTimeout, ferr.KindNetworkConnection, ferr.KindHTTPServer:
		return true
	default:
		return false
	}
}
