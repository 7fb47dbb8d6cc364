// Package notification delivers alert emails and SMS messages. Senders
// report a boolean: true means the transport accepted the message, not that
// it was delivered. Failures are logged and contained here; they never
// propagate into the dispatch path.
package notification

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// EmailSender sends one alert email to one destination address.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body, imagePath string) bool
}

// SMSSender sends one alert SMS to the operator number.
type SMSSender interface {
	Send(ctx context.Context, camera, alertType, location string, confidence float64) bool
	Enabled() bool
}

const (
	retryMaxAttempts  = 3
	retryInitialDelay = time.Second
	retryMaxDelay     = 5 * time.Second
)

// sendWithRetry runs a transport call under exponential backoff. The retry
// budget is small: an alert grown stale is worse than a dropped channel.
func sendWithRetry(ctx context.Context, op func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialDelay
	bo.MaxInterval = retryMaxDelay

	return backoff.Retry(func() error {
		return op(ctx)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, retryMaxAttempts-1), ctx))
}
