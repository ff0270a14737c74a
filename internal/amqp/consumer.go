package amqp

import (
	"context"
	"log/slog"
	"time"
)

// ConsumeWithReconnect keeps a consumer alive across broker restarts:
// it dials, consumes until the connection drops, then re-dials with
// exponential backoff. It returns only when the context is cancelled or
// a non-connection error occurs.
func ConsumeWithReconnect(ctx context.Context, url, exchangeName, queueName string, handler func(*MonthChangedMessage) error) error {
	for attempt := 0; ; attempt++ {
		client, err := NewClient(url, exchangeName, queueName)
		if err != nil {
			wait := exponentialBackoff(attempt)
			slog.ErrorContext(ctx, "Failed to connect to AMQP, retrying",
				"error", err,
				"attempt", attempt,
				"retry_in", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		attempt = -1 // reset backoff after a successful connect

		err = client.ConsumeMonthChanged(ctx, handler)
		client.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}
		slog.WarnContext(ctx, "AMQP consumer disconnected, reconnecting", "error", err)
	}
}
