package bsaonline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// DefaultCooldown is the pause between two lookups of a batch.
const DefaultCooldown = 2 * time.Second

// pause blocks for d or until ctx is done, whichever is first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	limiter := rate.NewLimiter(rate.Every(d), 1)
	limiter.Allow()
	return limiter.Wait(ctx)
}

// Batch looks up each identifier in turn, one session per lookup, pausing
// for cooldown between consecutive lookups. A failed or empty lookup never
// stops the batch. each, when not nil, is called with every result as soon
// as it is known. The returned results line up with ids.
func (c *Client) Batch(ctx context.Context, ids []Identifier, cooldown time.Duration, each func(i int, result Result)) []Result {
	ctx, span := tracer.Start(ctx, "bsaonline:Batch")
	defer span.End()
	span.SetAttributes(attribute.Int("size", len(ids)))

	results := make([]Result, len(ids))
	for i, id := range ids {
		if i > 0 {
			err := pause(ctx, cooldown)
			if err != nil {
				results[i] = Result{Outcome: OutcomeFailed, Err: err}
				if each != nil {
					each(i, results[i])
				}
				continue
			}
		}
		if err := ctx.Err(); err != nil {
			results[i] = Result{Outcome: OutcomeFailed, Err: err}
			if each != nil {
				each(i, results[i])
			}
			continue
		}

		result := c.Lookup(ctx, id)
		switch result.Outcome {
		case OutcomeFound:
			slog.InfoContext(
				ctx, "found bill",
				"identifier", id.String(),
				"strategy", result.Strategy,
				"amount_due", result.Snapshot.AmountDue.StringFixed(2),
			)
		case OutcomeNotFound:
			slog.WarnContext(ctx, "no bill found", "identifier", id.String(), "err", result.Err)
		default:
			slog.WarnContext(ctx, "lookup failed", "identifier", id.String(), "err", result.Err)
		}

		results[i] = result
		if each != nil {
			each(i, result)
		}
	}
	return results
}
