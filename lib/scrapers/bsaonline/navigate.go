package bsaonline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"waterbill-backend/lib/browser"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// navigationError sorts a browser error into the lookup's error taxonomy.
func navigationError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, browser.ErrClosed), errors.Is(err, browser.ErrLaunch):
		return fmt.Errorf("%w: %w", ErrSessionFailure, err)
	default:
		return fmt.Errorf("%w: %w", ErrPortalUnavailable, err)
	}
}

// GotoSearch loads the payment search entry point and waits for the
// network to go idle.
func (c *Client) GotoSearch(ctx context.Context, page browser.Page) error {
	ctx, span := tracer.Start(ctx, "bsaonline:GotoSearch")
	defer span.End()

	target, err := c.config.SearchUrl()
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("url", target))

	err = page.Goto(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load search page")
		slog.WarnContext(ctx, "failed to load search page", "url", target, "err", err)
		return navigationError(err)
	}
	return nil
}
