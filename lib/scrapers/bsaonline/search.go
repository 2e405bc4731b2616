package bsaonline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"waterbill-backend/lib/billing"
	"waterbill-backend/lib/browser"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Strategy string

const (
	StrategyAccount Strategy = "account"
	StrategyAddress Strategy = "address"
)

// searchForm locates a search form by what it does rather than where it
// sits: the form's action must contain Action and it must have an input
// named Field.
type searchForm struct {
	Strategy Strategy
	Action   string
	Field    string
}

func (f searchForm) selector() string {
	return fmt.Sprintf(`form[action*="%s"]:has(input[name="%s"])`, f.Action, f.Field)
}

var accountForm = searchForm{
	Strategy: StrategyAccount,
	Action:   "Account",
	Field:    "AccountNumber",
}

var addressForm = searchForm{
	Strategy: StrategyAddress,
	Action:   "Address",
	Field:    "Address",
}

// SearchByAccount searches the portal for an exact account number.
func (c *Client) SearchByAccount(ctx context.Context, page browser.Page, accountNumber string) (billing.Snapshot, error) {
	return c.search(ctx, page, accountForm, accountNumber)
}

// SearchByAddress searches the portal for free-text address, callers
// usually pass only the street portion.
func (c *Client) SearchByAddress(ctx context.Context, page browser.Page, address string) (billing.Snapshot, error) {
	return c.search(ctx, page, addressForm, address)
}

func (c *Client) search(ctx context.Context, page browser.Page, form searchForm, value string) (billing.Snapshot, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("bsaonline:SearchBy:%s", form.Strategy))
	defer span.End()

	value = strings.TrimSpace(value)
	if value == "" {
		return billing.Snapshot{}, fmt.Errorf("%w: empty %s", ErrInvalidIdentifier, form.Strategy)
	}
	span.SetAttributes(attribute.String("query", value))

	err := c.GotoSearch(ctx, page)
	if err != nil {
		return billing.Snapshot{}, err
	}

	doc, err := browser.Document(ctx, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read search page")
		return billing.Snapshot{}, navigationError(err)
	}
	selector := form.selector()
	if doc.Find(selector).Length() == 0 {
		slog.InfoContext(ctx, "search form not found", "strategy", form.Strategy, "url", page.URL())
		return billing.Snapshot{}, fmt.Errorf("%w: %s", ErrFormNotFound, form.Strategy)
	}

	err = page.SubmitForm(ctx, selector, map[string]string{form.Field: value})
	if errors.Is(err, browser.ErrElementNotFound) {
		return billing.Snapshot{}, fmt.Errorf("%w: %s: %w", ErrFormNotFound, form.Strategy, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit search")
		return billing.Snapshot{}, navigationError(err)
	}

	snapshot, err := c.resolve(ctx, page)
	if err != nil {
		if !errors.Is(err, ErrNoRecords) {
			span.RecordError(err)
		}
		return billing.Snapshot{}, err
	}
	return snapshot, nil
}
