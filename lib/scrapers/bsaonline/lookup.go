package bsaonline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"waterbill-backend/lib/billing"
	"waterbill-backend/lib/browser"
	"waterbill-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Identifier is what the caller knows about an account. Either field may be
// empty but not both.
type Identifier struct {
	AccountNumber string
	Address       string
}

func (id Identifier) String() string {
	if id.AccountNumber != "" {
		return id.AccountNumber
	}
	return id.Address
}

type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// Correction is what the lookup learned about the account that differs from
// the identifier it was given. It is only a proposal, the caller decides
// what to store.
type Correction struct {
	// AccountNumber is set when the portal reported a different (or a
	// previously unknown) account number.
	AccountNumber string
	// Address is set when the portal's address differs from the known one,
	// AddressSimilarity is how close the two are (0-1).
	Address           string
	AddressSimilarity float64
	OwnerName         string
}

func (c Correction) Empty() bool {
	return c.AccountNumber == "" && c.Address == "" && c.OwnerName == ""
}

// Result is the outcome of one composite lookup: Found carries a Snapshot,
// NotFound and Failed carry the reason in Err.
type Result struct {
	Outcome    Outcome
	Snapshot   billing.Snapshot
	Correction Correction
	// Strategy is the search that produced the result.
	Strategy Strategy
	Err      error
}

func propose(id Identifier, snapshot billing.Snapshot) Correction {
	var correction Correction
	if snapshot.AccountNumber != "" && snapshot.AccountNumber != strings.TrimSpace(id.AccountNumber) {
		correction.AccountNumber = snapshot.AccountNumber
	}
	if snapshot.Address != "" {
		similarity := textutil.AddressSimilarity(id.Address, snapshot.Address)
		if similarity < 1 {
			correction.Address = snapshot.Address
			correction.AddressSimilarity = similarity
		}
	}
	correction.OwnerName = snapshot.OwnerName
	return correction
}

// fatal errors end the lookup, anything else lets the next strategy run.
func fatal(err error) bool {
	return errors.Is(err, ErrPortalUnavailable) ||
		errors.Is(err, ErrSessionFailure) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

type attempt struct {
	form  searchForm
	query string
}

func attempts(id Identifier) []attempt {
	var out []attempt
	if account := strings.TrimSpace(id.AccountNumber); account != "" {
		out = append(out, attempt{form: accountForm, query: account})
	}
	if street := textutil.StreetPortion(id.Address); street != "" {
		out = append(out, attempt{form: addressForm, query: street})
	}
	return out
}

// LookupOnPage runs the composite lookup on an already open page: the
// account number search first when one is known, then the address search
// with the street portion only. The first snapshot wins.
func (c *Client) LookupOnPage(ctx context.Context, page browser.Page, id Identifier) Result {
	ctx, span := tracer.Start(ctx, "bsaonline:Lookup")
	defer span.End()
	span.SetAttributes(
		attribute.String("account_number", id.AccountNumber),
		attribute.String("address", id.Address),
	)

	plan := attempts(id)
	if len(plan) == 0 {
		return Result{
			Outcome: OutcomeNotFound,
			Err:     fmt.Errorf("%w: neither account number nor address given", ErrInvalidIdentifier),
		}
	}

	var lastErr error
	for i, a := range plan {
		if i > 0 {
			fallbackCounter.Add(ctx, 1)
			slog.InfoContext(
				ctx, "falling back to next search strategy",
				"from", plan[i-1].form.Strategy,
				"to", a.form.Strategy,
				"reason", lastErr,
			)
		}

		snapshot, err := c.search(ctx, page, a.form, a.query)
		if err == nil {
			return Result{
				Outcome:    OutcomeFound,
				Snapshot:   snapshot,
				Correction: propose(id, snapshot),
				Strategy:   a.form.Strategy,
			}
		}
		if fatal(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lookup failed")
			return Result{Outcome: OutcomeFailed, Strategy: a.form.Strategy, Err: err}
		}
		lastErr = err
	}

	return Result{
		Outcome:  OutcomeNotFound,
		Strategy: plan[len(plan)-1].form.Strategy,
		Err:      lastErr,
	}
}

// Lookup opens a dedicated browser session, runs the composite lookup and
// closes the session again.
func (c *Client) Lookup(ctx context.Context, id Identifier) Result {
	var result Result
	err := browser.With(ctx, c.browser, func(page browser.Page) error {
		result = c.LookupOnPage(ctx, page, id)
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to open browser session", "err", err)
		result = Result{
			Outcome: OutcomeFailed,
			Err:     fmt.Errorf("%w: %w", ErrSessionFailure, err),
		}
	}

	lookupCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(result.Outcome))))
	return result
}
