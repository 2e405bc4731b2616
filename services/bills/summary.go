package bills

import (
	"context"
	"errors"
	"slices"
	"time"
	"waterbill-backend/lib/billing"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/codes"
)

// Summary aggregates the latest bill of every active property.
type Summary struct {
	Properties    int
	Overdue       int
	OverdueAmount decimal.Decimal
	DueSoon       int
	DueSoonAmount decimal.Decimal
	Current       int
	Paid          int
	Unknown       int
	// NoBill counts properties that were never captured.
	NoBill int
}

// Alert is a property whose latest bill is at or above a threshold.
type Alert struct {
	Property Property
	Bill     Bill
}

type latestBill struct {
	property Property
	bill     *Bill
}

func (s Service) latestBills(ctx context.Context) ([]latestBill, error) {
	properties, err := s.listActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]latestBill, len(properties))
	for i, p := range properties {
		out[i].property = p
		bill, err := s.Latest(ctx, p.ID)
		if errors.Is(err, ErrNoBill) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[i].bill = &bill
	}
	return out, nil
}

func (s Service) Summary(ctx context.Context, today time.Time) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Summary")
	defer span.End()

	latest, err := s.latestBills(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Summary{}, err
	}

	summary := Summary{Properties: len(latest)}
	for _, l := range latest {
		if l.bill == nil {
			summary.NoBill++
			continue
		}
		switch l.bill.Status(today) {
		case billing.StatusOverdue:
			summary.Overdue++
			summary.OverdueAmount = summary.OverdueAmount.Add(l.bill.AmountDue)
		case billing.StatusDueSoon:
			summary.DueSoon++
			summary.DueSoonAmount = summary.DueSoonAmount.Add(l.bill.AmountDue)
		case billing.StatusCurrent:
			summary.Current++
		case billing.StatusPaid:
			summary.Paid++
		default:
			summary.Unknown++
		}
	}
	return summary, nil
}

// Threshold lists active properties whose latest amount due is at least
// amount, largest first.
func (s Service) Threshold(ctx context.Context, amount decimal.Decimal) ([]Alert, error) {
	ctx, span := tracer.Start(ctx, "Threshold")
	defer span.End()

	latest, err := s.latestBills(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var alerts []Alert
	for _, l := range latest {
		if l.bill == nil || l.bill.AmountDue.LessThan(amount) {
			continue
		}
		alerts = append(alerts, Alert{Property: l.property, Bill: *l.bill})
	}
	slices.SortStableFunc(alerts, func(a, b Alert) int {
		return b.Bill.AmountDue.Cmp(a.Bill.AmountDue)
	})
	return alerts, nil
}
