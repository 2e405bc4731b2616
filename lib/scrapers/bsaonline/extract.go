package bsaonline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"waterbill-backend/lib/billing"
	"waterbill-backend/lib/browser"
	"waterbill-backend/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// "WATER\t$60.10", "SEWER $1,000.00"
var chargePattern = regexp.MustCompile(`^([A-Z\s]+?)\s*\$?([\d,]+\.\d{2})$`)

func extractCharges(lines []string) []billing.RawCharge {
	var charges []billing.RawCharge
	for _, line := range lines {
		if !strings.ContainsAny(line, "\t$") {
			continue
		}
		m := chargePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		charges = append(charges, billing.RawCharge{Name: name, Amount: m[2]})
	}
	return charges
}

func setField(raw *billing.Raw, field Field, value string) bool {
	var target *string
	switch field {
	case FieldAccountNumber:
		target = &raw.AccountNumber
	case FieldAddress:
		target = &raw.Address
	case FieldOwnerName:
		target = &raw.OwnerName
	case FieldAmountDue:
		target = &raw.AmountDue
	case FieldDueDate:
		target = &raw.DueDate
	case FieldStatementDate:
		target = &raw.StatementDate
	case FieldPreviousBalance:
		target = &raw.PreviousBalance
	case FieldCurrentCharges:
		target = &raw.CurrentCharges
	case FieldLateFees:
		target = &raw.LateFees
	case FieldPaymentsReceived:
		target = &raw.PaymentsReceived
	case FieldWaterUsage:
		target = &raw.WaterUsage
	default:
		return false
	}
	if *target != "" {
		return false
	}
	*target = value
	return true
}

// Extract runs rules over rendered page text. Each field is independent, a
// field no rule matches is left empty and never stops the others.
func Extract(text string, city string, rules []Rule) billing.Raw {
	page := PageText{
		Lines: htmlutil.Lines(text),
		City:  city,
	}

	raw := billing.Raw{Text: text}
	matched := map[Field]bool{}
	for _, rule := range rules {
		if matched[rule.Field] {
			continue
		}
		value, ok := rule.Match(page)
		if !ok {
			continue
		}
		if setField(&raw, rule.Field, value) {
			matched[rule.Field] = true
		}
	}
	raw.Charges = extractCharges(page.Lines)
	return raw
}

// ExtractPage reads the current page's text and builds a snapshot from it.
// It only fails when the page itself cannot be read.
func (c *Client) ExtractPage(ctx context.Context, page browser.Page) (billing.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "bsaonline:ExtractPage")
	defer span.End()

	text, err := page.Text(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read detail page")
		return billing.Snapshot{}, fmt.Errorf("%w: read detail page: %w", ErrSessionFailure, err)
	}

	raw := Extract(text, c.config.Municipality.City, c.rules)
	snapshot := billing.Normalize(raw, c.config.RawTextLimit)

	missing := missingFields(snapshot)
	span.SetAttributes(
		attribute.String("account_number", snapshot.AccountNumber),
		attribute.String("amount_due", snapshot.AmountDue.StringFixed(2)),
		attribute.StringSlice("missing_fields", missing),
	)
	slog.DebugContext(
		ctx, "extracted detail page",
		"account", snapshot.AccountNumber,
		"address", snapshot.Address,
		"amount_due", snapshot.AmountDue.StringFixed(2),
		"missing", missing,
	)
	return snapshot, nil
}

func missingFields(s billing.Snapshot) []string {
	var missing []string
	check := func(field Field, absent bool) {
		if absent {
			missing = append(missing, string(field))
		}
	}
	check(FieldAccountNumber, s.AccountNumber == "")
	check(FieldAddress, s.Address == "")
	check(FieldOwnerName, s.OwnerName == "")
	check(FieldDueDate, s.DueDate == nil)
	check(FieldStatementDate, s.StatementDate == nil)
	check(FieldPreviousBalance, s.PreviousBalance == nil)
	check(FieldCurrentCharges, s.CurrentCharges == nil)
	check(FieldLateFees, s.LateFees == nil)
	check(FieldPaymentsReceived, s.PaymentsReceived == nil)
	check(FieldWaterUsage, s.WaterUsage == nil)
	return missing
}
