package billing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCurrency = errors.New("invalid currency amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidUsage    = errors.New("invalid usage")
)

// DateLayouts are tried in order, the first that parses wins.
var DateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06",
	"2006-01-02",
}

func ParseCurrency(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidCurrency)
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidCurrency, raw, err)
	}
	return value.Round(2), nil
}

// ParseDate parses a portal date into a calendar date (midnight UTC).
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

func ParseUsage(raw string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUsage, raw)
	}
	return value, nil
}

type RawCharge struct {
	Name   string
	Amount string
}

// Raw holds the strings a field extractor recovered from a detail page. An
// empty string means the field was not found.
type Raw struct {
	AccountNumber string
	Address       string
	OwnerName     string

	AmountDue        string
	DueDate          string
	StatementDate    string
	PreviousBalance  string
	CurrentCharges   string
	LateFees         string
	PaymentsReceived string
	WaterUsage       string

	Charges []RawCharge
	Text    string
}

// Normalize converts raw strings into a typed Snapshot. It never fails:
// fields that do not parse are left unset, an unparseable or missing amount
// due becomes zero. Text is truncated to rawTextLimit characters when the
// limit is positive.
func Normalize(raw Raw, rawTextLimit int) Snapshot {
	snapshot := Snapshot{
		AccountNumber: strings.TrimSpace(raw.AccountNumber),
		Address:       strings.TrimSpace(raw.Address),
		OwnerName:     strings.TrimSpace(raw.OwnerName),
		AmountDue:     decimal.Zero,
		RawText:       truncate(raw.Text, rawTextLimit),
	}

	if amount, err := ParseCurrency(raw.AmountDue); err == nil && !amount.IsNegative() {
		snapshot.AmountDue = amount
	}

	snapshot.DueDate = optionalDate(raw.DueDate)
	snapshot.StatementDate = optionalDate(raw.StatementDate)
	snapshot.PreviousBalance = optionalCurrency(raw.PreviousBalance)
	snapshot.LateFees = optionalCurrency(raw.LateFees)
	snapshot.PaymentsReceived = optionalCurrency(raw.PaymentsReceived)

	if raw.WaterUsage != "" {
		usage, err := ParseUsage(raw.WaterUsage)
		if err == nil {
			snapshot.WaterUsage = &usage
		}
	}

	snapshot.Charges = normalizeCharges(raw.Charges)
	if len(snapshot.Charges) > 0 {
		total := decimal.Zero
		for _, c := range snapshot.Charges {
			total = total.Add(c.Amount)
		}
		snapshot.CurrentCharges = &total
	} else {
		snapshot.CurrentCharges = optionalCurrency(raw.CurrentCharges)
	}

	return snapshot
}

// a charge name seen twice keeps its first position and its last amount.
func normalizeCharges(raw []RawCharge) []Charge {
	var charges []Charge
	index := map[string]int{}
	for _, rc := range raw {
		name := strings.TrimSpace(rc.Name)
		amount, err := ParseCurrency(rc.Amount)
		if name == "" || err != nil {
			continue
		}
		if i, ok := index[name]; ok {
			charges[i].Amount = amount
			continue
		}
		index[name] = len(charges)
		charges = append(charges, Charge{Name: name, Amount: amount})
	}
	return charges
}

func optionalCurrency(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	value, err := ParseCurrency(raw)
	if err != nil {
		return nil
	}
	return &value
}

func optionalDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	value, err := ParseDate(raw)
	if err != nil {
		return nil
	}
	return &value
}

func truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
