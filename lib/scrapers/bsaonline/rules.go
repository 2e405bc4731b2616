package bsaonline

import (
	"regexp"
	"strings"
)

type Field string

const (
	FieldAccountNumber    Field = "account_number"
	FieldAddress          Field = "address"
	FieldOwnerName        Field = "owner_name"
	FieldAmountDue        Field = "amount_due"
	FieldDueDate          Field = "due_date"
	FieldStatementDate    Field = "statement_date"
	FieldPreviousBalance  Field = "previous_balance"
	FieldCurrentCharges   Field = "current_charges"
	FieldLateFees         Field = "late_fees"
	FieldPaymentsReceived Field = "payments_received"
	FieldWaterUsage       Field = "water_usage"
)

// PageText is what a rule sees: the rendered lines of a detail page
// (trimmed, blank lines dropped) and the municipality's city.
type PageText struct {
	Lines []string
	City  string
}

func (p PageText) Joined() string {
	return strings.Join(p.Lines, "\n")
}

// Rule recovers the raw string of one field. Rules for the same field are
// tried in order and the first that matches wins, a rule that does not
// match leaves the field to the next one.
type Rule struct {
	Field Field
	Name  string
	Match func(page PageText) (string, bool)
}

// LabelPrefixRule matches the first line starting with label and returns
// the rest of that line.
func LabelPrefixRule(field Field, name, label string) Rule {
	return Rule{
		Field: field,
		Name:  name,
		Match: func(page PageText) (string, bool) {
			for _, line := range page.Lines {
				if !strings.HasPrefix(line, label) {
					continue
				}
				value := strings.TrimSpace(strings.TrimPrefix(line, label))
				return value, value != ""
			}
			return "", false
		},
	}
}

// ContainsLineRule matches the first line containing token, ignoring case,
// and returns the whole line.
func ContainsLineRule(field Field, name, token string) Rule {
	token = strings.ToUpper(token)
	return Rule{
		Field: field,
		Name:  name,
		Match: func(page PageText) (string, bool) {
			for _, line := range page.Lines {
				if strings.Contains(strings.ToUpper(line), token) {
					return line, true
				}
			}
			return "", false
		},
	}
}

var moneyPattern = regexp.MustCompile(`\$([\d,]+\.?\d*)`)

// AdjacentMoneyRule finds the first line containing label and returns the
// first dollar amount on that line or, failing that, on the next line.
// Only the first labelled line is considered.
func AdjacentMoneyRule(field Field, name, label string) Rule {
	return Rule{
		Field: field,
		Name:  name,
		Match: func(page PageText) (string, bool) {
			for i, line := range page.Lines {
				if !strings.Contains(line, label) {
					continue
				}
				if m := moneyPattern.FindStringSubmatch(line); m != nil {
					return m[1], true
				}
				if i+1 < len(page.Lines) {
					if m := moneyPattern.FindStringSubmatch(page.Lines[i+1]); m != nil {
						return m[1], true
					}
				}
				return "", false
			}
			return "", false
		},
	}
}

// LabeledRegexRule runs pattern over the whole page text (lines joined by
// newlines) and returns its first capture group.
func LabeledRegexRule(field Field, name, pattern string) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{
		Field: field,
		Name:  name,
		Match: func(page PageText) (string, bool) {
			m := re.FindStringSubmatch(page.Joined())
			if m == nil || strings.TrimSpace(m[1]) == "" {
				return "", false
			}
			return strings.TrimSpace(m[1]), true
		},
	}
}

var streetPattern = regexp.MustCompile(`^\d+\s+[A-Z]`)

// StreetCityRule pairs a street line ("3040 ALVINA") with the following
// city line ("Warren, MI 48091-2498"). Lines that mention OCCUPANT are owner
// lines and never streets.
func StreetCityRule(field Field, name string) Rule {
	return Rule{
		Field: field,
		Name:  name,
		Match: func(page PageText) (string, bool) {
			if page.City == "" {
				return "", false
			}
			city := strings.ToUpper(page.City)
			for i, line := range page.Lines {
				upper := strings.ToUpper(line)
				if strings.Contains(upper, "OCCUPANT") {
					continue
				}
				if !streetPattern.MatchString(upper) || strings.Contains(upper, city) {
					continue
				}
				if i+1 < len(page.Lines) && strings.Contains(strings.ToUpper(page.Lines[i+1]), city) {
					return line + ", " + page.Lines[i+1], true
				}
			}
			return "", false
		},
	}
}

const (
	datePattern   = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2})`
	amountPattern = `\$?([\d,]+\.?\d*)`
)

// DefaultRules are the rules for the BSA Online detail page. The amount due
// only ever comes from the "Amount to Pay" label, a page without it is
// read as nothing owed.
var DefaultRules = []Rule{
	LabelPrefixRule(FieldAccountNumber, "account label", "Account:"),
	ContainsLineRule(FieldOwnerName, "occupant line", "OCCUPANT"),
	StreetCityRule(FieldAddress, "street and city lines"),
	AdjacentMoneyRule(FieldAmountDue, "amount to pay", "Amount to Pay"),

	LabeledRegexRule(FieldDueDate, "due date label", `(?i)(?:Due\s*Date|Payment\s*Due)[:\s]*`+datePattern),
	LabeledRegexRule(FieldDueDate, "due label", `(?i)\bDue[:\s]*`+datePattern),
	LabeledRegexRule(FieldStatementDate, "statement date label", `(?i)(?:Statement\s*Date|Bill(?:ing)?\s*Date)[:\s]*`+datePattern),
	LabeledRegexRule(FieldPreviousBalance, "previous balance label", `(?i)Previous\s*Balance[:\s]*`+amountPattern),
	LabeledRegexRule(FieldCurrentCharges, "current charges label", `(?i)Current\s*Charges?[:\s]*`+amountPattern),
	LabeledRegexRule(FieldLateFees, "late fee label", `(?i)(?:Late\s*Fees?|Penalty)[:\s]*`+amountPattern),
	LabeledRegexRule(FieldPaymentsReceived, "payments label", `(?i)Payments?\s*Received[:\s]*-?`+amountPattern),
	LabeledRegexRule(FieldWaterUsage, "usage label", `(?i)(?:Usage|Consumption)[:\s]*([\d,]+)\s*(?:gal|gallons)?`),
}
