package bsaonline

import (
	"context"
	"strings"
	"testing"
	"time"
	"waterbill-backend/lib/billing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const directDetailText = `Step 3: Make Payment
Account:   302913026
302913026 OCCUPANT
3040 ALVINA
Warren, MI 48091-2498
WATER	$60.10
SEWER	$56.87
Statement Date: 02/14/2024
Due Date: 03/15/24
Previous Balance: $80.00
Payments Received: -$80.00
Late Fee: $0.00
Usage: 4,500 gal
Amount to Pay:
$116.97`

func TestExtractDirectDetail(t *testing.T) {
	raw := Extract(directDetailText, "Warren", DefaultRules)

	expected := billing.Raw{
		AccountNumber:    "302913026",
		Address:          "3040 ALVINA, Warren, MI 48091-2498",
		OwnerName:        "302913026 OCCUPANT",
		AmountDue:        "116.97",
		DueDate:          "03/15/24",
		StatementDate:    "02/14/2024",
		PreviousBalance:  "80.00",
		LateFees:         "0.00",
		PaymentsReceived: "80.00",
		WaterUsage:       "4,500",
		Charges: []billing.RawCharge{
			{Name: "WATER", Amount: "60.10"},
			{Name: "SEWER", Amount: "56.87"},
		},
		Text: directDetailText,
	}
	if diff := cmp.Diff(expected, raw); diff != "" {
		t.Fatal(diff)
	}

	snapshot := billing.Normalize(raw, 5000)
	require.Equal(t, "116.97", snapshot.AmountDue.StringFixed(2))
	require.Equal(t, "116.97", snapshot.CurrentCharges.StringFixed(2))
	require.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), *snapshot.DueDate)
	require.Equal(t, time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC), *snapshot.StatementDate)
	require.Equal(t, int64(4500), *snapshot.WaterUsage)
	require.Equal(t, directDetailText, snapshot.RawText)
}

func TestExtractAccountNumber(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{"Account: 302913026", "302913026"},
		{"  Account:\t 12-345-67  \nAccount: 999", "12-345-67"},
		{"Header\nAccount: A-1\nmore", "A-1"},
		{"My Account: 55", ""},
		{"Account:\n", ""},
	}
	for _, test := range testCases {
		raw := Extract(test.text, "Warren", DefaultRules)
		require.Equal(t, test.expected, raw.AccountNumber, test.text)
	}
}

func TestExtractAmountToPay(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{"same line", "Amount to Pay: $1,234.56", "1234.56"},
		{"next line", "Amount to Pay:\n$9,876.05", "9876.05"},
		{"tab separated", "Amount to Pay:\t$12.30", "12.30"},
		{"large", "Amount to Pay\n$1,000,000.01", "1000000.01"},
		{"zero", "Amount to Pay:\n$0.00", "0.00"},
		{"no label", "Balance: $55.00\nTotal Due $55.00", "0.00"},
		{"label without amount", "Amount to Pay:\nContact the treasurer\n$55.00", "0.00"},
		{"empty page", "", "0.00"},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			snapshot := billing.Normalize(Extract(test.text, "Warren", DefaultRules), 0)
			require.Equal(t, test.expected, snapshot.AmountDue.StringFixed(2))
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	first := billing.Normalize(Extract(directDetailText, "Warren", DefaultRules), 100)
	second := billing.Normalize(Extract(directDetailText, "Warren", DefaultRules), 100)
	require.Equal(t, first, second)
}

func TestExtractPartial(t *testing.T) {
	raw := Extract("Account: 77\nsomething unexpected", "Warren", DefaultRules)
	require.Equal(t, "77", raw.AccountNumber)
	require.Empty(t, raw.Address)
	require.Empty(t, raw.OwnerName)
	require.Empty(t, raw.DueDate)
	require.Empty(t, raw.Charges)

	snapshot := billing.Normalize(raw, 0)
	require.True(t, snapshot.AmountDue.IsZero())
	require.Nil(t, snapshot.DueDate)
	require.Nil(t, snapshot.CurrentCharges)
}

func TestExtractAddress(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		city     string
		expected string
	}{
		{"street then city", "3040 ALVINA\nWarren, MI 48091", "Warren", "3040 ALVINA, Warren, MI 48091"},
		{"city matched without case", "12 main st\nWARREN MI", "Warren", "12 main st, WARREN MI"},
		{"no city line", "3040 ALVINA\nDetroit, MI", "Warren", ""},
		{"occupant line is not a street", "302913026 OCCUPANT\nWarren, MI", "Warren", ""},
		{"street line naming the city is skipped", "1 WARREN AVE\n2 ELM ST\nWarren, MI", "Warren", "2 ELM ST, Warren, MI"},
		{"unknown city", "3040 ALVINA\nWarren, MI", "", ""},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			raw := Extract(test.text, test.city, DefaultRules)
			require.Equal(t, test.expected, raw.Address)
		})
	}
}

func TestExtractCharges(t *testing.T) {
	lines := []string{
		"WATER\t$60.10",
		"SEWER $1,000.00",
		"STORM WATER\t12.50",
		"Amount to Pay:\t$116.97",
		"NO AMOUNT HERE",
		"TAX 5.00",
	}
	expected := []billing.RawCharge{
		{Name: "WATER", Amount: "60.10"},
		{Name: "SEWER", Amount: "1,000.00"},
		{Name: "STORM WATER", Amount: "12.50"},
	}
	if diff := cmp.Diff(expected, extractCharges(lines)); diff != "" {
		t.Fatal(diff)
	}
}

func TestRuleOrderFirstMatchWins(t *testing.T) {
	rules := []Rule{
		LabelPrefixRule(FieldAccountNumber, "primary", "Acct #"),
		LabelPrefixRule(FieldAccountNumber, "fallback", "Account:"),
	}
	raw := Extract("Account: 2\nAcct # 1", "", rules)
	require.Equal(t, "1", raw.AccountNumber)

	raw = Extract("Account: 2", "", rules)
	require.Equal(t, "2", raw.AccountNumber)
}

func TestDueDateRules(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{"Due Date: 03/15/2024", "03/15/2024"},
		{"Payment Due\n3-1-2024", "3-1-2024"},
		{"Due: 2024-03-15", "2024-03-15"},
		{"Due Date: soon\nDue 04/01/24", "04/01/24"},
		{"Nothing due", ""},
	}
	for _, test := range testCases {
		raw := Extract(test.text, "", DefaultRules)
		require.Equal(t, test.expected, raw.DueDate, test.text)
	}
}

func TestClassify(t *testing.T) {
	require.Equal(t, pageNoRecords, classify(noRecordsPage))
	require.Equal(t, pageDetail, classify(detailPage("1", "OCCUPANT", "1 ELM ST", "$1.00")))
	require.Equal(t, pageDetail, classify(`<h2>Step 3: Make Payment</h2>`))
	require.Equal(t, pageListing, classify(listingPage(listingRow("42 ELM ST", "1", "OCCUPANT"))))
	// an empty result wins over anything else on the page.
	require.Equal(t, pageNoRecords, classify(`<div>Account: 1</div><td>No records to display.</td>`))
}

func parseDoc(t testing.TB, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestDetailLinkSkipsNoiseRows(t *testing.T) {
	doc := parseDoc(t, listingPage(
		`<tr><td>42 ELM ST</td><td>1</td></tr>`,
		`<tr><td>42 ELM ST</td><td>2</td><td>No link</td><td>-</td></tr>`,
		listingRow("42 ELM ST", "302913026", "OCCUPANT"),
		listingRow("44 ELM ST", "302913027", "OCCUPANT"),
	))
	href, ok := detailLink(context.Background(), doc)
	require.True(t, ok)
	require.Equal(t, "/OnlinePayment/Detail?ref=302913026", href)

	doc = parseDoc(t, listingPage())
	_, ok = detailLink(context.Background(), doc)
	require.False(t, ok, "header and criteria rows must never be followed")

	doc = parseDoc(t, `<table><tbody>
<tr><td>1 ELM</td><td>5</td><td>A</td><td><a href="/OnlinePayment/MakePayment?ref=5">Pay</a></td></tr>
</tbody></table>`)
	href, ok = detailLink(context.Background(), doc)
	require.True(t, ok)
	require.Equal(t, "/OnlinePayment/MakePayment?ref=5", href)

	doc = parseDoc(t, listingPage(
		`<tr><td>42 ELM ST</td><td>1</td><td>A</td><td><a href="http://[bad/Detail">Pay</a></td></tr>`,
		`<tr><td>42 ELM ST</td><td>2</td><td>B</td><td><a href="  ">Pay</a><a href=" /OnlinePayment/Detail?ref=2 ">Pay</a></td></tr>`,
	))
	href, ok = detailLink(context.Background(), doc)
	require.True(t, ok)
	require.Equal(t, "/OnlinePayment/Detail?ref=2", href, "malformed and blank hrefs are skipped")
}

func TestIsNoiseRow(t *testing.T) {
	require.True(t, isNoiseRow("Address", "Reference #"))
	require.True(t, isNoiseRow("Property Address", "Reference Number"))
	require.True(t, isNoiseRow("Search: 42 Elm", "anything"))
	require.True(t, isNoiseRow("anything", "By: Address"))
	require.False(t, isNoiseRow("Address", "302913026"))
	require.False(t, isNoiseRow("42 ELM ST", "Reference"))
}
