package bsaonline

import (
	"context"
	"testing"
	"time"
	"waterbill-backend/lib/browser"
	"waterbill-backend/lib/restyutil"
	"waterbill-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestLookupByAccountDirectDetail(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:bsaonline")
	defer cleanup()

	portal := newFakePortal(t)
	portal.accounts["302913026"] = detailPage("302913026", "OCCUPANT", "3040 ALVINA", "$116.97")

	result := portal.client(t).Lookup(context.Background(), Identifier{
		AccountNumber: " 302913026 ",
		Address:       "3040 Alvina, Warren, MI 48091-2498",
	})
	require.NoError(t, result.Err)
	require.Equal(t, OutcomeFound, result.Outcome)
	require.Equal(t, StrategyAccount, result.Strategy)

	snapshot := result.Snapshot
	require.Equal(t, "302913026", snapshot.AccountNumber)
	require.Equal(t, "302913026 OCCUPANT", snapshot.OwnerName)
	require.Equal(t, "3040 ALVINA, Warren, MI 48091-2498", snapshot.Address)
	require.Equal(t, "116.97", snapshot.AmountDue.StringFixed(2))
	require.Equal(t, "116.97", snapshot.CurrentCharges.StringFixed(2))
	require.NotNil(t, snapshot.DueDate)
	require.Contains(t, snapshot.RawText, "Amount to Pay")

	require.Empty(t, result.Correction.AccountNumber)
	require.Empty(t, result.Correction.Address, "same address up to case")
	require.Equal(t, "302913026 OCCUPANT", result.Correction.OwnerName)

	accounts, addresses, _ := portal.queries()
	require.Equal(t, []string{"302913026"}, accounts)
	require.Empty(t, addresses)
}

func TestLookupDumpsTraffic(t *testing.T) {
	portal := newFakePortal(t)
	portal.addresses["42 Elm St"] = listingPage(
		listingRow("42 ELM ST", "302913026", "OCCUPANT"),
	)
	portal.details["302913026"] = detailPage("302913026", "OCCUPANT", "42 ELM ST", "$12.00")

	traffic := &restyutil.MemoryOutput{}
	client := portal.client(t)
	client.browser.Traffic = traffic

	result := client.Lookup(context.Background(), Identifier{Address: "42 Elm St"})
	require.NoError(t, result.Err)
	require.Equal(t, OutcomeFound, result.Outcome)

	// search page, address search, detail page
	messages := traffic.Messages()
	require.Len(t, messages, 3)
	require.Contains(t, messages["1"], "GET "+portal.server.URL+"/OnlinePayment/OnlinePaymentSearch")
	require.Contains(t, messages["2"], "Address=42+Elm+St")
	require.Contains(t, messages["3"], "Amount to Pay")
}

func TestLookupByAddressUsesStreetOnly(t *testing.T) {
	portal := newFakePortal(t)
	portal.addresses["42 Elm St"] = listingPage(
		listingRow("42 ELM ST", "302913026", "OCCUPANT"),
	)
	portal.details["302913026"] = detailPage("302913026", "OCCUPANT", "42 ELM ST", "$1,234.56")

	result := portal.client(t).Lookup(context.Background(), Identifier{
		Address: "42 Elm St, Springfield",
	})
	require.NoError(t, result.Err)
	require.Equal(t, OutcomeFound, result.Outcome)
	require.Equal(t, StrategyAddress, result.Strategy)
	require.Equal(t, "1234.56", result.Snapshot.AmountDue.StringFixed(2))

	accounts, addresses, details := portal.queries()
	require.Equal(t, []string{"42 Elm St"}, addresses)
	require.Empty(t, accounts)
	require.Equal(t, []string{"302913026"}, details, "header rows are never followed")

	require.Equal(t, "302913026", result.Correction.AccountNumber)
	require.Equal(t, "42 ELM ST, Warren, MI 48091-2498", result.Correction.Address)
	require.Greater(t, result.Correction.AddressSimilarity, 0.5)
}

func TestLookupFallsBackToAddress(t *testing.T) {
	portal := newFakePortal(t)
	portal.addresses["3040 Alvina"] = detailPage("302913099", "OCCUPANT", "3040 ALVINA", "$50.00")

	result := portal.client(t).Lookup(context.Background(), Identifier{
		AccountNumber: "stale-account",
		Address:       "3040 Alvina, Warren",
	})
	require.Equal(t, OutcomeFound, result.Outcome)
	require.Equal(t, StrategyAddress, result.Strategy)
	require.Equal(t, "302913099", result.Correction.AccountNumber)
	accounts, addresses, _ := portal.queries()
	require.Equal(t, []string{"stale-account"}, accounts)
	require.Equal(t, []string{"3040 Alvina"}, addresses)
}

func TestLookupNotFound(t *testing.T) {
	portal := newFakePortal(t)
	client := portal.client(t)

	result := client.Lookup(context.Background(), Identifier{
		AccountNumber: "000",
		Address:       "1 Nowhere Rd",
	})
	require.Equal(t, OutcomeNotFound, result.Outcome)
	require.ErrorIs(t, result.Err, ErrNoRecords)
	accounts, addresses, _ := portal.queries()
	require.Len(t, accounts, 1)
	require.Len(t, addresses, 1)

	result = client.Lookup(context.Background(), Identifier{})
	require.Equal(t, OutcomeNotFound, result.Outcome)
	require.ErrorIs(t, result.Err, ErrInvalidIdentifier)
}

func TestLookupListingWithoutLink(t *testing.T) {
	portal := newFakePortal(t)
	portal.addresses["42 Elm St"] = listingPage()

	result := portal.client(t).Lookup(context.Background(), Identifier{Address: "42 Elm St"})
	require.Equal(t, OutcomeNotFound, result.Outcome)
	require.ErrorIs(t, result.Err, ErrNoDetailLink)
	_, _, details := portal.queries()
	require.Empty(t, details)
}

func TestLookupFormNotFoundFallsBack(t *testing.T) {
	portal := newFakePortal(t)
	portal.broken[1] = true
	portal.addresses["3040 Alvina"] = detailPage("302913026", "OCCUPANT", "3040 ALVINA", "$1.00")

	result := portal.client(t).Lookup(context.Background(), Identifier{
		AccountNumber: "302913026",
		Address:       "3040 Alvina",
	})
	require.Equal(t, OutcomeFound, result.Outcome)
	require.Equal(t, StrategyAddress, result.Strategy)
	accounts, _, _ := portal.queries()
	require.Empty(t, accounts)
}

func TestLookupPortalUnavailable(t *testing.T) {
	portal := newFakePortal(t)
	portal.down[1] = true

	result := portal.client(t).Lookup(context.Background(), Identifier{
		AccountNumber: "302913026",
		Address:       "3040 Alvina",
	})
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.ErrorIs(t, result.Err, ErrPortalUnavailable)
	require.ErrorIs(t, result.Err, browser.ErrStatus)
	require.Equal(t, 1, portal.hits(), "navigation failures do not fall back")
}

func TestLookupBrokenDetailLink(t *testing.T) {
	portal := newFakePortal(t)
	portal.addresses["42 Elm St"] = listingPage(listingRow("42 ELM ST", "missing", "OCCUPANT"))

	result := portal.client(t).Lookup(context.Background(), Identifier{Address: "42 Elm St"})
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.ErrorIs(t, result.Err, ErrPortalUnavailable)
}

func TestExtractPageClosed(t *testing.T) {
	portal := newFakePortal(t)
	client := portal.client(t)

	page, err := browser.Open(context.Background(), client.browser)
	require.NoError(t, err)
	require.NoError(t, page.Close())

	_, err = client.ExtractPage(context.Background(), page)
	require.ErrorIs(t, err, ErrSessionFailure)

	result := client.LookupOnPage(context.Background(), page, Identifier{AccountNumber: "1"})
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.ErrorIs(t, result.Err, ErrSessionFailure)
}

func TestLookupUnknownDriver(t *testing.T) {
	portal := newFakePortal(t)
	client := portal.client(t)
	client.browser.Driver = "lynx"

	result := client.Lookup(context.Background(), Identifier{AccountNumber: "1"})
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.ErrorIs(t, result.Err, ErrSessionFailure)
	require.ErrorIs(t, result.Err, browser.ErrLaunch)
	require.Zero(t, portal.hits())
}

func TestBatchContinuesPastFailures(t *testing.T) {
	portal := newFakePortal(t)
	portal.accounts["1001"] = detailPage("1001", "OCCUPANT", "1 ELM ST", "$10.00")
	portal.accounts["1002"] = detailPage("1002", "OCCUPANT", "2 ELM ST", "$20.00")
	portal.accounts["1003"] = detailPage("1003", "OCCUPANT", "3 ELM ST", "$30.00")
	// the second lookup finds the search page without its forms.
	portal.broken[2] = true

	ids := []Identifier{
		{AccountNumber: "1001"},
		{AccountNumber: "1002"},
		{AccountNumber: "1003"},
	}
	var seen []int
	start := time.Now()
	results := portal.client(t).Batch(context.Background(), ids, 20*time.Millisecond, func(i int, _ Result) {
		seen = append(seen, i)
	})
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	require.Equal(t, []int{0, 1, 2}, seen)

	require.Equal(t, OutcomeFound, results[0].Outcome)
	require.Equal(t, "10.00", results[0].Snapshot.AmountDue.StringFixed(2))

	require.Equal(t, OutcomeNotFound, results[1].Outcome)
	require.ErrorIs(t, results[1].Err, ErrFormNotFound)

	require.Equal(t, OutcomeFound, results[2].Outcome)
	require.Equal(t, "30.00", results[2].Snapshot.AmountDue.StringFixed(2))

	accounts, _, _ := portal.queries()
	require.Equal(t, []string{"1001", "1003"}, accounts)
	require.GreaterOrEqual(t, elapsed, 40*time.Millisecond, "two cooldowns between three lookups")
}

func TestBatchCancelled(t *testing.T) {
	portal := newFakePortal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := portal.client(t).Batch(ctx, []Identifier{{AccountNumber: "1"}, {AccountNumber: "2"}}, time.Millisecond, nil)
	require.Len(t, results, 2)
	for _, result := range results {
		require.Equal(t, OutcomeFailed, result.Outcome)
		require.ErrorIs(t, result.Err, context.Canceled)
	}
	require.Zero(t, portal.hits())
}
