package bsaonline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"waterbill-backend/lib/billing"
	"waterbill-backend/lib/browser"
	"waterbill-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type pageKind int

const (
	pageListing pageKind = iota
	pageNoRecords
	pageDetail
)

func (k pageKind) String() string {
	switch k {
	case pageNoRecords:
		return "no_records"
	case pageDetail:
		return "detail"
	default:
		return "listing"
	}
}

// a single unambiguous match often skips the listing and lands straight on
// the payment step.
var detailMarkers = []string{"Step 3: Make Payment", "Account:"}

const noRecordsMarker = "No records to display"

func classify(html string) pageKind {
	if strings.Contains(html, noRecordsMarker) {
		return pageNoRecords
	}
	for _, marker := range detailMarkers {
		if strings.Contains(html, marker) {
			return pageDetail
		}
	}
	return pageListing
}

// header rows and the restated search criteria share the results table
// with real results.
func isNoiseRow(first, second string) bool {
	if strings.Contains(first, "Address") && strings.Contains(second, "Reference") {
		return true
	}
	return strings.Contains(first, "Search:") || strings.Contains(second, "By:")
}

// detailLink returns the href of the first result row that links to a
// detail or payment page. Result rows have at least three cells: address,
// reference number and name.
func detailLink(ctx context.Context, doc *goquery.Document) (string, bool) {
	href := ""
	doc.Find("table tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return true
		}
		first := htmlutil.CleanText(cells.Eq(0).Text())
		second := htmlutil.CleanText(cells.Eq(1).Text())
		if isNoiseRow(first, second) {
			return true
		}
		anchors := htmlutil.GetAnchors(ctx, row.Find(`a[href*="Detail"], a[href*="Payment"]`))
		if len(anchors) == 0 {
			return true
		}
		href = anchors[0].Href
		return false
	})
	return href, href != ""
}

// resolve turns the page left by a search submission into a snapshot.
func (c *Client) resolve(ctx context.Context, page browser.Page) (billing.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "bsaonline:Resolve")
	defer span.End()

	html, err := page.HTML(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read results page")
		return billing.Snapshot{}, fmt.Errorf("%w: %w", ErrSessionFailure, err)
	}

	kind := classify(html)
	span.SetAttributes(attribute.String("page_kind", kind.String()))
	slog.DebugContext(ctx, "classified search response", "kind", kind.String(), "url", page.URL())

	switch kind {
	case pageNoRecords:
		return billing.Snapshot{}, ErrNoRecords
	case pageDetail:
		return c.ExtractPage(ctx, page)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return billing.Snapshot{}, fmt.Errorf("%w: %w", ErrSessionFailure, err)
	}
	href, ok := detailLink(ctx, doc)
	if !ok {
		return billing.Snapshot{}, ErrNoDetailLink
	}
	span.SetAttributes(attribute.String("detail_link", href))

	err = page.Follow(ctx, href)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to follow detail link")
		return billing.Snapshot{}, navigationError(err)
	}
	return c.ExtractPage(ctx, page)
}
