package bills

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"waterbill-backend/lib/scrapers/bsaonline"
	"waterbill-backend/services/bills/db"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Refreshed is the outcome of refreshing one property.
type Refreshed struct {
	Property Property
	Result   bsaonline.Result
	// Bill is the stored snapshot, nil unless the lookup found one.
	Bill *Bill
	// Err is set when the snapshot was found but could not be stored.
	Err error
}

// Refresh looks up the current bill of one property, stores it and applies
// what the portal corrected about the property.
func (s Service) Refresh(ctx context.Context, propertyId string) (Refreshed, error) {
	property, err := s.GetProperty(ctx, propertyId)
	if err != nil {
		return Refreshed{}, err
	}
	refreshed, err := s.refresh(ctx, []Property{property})
	if err != nil {
		return Refreshed{}, err
	}
	return refreshed[0], nil
}

// RefreshAll refreshes every active property one after another. A property
// that fails does not stop the others, the run is recorded either way.
func (s Service) RefreshAll(ctx context.Context) ([]Refreshed, error) {
	properties, err := s.listActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, properties)
}

func (s Service) refresh(ctx context.Context, properties []Property) ([]Refreshed, error) {
	ctx, span := tracer.Start(ctx, "Refresh")
	defer span.End()
	span.SetAttributes(attribute.Int("properties", len(properties)))

	runId := uuid.NewString()
	err := s.qry.CreateScrapeRun(ctx, db.CreateScrapeRunParams{
		ID:        runId,
		StartedAt: s.now().UnixMilli(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ids := make([]bsaonline.Identifier, len(properties))
	for i, p := range properties {
		ids[i] = p.Identifier()
	}

	refreshed := make([]Refreshed, len(properties))
	var failures []string
	var found, notFound int
	s.scraper.Batch(ctx, ids, s.cooldown, func(i int, result bsaonline.Result) {
		property := properties[i]
		refreshed[i] = Refreshed{Property: property, Result: result}

		switch result.Outcome {
		case bsaonline.OutcomeFound:
		case bsaonline.OutcomeNotFound:
			notFound++
			return
		default:
			failures = append(failures, fmt.Sprintf("%s: %v", property.Address, result.Err))
			return
		}

		bill, err := s.record(ctx, property, result)
		if err != nil {
			slog.ErrorContext(ctx, "failed to store bill", "property", property.ID, "err", err)
			refreshed[i].Err = err
			failures = append(failures, fmt.Sprintf("%s: %v", property.Address, err))
			return
		}
		refreshed[i].Bill = &bill
		found++
	})

	// the run is closed even when ctx was cancelled halfway.
	err = s.qry.FinishScrapeRun(context.WithoutCancel(ctx), db.FinishScrapeRunParams{
		ID:                runId,
		CompletedAt:       nullInt(ptr(s.now().UnixMilli())),
		Success:           boolInt(len(failures) == 0),
		PropertiesScraped: int64(found),
		ErrorMessage:      strings.Join(failures, "\n"),
		Details:           fmt.Sprintf("found=%d not_found=%d failed=%d", found, notFound, len(failures)),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return refreshed, err
	}

	slog.InfoContext(
		ctx, "refresh finished",
		"run", runId,
		"found", found,
		"not_found", notFound,
		"failed", len(failures),
	)
	return refreshed, nil
}

func ptr[T any](v T) *T {
	return &v
}

// record appends the snapshot and applies the correction in one
// transaction. The account number is replaced, the owner is only filled in
// when unknown and the address is never changed.
func (s Service) record(ctx context.Context, property Property, result bsaonline.Result) (Bill, error) {
	ctx, span := tracer.Start(ctx, "record")
	defer span.End()
	span.SetAttributes(attribute.String("property", property.ID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Bill{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	capturedAt := time.UnixMilli(s.now().UnixMilli())
	params, err := snapshotParams(uuid.NewString(), property.ID, capturedAt, result.Strategy, result.Snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Bill{}, err
	}
	err = txqry.CreateBillSnapshot(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Bill{}, err
	}

	correction := result.Correction
	if correction.AccountNumber != "" && correction.AccountNumber != property.AccountNumber {
		err = txqry.UpdatePropertyAccount(ctx, db.UpdatePropertyAccountParams{
			ID:            property.ID,
			AccountNumber: correction.AccountNumber,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Bill{}, err
		}
		slog.InfoContext(
			ctx, "updated account number",
			"property", property.ID,
			"from", property.AccountNumber,
			"to", correction.AccountNumber,
		)
	}
	if property.OwnerName == "" && correction.OwnerName != "" {
		err = txqry.UpdatePropertyOwner(ctx, db.UpdatePropertyOwnerParams{
			ID:        property.ID,
			OwnerName: correction.OwnerName,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Bill{}, err
		}
	}
	if correction.Address != "" {
		slog.InfoContext(
			ctx, "portal address differs from stored address",
			"property", property.ID,
			"stored", property.Address,
			"portal", correction.Address,
			"similarity", correction.AddressSimilarity,
		)
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Bill{}, err
	}

	return Bill{
		Snapshot:   result.Snapshot,
		ID:         params.ID,
		PropertyID: property.ID,
		CapturedAt: capturedAt,
		Strategy:   result.Strategy,
	}, nil
}
