package bills

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"waterbill-backend/lib/scrapers/bsaonline"
	"waterbill-backend/services/bills/db"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/bills")

var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrNoBill           = errors.New("no bill captured yet")
	ErrEmptyAddress     = errors.New("property address is empty")
)

// Scraper is the part of bsaonline.Client the service drives.
type Scraper interface {
	Lookup(ctx context.Context, id bsaonline.Identifier) bsaonline.Result
	Batch(ctx context.Context, ids []bsaonline.Identifier, cooldown time.Duration, each func(i int, result bsaonline.Result)) []bsaonline.Result
}

type Service struct {
	db       *sql.DB
	qry      *db.Queries
	scraper  Scraper
	cooldown time.Duration
	now      func() time.Time
}

func NewService(database *sql.DB, scraper Scraper, cooldown time.Duration) Service {
	return Service{
		db:       database,
		qry:      db.New(database),
		scraper:  scraper,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (s Service) AddProperty(ctx context.Context, address, accountNumber, ownerName string) (Property, error) {
	ctx, span := tracer.Start(ctx, "AddProperty")
	defer span.End()

	address = strings.TrimSpace(address)
	if address == "" {
		return Property{}, ErrEmptyAddress
	}

	params := db.CreatePropertyParams{
		ID:            uuid.NewString(),
		Address:       address,
		AccountNumber: strings.TrimSpace(accountNumber),
		OwnerName:     strings.TrimSpace(ownerName),
		CreatedAt:     s.now().UnixMilli(),
	}
	err := s.qry.CreateProperty(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Property{}, err
	}

	return Property{
		ID:            params.ID,
		Address:       params.Address,
		AccountNumber: params.AccountNumber,
		OwnerName:     params.OwnerName,
		Active:        true,
		CreatedAt:     time.UnixMilli(params.CreatedAt),
	}, nil
}

func (s Service) GetProperty(ctx context.Context, id string) (Property, error) {
	row, err := s.qry.GetProperty(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Property{}, fmt.Errorf("%w: %s", ErrPropertyNotFound, id)
	}
	if err != nil {
		return Property{}, err
	}
	return propertyFromRow(row), nil
}

func (s Service) ListProperties(ctx context.Context) ([]Property, error) {
	rows, err := s.qry.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	properties := make([]Property, len(rows))
	for i, r := range rows {
		properties[i] = propertyFromRow(r)
	}
	return properties, nil
}

func (s Service) listActive(ctx context.Context) ([]Property, error) {
	rows, err := s.qry.ListActiveProperties(ctx)
	if err != nil {
		return nil, err
	}
	properties := make([]Property, len(rows))
	for i, r := range rows {
		properties[i] = propertyFromRow(r)
	}
	return properties, nil
}

// SetActive excludes (or includes again) a property from refreshes and
// summaries, its history is kept either way.
func (s Service) SetActive(ctx context.Context, id string, active bool) error {
	_, err := s.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	err = s.qry.SetPropertyActive(ctx, db.SetPropertyActiveParams{
		ID:     id,
		Active: boolInt(active),
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "updated property", "property", id, "active", active)
	return nil
}

func (s Service) Latest(ctx context.Context, propertyId string) (Bill, error) {
	row, err := s.qry.GetLatestBillSnapshot(ctx, propertyId)
	if errors.Is(err, sql.ErrNoRows) {
		return Bill{}, ErrNoBill
	}
	if err != nil {
		return Bill{}, err
	}
	return billFromRow(row)
}

// History returns the captured bills of a property newest first, at most
// limit of them (all when limit <= 0).
func (s Service) History(ctx context.Context, propertyId string, limit int) ([]Bill, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()
	span.SetAttributes(attribute.String("property", propertyId))

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.qry.ListBillSnapshots(ctx, db.ListBillSnapshotsParams{
		PropertyID: propertyId,
		Limit:      int64(limit),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	bills := make([]Bill, 0, len(rows))
	for _, r := range rows {
		bill, err := billFromRow(r)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

func (s Service) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.qry.ListScrapeRuns(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	runs := make([]Run, len(rows))
	for i, r := range rows {
		runs[i] = runFromRow(r)
	}
	return runs, nil
}
