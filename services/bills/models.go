package bills

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"waterbill-backend/lib/billing"
	"waterbill-backend/lib/scrapers/bsaonline"
	"waterbill-backend/services/bills/db"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type Property struct {
	ID            string
	Address       string
	AccountNumber string
	OwnerName     string
	Active        bool
	CreatedAt     time.Time
}

func (p Property) Identifier() bsaonline.Identifier {
	return bsaonline.Identifier{
		AccountNumber: p.AccountNumber,
		Address:       p.Address,
	}
}

// Bill is a stored snapshot. Its status is not stored, call Status with
// the current date.
type Bill struct {
	billing.Snapshot
	ID         string
	PropertyID string
	CapturedAt time.Time
	Strategy   bsaonline.Strategy
}

type Run struct {
	ID                string
	StartedAt         time.Time
	CompletedAt       *time.Time
	Success           bool
	PropertiesScraped int
	ErrorMessage      string
	Details           string
}

type chargeRow struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

func propertyFromRow(row db.Property) Property {
	return Property{
		ID:            row.ID,
		Address:       row.Address,
		AccountNumber: row.AccountNumber,
		OwnerName:     row.OwnerName,
		Active:        row.Active != 0,
		CreatedAt:     time.UnixMilli(row.CreatedAt),
	}
}

func runFromRow(row db.ScrapeRun) Run {
	run := Run{
		ID:                row.ID,
		StartedAt:         time.UnixMilli(row.StartedAt),
		Success:           row.Success != 0,
		PropertiesScraped: int(row.PropertiesScraped),
		ErrorMessage:      row.ErrorMessage,
		Details:           row.Details,
	}
	if row.CompletedAt.Valid {
		completed := time.UnixMilli(row.CompletedAt.Int64)
		run.CompletedAt = &completed
	}
	return run
}

func nullDecimal(value *decimal.Decimal) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.StringFixed(2), Valid: true}
}

func nullDate(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.Format(dateLayout), Valid: true}
}

func nullInt(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func boolInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

func snapshotParams(id, propertyId string, capturedAt time.Time, strategy bsaonline.Strategy, snapshot billing.Snapshot) (db.CreateBillSnapshotParams, error) {
	charges := make([]chargeRow, len(snapshot.Charges))
	for i, c := range snapshot.Charges {
		charges[i] = chargeRow{Name: c.Name, Amount: c.Amount}
	}
	encoded, err := json.Marshal(charges)
	if err != nil {
		return db.CreateBillSnapshotParams{}, err
	}

	return db.CreateBillSnapshotParams{
		ID:               id,
		PropertyID:       propertyId,
		CapturedAt:       capturedAt.UnixMilli(),
		Strategy:         string(strategy),
		AccountNumber:    snapshot.AccountNumber,
		Address:          snapshot.Address,
		OwnerName:        snapshot.OwnerName,
		AmountDue:        snapshot.AmountDue.StringFixed(2),
		DueDate:          nullDate(snapshot.DueDate),
		StatementDate:    nullDate(snapshot.StatementDate),
		PreviousBalance:  nullDecimal(snapshot.PreviousBalance),
		CurrentCharges:   nullDecimal(snapshot.CurrentCharges),
		LateFees:         nullDecimal(snapshot.LateFees),
		PaymentsReceived: nullDecimal(snapshot.PaymentsReceived),
		WaterUsage:       nullInt(snapshot.WaterUsage),
		Charges:          string(encoded),
		RawText:          snapshot.RawText,
	}, nil
}

func parseDecimal(column string, value sql.NullString) (*decimal.Decimal, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(value.String)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", column, err)
	}
	return &parsed, nil
}

func parseDate(column string, value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value.String)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", column, err)
	}
	return &parsed, nil
}

func billFromRow(row db.BillSnapshot) (Bill, error) {
	amount, err := decimal.NewFromString(row.AmountDue)
	if err != nil {
		return Bill{}, fmt.Errorf("column amount_due: %w", err)
	}

	bill := Bill{
		ID:         row.ID,
		PropertyID: row.PropertyID,
		CapturedAt: time.UnixMilli(row.CapturedAt),
		Strategy:   bsaonline.Strategy(row.Strategy),
		Snapshot: billing.Snapshot{
			AccountNumber: row.AccountNumber,
			Address:       row.Address,
			OwnerName:     row.OwnerName,
			AmountDue:     amount,
			RawText:       row.RawText,
		},
	}
	if row.WaterUsage.Valid {
		usage := row.WaterUsage.Int64
		bill.WaterUsage = &usage
	}

	dates := []struct {
		column string
		value  sql.NullString
		out    **time.Time
	}{
		{"due_date", row.DueDate, &bill.DueDate},
		{"statement_date", row.StatementDate, &bill.StatementDate},
	}
	for _, d := range dates {
		*d.out, err = parseDate(d.column, d.value)
		if err != nil {
			return Bill{}, err
		}
	}

	amounts := []struct {
		column string
		value  sql.NullString
		out    **decimal.Decimal
	}{
		{"previous_balance", row.PreviousBalance, &bill.PreviousBalance},
		{"current_charges", row.CurrentCharges, &bill.CurrentCharges},
		{"late_fees", row.LateFees, &bill.LateFees},
		{"payments_received", row.PaymentsReceived, &bill.PaymentsReceived},
	}
	for _, a := range amounts {
		*a.out, err = parseDecimal(a.column, a.value)
		if err != nil {
			return Bill{}, err
		}
	}

	var charges []chargeRow
	err = json.Unmarshal([]byte(row.Charges), &charges)
	if err != nil {
		return Bill{}, fmt.Errorf("column charges: %w", err)
	}
	for _, c := range charges {
		bill.Charges = append(bill.Charges, billing.Charge{Name: c.Name, Amount: c.Amount})
	}

	return bill, nil
}
