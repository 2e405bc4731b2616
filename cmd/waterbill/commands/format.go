package commands

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const dateFormat = "01/02/2006"

func formatMoney(value *decimal.Decimal) string {
	if value == nil {
		return "-"
	}
	return "$" + value.StringFixed(2)
}

func formatDate(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Format(dateFormat)
}

func formatUsage(value *int64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatInt(*value, 10) + " gal"
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
