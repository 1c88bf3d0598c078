package report

import (
	"time"

	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
)

// Summary is the same-day sales card set: all zero when there are no bills.
type Summary struct {
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
	Max     decimal.Decimal `json:"max"`
	Min     decimal.Decimal `json:"min"`
}

func Summarize(bills []models.Bill) Summary {
	s := Summary{
		Total:   decimal.Zero,
		Average: decimal.Zero,
		Max:     decimal.Zero,
		Min:     decimal.Zero,
	}
	if len(bills) == 0 {
		return s
	}

	s.Count = len(bills)
	s.Max = bills[0].Total
	s.Min = bills[0].Total
	for _, b := range bills {
		s.Total = s.Total.Add(b.Total)
		if b.Total.GreaterThan(s.Max) {
			s.Max = b.Total
		}
		if b.Total.LessThan(s.Min) {
			s.Min = b.Total
		}
	}
	s.Average = s.Total.Div(decimal.NewFromInt(int64(s.Count)))
	return s
}

// DayRange returns [start of day, start of next day) for now in loc.
func DayRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Recent returns at most n bills, keeping the given order.
func Recent(bills []models.Bill, n int) []models.Bill {
	if len(bills) > n {
		return bills[:n]
	}
	return bills
}
