package financialimporter

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// days between the spreadsheet epoch (1899-12-30) and the unix epoch
	excelEpochOffsetDays = 25569
	// 9999-12-31
	maxExcelSerial = 2958465
	secondsInDay   = 86400
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006",
	"2.1.2006",
}

// ParseAmount converts a bank or spreadsheet cell into a number. French formatting
// ("1 234,56 €") is understood. Empty input returns 0 and input that is not a
// number returns NaN; callers skip both.
func ParseAmount(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case decimal.Decimal:
		return v.InexactFloat64()
	case json.Number:
		return parseAmountString(v.String())
	case string:
		return parseAmountString(v)
	case *string:
		if v == nil {
			return 0
		}
		return parseAmountString(*v)
	}
	return math.NaN()
}

func parseAmountString(s string) float64 {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
	if s == "" {
		return 0
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastComma > lastDot:
		// 1.234,56 or 1234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastComma >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ValidAmount reports whether an amount coming out of ParseAmount can be imported.
func ValidAmount(f float64) bool {
	return f != 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ParseDate converts a spreadsheet serial day number, a DD/MM/YYYY style string,
// an ISO date or a time.Time into a UTC time. The bool is false when nothing parsed.
func ParseDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case float64:
		return fromSerial(v)
	case float32:
		return fromSerial(float64(v))
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case json.Number:
		return parseDateString(v.String())
	case string:
		return parseDateString(v)
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(serial)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func fromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < 1 || serial > maxExcelSerial {
		return time.Time{}, false
	}
	seconds := math.Round((serial - excelEpochOffsetDays) * secondsInDay)
	return time.Unix(int64(seconds), 0).UTC(), true
}

// ToMoney rounds a parsed amount to cents.
func ToMoney(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
