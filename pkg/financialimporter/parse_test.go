package financialimporter

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]struct {
		raw  any
		want float64
	}{
		"french thousands and euro": {"1 234,56 €", 1234.56},
		"negative comma":            {"-45,00", -45.0},
		"quoted":                    {`"-12,30"`, -12.30},
		"non breaking space":        {"2 500,00", 2500.00},
		"narrow non breaking space": {"-1 000,5", -1000.5},
		"dot thousands":             {"1.234,56", 1234.56},
		"english":                   {"1,234.56", 1234.56},
		"plain number":              {42.5, 42.5},
		"int":                       {12, 12},
		"decimal":                   {decimal.RequireFromString("-7.25"), -7.25},
		"empty":                     {"", 0},
		"blank":                     {"   ", 0},
		"nil":                       {nil, 0},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, c.want, ParseAmount(c.raw), 0.0000001)
		})
	}
}

func TestParseAmountNotANumber(t *testing.T) {
	assert.True(t, math.IsNaN(ParseAmount("€")))
	assert.True(t, math.IsNaN(ParseAmount("abc")))
	assert.True(t, math.IsNaN(ParseAmount("1-2")))
	assert.True(t, math.IsNaN(ParseAmount(struct{}{})))

	assert.False(t, ValidAmount(ParseAmount("abc")))
	assert.False(t, ValidAmount(ParseAmount("")))
	assert.True(t, ValidAmount(ParseAmount("-0,01")))
}

func TestParseDate(t *testing.T) {
	cases := map[string]struct {
		raw  any
		want time.Time
	}{
		"excel serial":         {45000.0, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)},
		"excel serial int":     {45000, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)},
		"excel serial string":  {"45000", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)},
		"excel serial noon":    {45000.5, time.Date(2023, 3, 15, 12, 0, 0, 0, time.UTC)},
		"unix epoch serial":    {25569.0, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
		"day month year":       {"05/01/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		"short day month year": {"5/1/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		"dashes":               {"31-12-2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		"dots":                 {"31.12.2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		"iso":                  {"2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		"rfc3339":              {"2024-02-29T10:30:00Z", time.Date(2024, 2, 29, 10, 30, 0, 0, time.UTC)},
		"time":                 {time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseDate(c.raw)
			assert.True(t, ok)
			assert.True(t, c.want.Equal(got), "want %s got %s", c.want, got)
		})
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, raw := range []any{nil, "", "not a date", "31/02/2024", "13/13/2024", 0.0, -5, math.NaN(), time.Time{}, 1e9} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, "%v should not parse", raw)
	}
}

func TestToMoney(t *testing.T) {
	assert.Equal(t, "1234.56", ToMoney(1234.56).String())
	assert.Equal(t, "-45", ToMoney(-45.0).String())
	assert.True(t, ToMoney(0.1+0.2).Equal(decimal.RequireFromString("0.3")))
}
