package bankapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
)

var (
	dateKeys        = []string{"bookingDate", "valueDate", "date", "bookingDateTime"}
	indicatorKeys   = []string{"creditDebitIndicator", "credit_debit_indicator", "type"}
	descriptionKeys = []string{"remittanceInformationUnstructured", "remittanceInformationUnstructuredArray", "description", "creditorName", "debtorName"}
	referenceKeys   = []string{"transactionId", "internalTransactionId", "entryReference"}
)

// Normalize turns an aggregator payload into raw rows. Three shapes are accepted:
// a bare array of transactions, {"booked": [...], "pending": [...]} and the same
// object nested under "transactions". Pending entries are kept only when
// includePending is set.
func Normalize(payload []byte, includePending bool) ([]financialimporter.RawRow, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, apperror.Wrap(apperror.External, err, "bank api returned invalid json")
	}

	booked, pending, err := split(doc)
	if err != nil {
		return nil, err
	}

	rows := make([]financialimporter.RawRow, 0, len(booked)+len(pending))
	for _, entry := range booked {
		rows = appendEntry(rows, entry, false)
	}
	if includePending {
		for _, entry := range pending {
			rows = appendEntry(rows, entry, true)
		}
	}
	return rows, nil
}

func split(doc any) (booked, pending []any, err error) {
	switch v := doc.(type) {
	case []any:
		return v, nil, nil
	case map[string]any:
		if nested, ok := v["transactions"].(map[string]any); ok {
			v = nested
		} else if list, ok := v["transactions"].([]any); ok {
			return list, nil, nil
		}
		booked, _ = v["booked"].([]any)
		pending, _ = v["pending"].([]any)
		if booked == nil && pending == nil {
			return nil, nil, apperror.New(apperror.External, "bank api payload has no booked or pending transactions")
		}
		return booked, pending, nil
	}
	return nil, nil, apperror.Newf(apperror.External, "unexpected bank api payload %T", doc)
}

func appendEntry(rows []financialimporter.RawRow, entry any, pending bool) []financialimporter.RawRow {
	m, ok := entry.(map[string]any)
	if !ok {
		return rows
	}
	return append(rows, financialimporter.RawRow{
		Line:        len(rows) + 1,
		Date:        first(m, dateKeys),
		Amount:      amount(m),
		Description: text(first(m, descriptionKeys)),
		Reference:   text(first(m, referenceKeys)),
		Indicator:   text(first(m, indicatorKeys)),
		Pending:     pending,
	})
}

func amount(m map[string]any) any {
	if ta, ok := m["transactionAmount"].(map[string]any); ok {
		if v, ok := ta["amount"]; ok {
			return v
		}
	}
	switch v := m["amount"].(type) {
	case map[string]any:
		if value, ok := v["value"]; ok {
			return value
		}
		return v["amount"]
	default:
		return v
	}
}

// first returns the first non-empty value among keys.
func first(m map[string]any, keys []string) any {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if s := text(v); s == "" {
			continue
		}
		return v
	}
	return nil
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s := text(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case json.Number:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
