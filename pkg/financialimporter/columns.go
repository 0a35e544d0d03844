package financialimporter

import (
	"math"
	"strings"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
)

// header rows are looked for in the first lines only, bank exports put account info above them
const maxHeaderScan = 20

// Columns holds the index of each recognised column, -1 when absent.
type Columns struct {
	Date        int
	Description int
	Amount      int
	Debit       int
	Credit      int
	Reference   int
}

func (c Columns) valid() bool {
	return c.Date >= 0 && c.Description >= 0 && (c.Amount >= 0 || c.Debit >= 0 || c.Credit >= 0)
}

func (c Columns) missing() []string {
	var missing []string
	if c.Date < 0 {
		missing = append(missing, "date")
	}
	if c.Description < 0 {
		missing = append(missing, "libellé/description")
	}
	if c.Amount < 0 && c.Debit < 0 && c.Credit < 0 {
		missing = append(missing, "montant or débit/crédit")
	}
	return missing
}

// DetectColumns matches header cells by substring, ignoring case and accents.
// The first matching cell wins, except that a "montant" column beats a "solde" one.
func DetectColumns(header []string) Columns {
	c := Columns{Date: -1, Description: -1, Amount: -1, Debit: -1, Credit: -1, Reference: -1}
	balance := -1

	for i, cell := range header {
		h := fold(cell)
		switch {
		case h == "":
		case strings.Contains(h, "date"):
			if c.Date < 0 {
				c.Date = i
			}
		case strings.Contains(h, "libell") || strings.Contains(h, "label") || strings.Contains(h, "description"):
			if c.Description < 0 {
				c.Description = i
			}
		case strings.Contains(h, "montant") || strings.Contains(h, "amount"):
			if c.Amount < 0 {
				c.Amount = i
			}
		case strings.Contains(h, "solde"):
			if balance < 0 {
				balance = i
			}
		case strings.Contains(h, "debit"):
			if c.Debit < 0 {
				c.Debit = i
			}
		case strings.Contains(h, "credit"):
			if c.Credit < 0 {
				c.Credit = i
			}
		case strings.Contains(h, "reference") || h == "ref":
			if c.Reference < 0 {
				c.Reference = i
			}
		}
	}

	if c.Amount < 0 && c.Debit < 0 && c.Credit < 0 {
		c.Amount = balance
	}
	return c
}

// RowsFromTable finds the header line in records and turns every following line
// into a RawRow. A table without the required columns is rejected before any row
// is looked at.
func RowsFromTable(records [][]string) ([]RawRow, error) {
	if len(records) == 0 {
		return nil, apperror.New(apperror.Validation, "file is empty")
	}

	headerIndex := -1
	var columns Columns
	for i := 0; i < len(records) && i < maxHeaderScan; i++ {
		c := DetectColumns(records[i])
		if c.valid() {
			headerIndex = i
			columns = c
			break
		}
	}

	if headerIndex < 0 {
		c := DetectColumns(records[0])
		return nil, apperror.Newf(apperror.Validation, "missing required columns: %s", strings.Join(c.missing(), ", "))
	}

	rows := make([]RawRow, 0, len(records)-headerIndex-1)
	for i := headerIndex + 1; i < len(records); i++ {
		cells := records[i]
		if blank(cells) {
			continue
		}
		rows = append(rows, columns.row(cells, i+1))
	}
	return rows, nil
}

func (c Columns) row(cells []string, line int) RawRow {
	row := RawRow{
		Line:        line,
		Date:        cell(cells, c.Date),
		Description: strings.TrimSpace(cell(cells, c.Description)),
		Reference:   strings.TrimSpace(cell(cells, c.Reference)),
	}

	if amount := cell(cells, c.Amount); c.Amount >= 0 && strings.TrimSpace(amount) != "" {
		row.Amount = amount
		return row
	}

	row.Amount = debitCredit(cell(cells, c.Debit), cell(cells, c.Credit))
	return row
}

// debitCredit folds split debit/credit columns into one signed amount.
func debitCredit(debitCell, creditCell string) float64 {
	debit := ParseAmount(debitCell)
	credit := ParseAmount(creditCell)
	if math.IsNaN(debit) && math.IsNaN(credit) {
		return math.NaN()
	}
	if math.IsNaN(debit) {
		debit = 0
	}
	if math.IsNaN(credit) {
		credit = 0
	}
	return credit - math.Abs(debit)
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
