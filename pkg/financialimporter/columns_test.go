package financialimporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
)

func TestDetectColumns(t *testing.T) {
	c := DetectColumns([]string{"Date opération", "Libellé", "Solde", "Montant EUR", "Référence"})
	assert.Equal(t, Columns{Date: 0, Description: 1, Amount: 3, Debit: -1, Credit: -1, Reference: 4}, c)

	c = DetectColumns([]string{"DATE", "LABEL", "DÉBIT", "CRÉDIT"})
	assert.Equal(t, Columns{Date: 0, Description: 1, Amount: -1, Debit: 2, Credit: 3, Reference: -1}, c)

	// a balance column is only used when nothing better exists
	c = DetectColumns([]string{"Date", "Description", "Solde"})
	assert.Equal(t, 2, c.Amount)
}

func TestRowsFromTableSkipsPreamble(t *testing.T) {
	rows, err := RowsFromTable([][]string{
		{"Compte courant", "FR76 3000 4000"},
		{""},
		{"Date", "Libellé", "Montant"},
		{"05/01/2024", " PRLV EDF ", "-45,00"},
		{"", "", ""},
		{"06/01/2024", "CB METRO", "-12,50"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 4, rows[0].Line)
	assert.Equal(t, "05/01/2024", rows[0].Date)
	assert.Equal(t, "PRLV EDF", rows[0].Description)
	assert.Equal(t, "-45,00", rows[0].Amount)
	assert.Equal(t, 6, rows[1].Line)
}

func TestRowsFromTableDebitCredit(t *testing.T) {
	rows, err := RowsFromTable([][]string{
		{"Date", "Libellé", "Débit", "Crédit"},
		{"05/01/2024", "PRLV EDF", "45,00", ""},
		{"06/01/2024", "REMISE CB", "", "1 200,00"},
		{"07/01/2024", "VIDE", "", ""},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, -45.0, rows[0].Amount)
	assert.Equal(t, 1200.0, rows[1].Amount)
	assert.True(t, math.IsNaN(rows[2].Amount.(float64)) || rows[2].Amount.(float64) == 0)
}

func TestRowsFromTableMissingColumns(t *testing.T) {
	_, err := RowsFromTable([][]string{
		{"Date", "Montant"},
		{"05/01/2024", "-45,00"},
	})
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "libellé/description")

	_, err = RowsFromTable(nil)
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}
