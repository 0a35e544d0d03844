package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
finance:
  reconcileWindowDays: 10
  categoryRules:
    - categoryName: Énergie
      categoryType: FIXED_COST
      keywords: [EDF]
  salary:
    keywords: [dupont]
bank:
  baseUrl: https://bank.example.com/api/v2
  accountId: acc-1
`

func TestReadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	c, err := readConfig("BISTROLEDGER_TEST_UNSET_CONFIG", path)
	require.NoError(t, err)

	assert.Equal(t, 10, c.Finance.ReconcileWindowDays)
	assert.Equal(t, DefaultMaxImportRows, c.Finance.MaxImportRows)
	require.Len(t, c.Finance.CategoryRules, 1)
	assert.Equal(t, []string{"EDF"}, c.Finance.CategoryRules[0].Keywords)
	assert.Equal(t, []string{"dupont"}, c.Finance.Salary.Keywords)
	assert.Equal(t, 5, c.Finance.Salary.DayOfMonth)
	assert.Equal(t, DefaultDetectionTargets, c.Finance.DetectionTargets)
	assert.Equal(t, "acc-1", CurrentBankConfig().AccountID)
}

func TestReadConfigFromEnv(t *testing.T) {
	t.Setenv("BISTROLEDGER_TEST_CONFIG", "finance:\n  maxImportRows: 50\n")

	c, err := readConfig("BISTROLEDGER_TEST_CONFIG", "/does/not/exist.yml")
	require.NoError(t, err)
	assert.Equal(t, 50, c.Finance.MaxImportRows)
	assert.Equal(t, DefaultCategoryRules, c.Finance.CategoryRules)
	assert.Equal(t, DefaultReconcileWindowDays, c.Finance.ReconcileWindowDays)
}

func TestReadSecretsFallsBackToEnv(t *testing.T) {
	t.Setenv("BANK_ACCESS_TOKEN", "token-123")
	t.Setenv("SQL_HOST", "db.internal")

	s, err := readSecrets(filepath.Join(t.TempDir(), "missing.ejson"))
	require.NoError(t, err)
	assert.Equal(t, "token-123", s.Bank.AccessToken)
	assert.Equal(t, "db.internal", CurrentSqlSecrets().SqlHost)
}
