package config

const (
	DefaultUpdateFrequency     = "@daily"
	DefaultMaxImportRows       = 10000
	DefaultMaxUploadBytes      = 10 << 20
	DefaultReconcileWindowDays = 15
	DefaultSalaryDayOfMonth    = 5
	DefaultHTTPAddr            = ":8080"
	DefaultDatabase            = "bistroledger"
	DefaultInfluxDatabase      = "bistroledger"
)

// DefaultCategoryRules is used when the config file has no categoryRules.
// Order matters, the first rule with a matching keyword wins.
var DefaultCategoryRules = []CategoryRule{
	{CategoryName: "Fournisseurs", CategoryType: "VARIABLE_COST", Keywords: []string{"METRO", "PROMOCASH", "TRANSGOURMET", "POMONA", "BRAKE"}},
	{CategoryName: "Énergie", CategoryType: "FIXED_COST", Keywords: []string{"EDF", "ENGIE", "TOTALENERGIES", "VEOLIA"}},
	{CategoryName: "Télécom", CategoryType: "FIXED_COST", Keywords: []string{"ORANGE", "SFR", "BOUYGUES", "FREE MOBILE", "FREE TELECOM"}},
	{CategoryName: "Loyer", CategoryType: "FIXED_COST", Keywords: []string{"LOYER", "SCI "}},
	{CategoryName: "Assurances", CategoryType: "FIXED_COST", Keywords: []string{"AXA", "MAAF", "ALLIANZ", "MMA ", "ASSURANCE"}},
	{CategoryName: "Impôts & URSSAF", CategoryType: "TAX", Keywords: []string{"URSSAF", "DGFIP", "IMPOT", "TVA"}},
	{CategoryName: "Frais bancaires", CategoryType: "FINANCIAL", Keywords: []string{"FRAIS", "COMMISSION", "COTIS", "AGIOS"}},
	{CategoryName: "Encaissements CB", CategoryType: "REVENUE", Keywords: []string{"REMISE CB", "SUMUP", "ZETTLE", "STRIPE"}},
}

var DefaultDetectionTargets = []DetectionTarget{
	{CatName: "Énergie", Name: "Électricité & gaz"},
	{CatName: "Télécom", Name: "Internet & téléphone"},
	{CatName: "Loyer", Name: "Loyer"},
	{CatName: "Assurances", Name: "Assurances"},
}

// ApplyDefaults fills zero values in c with the built-in defaults.
func ApplyDefaults(c *Config) {
	f := &c.Finance
	if f.UpdateFrequency == "" {
		f.UpdateFrequency = DefaultUpdateFrequency
	}
	if f.MaxImportRows <= 0 {
		f.MaxImportRows = DefaultMaxImportRows
	}
	if f.MaxUploadBytes <= 0 {
		f.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if f.ReconcileWindowDays <= 0 {
		f.ReconcileWindowDays = DefaultReconcileWindowDays
	}
	if len(f.CategoryRules) == 0 {
		f.CategoryRules = append([]CategoryRule(nil), DefaultCategoryRules...)
	}
	if len(f.DetectionTargets) == 0 {
		f.DetectionTargets = append([]DetectionTarget(nil), DefaultDetectionTargets...)
	}
	if f.Recurring.SampleSize <= 0 {
		f.Recurring.SampleSize = 5
	}
	if f.Recurring.MinOccurrences <= 0 {
		f.Recurring.MinOccurrences = 2
	}
	if f.Salary.CategoryName == "" {
		f.Salary.CategoryName = "Salaires"
	}
	if f.Salary.DayOfMonth <= 0 {
		f.Salary.DayOfMonth = DefaultSalaryDayOfMonth
	}
	if f.Salary.MinOccurrences <= 0 {
		f.Salary.MinOccurrences = 3
	}
	if f.Salary.SampleSize <= 0 {
		f.Salary.SampleSize = 5
	}

	if c.Bank.TimeoutSeconds <= 0 {
		c.Bank.TimeoutSeconds = 30
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.SQL.Database == "" {
		c.SQL.Database = DefaultDatabase
	}
	if c.Influx.Database == "" {
		c.Influx.Database = DefaultInfluxDatabase
	}
}
