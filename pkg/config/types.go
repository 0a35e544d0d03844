package config

type Config struct {
	Finance FinanceConfig `json:"finance"`
	Bank    BankConfig    `json:"bank"`
	HTTP    HTTPConfig    `json:"http"`
	SQL     SQLConfig     `json:"sql"`
	Influx  InfluxConfig  `json:"influx"`
}

type Secrets struct {
	SQL    SqlSecrets    `json:"sql"`
	Bank   BankSecrets   `json:"bank"`
	Influx InfluxSecrets `json:"influx"`

	// Alternative to the SQL struct, designed to be used with heroku env variable
	DatabaseURL string `json:"databaseUrl" env:"DATABASE_URL"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Finance
///////////////////////////////////////////////////////////////////////////////////////

type FinanceConfig struct {
	// cron spec for the recurring cost sweep and bank sync
	UpdateFrequency     string            `json:"updateFrequency"`
	MaxImportRows       int               `json:"maxImportRows"`
	MaxUploadBytes      int64             `json:"maxUploadBytes"`
	ReconcileWindowDays int               `json:"reconcileWindowDays"`
	CategoryRules       []CategoryRule    `json:"categoryRules"`
	DetectionTargets    []DetectionTarget `json:"detectionTargets"`
	Recurring           RecurringConfig   `json:"recurring"`
	Salary              SalaryConfig      `json:"salary"`
}

type CategoryRule struct {
	CategoryName string   `json:"categoryName"`
	CategoryType string   `json:"categoryType"`
	Keywords     []string `json:"keywords"`
}

type DetectionTarget struct {
	CatName string `json:"catName"`
	Name    string `json:"name"`
}

type RecurringConfig struct {
	SampleSize     int `json:"sampleSize"`
	MinOccurrences int `json:"minOccurrences"`
}

type SalaryConfig struct {
	Keywords       []string `json:"keywords"`
	CategoryName   string   `json:"categoryName"`
	DayOfMonth     int      `json:"dayOfMonth"`
	MinOccurrences int      `json:"minOccurrences"`
	SampleSize     int      `json:"sampleSize"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Bank
///////////////////////////////////////////////////////////////////////////////////////

type BankConfig struct {
	BaseURL        string `json:"baseUrl"`
	AccountID      string `json:"accountId"`
	IncludePending bool   `json:"includePending"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type BankSecrets struct {
	AccessToken string `json:"accessToken" env:"BANK_ACCESS_TOKEN"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Storage, stats & http
///////////////////////////////////////////////////////////////////////////////////////

type SQLConfig struct {
	Database string `json:"database"`
}

type SqlSecrets struct {
	SqlHost     string `json:"sqlHost" env:"SQL_HOST"`
	SqlUsername string `json:"sqlUsername" env:"SQL_USERNAME"`
	SqlPassword string `json:"sqlPassword" env:"SQL_PASSWORD"`
}

type InfluxConfig struct {
	Database string `json:"database"`
}

type InfluxSecrets struct {
	InfluxEndpoint string `json:"influxEndpoint" env:"INFLUX_ENDPOINT"`
	InfluxUsername string `json:"influxUsername" env:"INFLUX_USERNAME"`
	InfluxPassword string `json:"influxPassword" env:"INFLUX_PASSWORD"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}
