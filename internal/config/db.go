package config

const (
	// EngineMySQL selects the gorm mysql driver.
	EngineMySQL = "mysql"
	// EnginePostgres selects the gorm postgres driver.
	EnginePostgres = "postgres"
	// EngineSQLite selects the pure go sqlite driver; Name is the database file.
	EngineSQLite = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string
}

// EngineSupported reports whether GormEngine names a known driver.
func (d DB) EngineSupported() bool {
	switch d.GormEngine {
	case EngineMySQL, EnginePostgres, EngineSQLite:
		return true
	default:
		return false
	}
}
