package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Env struct {
	AppAddr string
	GinMode string

	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDB       string

	MigrationsPath string

	JWTSecret string

	// Workflow tunables.
	QuoteValidityDays    int
	OverduePaymentDays   int
	ExpiringDocumentDays int
}

func LoadEnv() Env {
	_ = godotenv.Load(".env")

	env := Env{}

	env.AppAddr = cast.ToString(getOrReturnDefault("APP_ADDR", ":8080"))
	env.GinMode = cast.ToString(getOrReturnDefault("GIN_MODE", ""))

	env.MySQLHost = cast.ToString(getOrReturnDefault("MYSQL_HOST", "127.0.0.1"))
	env.MySQLPort = cast.ToString(getOrReturnDefault("MYSQL_PORT", "3306"))
	env.MySQLUser = cast.ToString(getOrReturnDefault("MYSQL_USER", "root"))
	env.MySQLPassword = cast.ToString(getOrReturnDefault("MYSQL_PASSWORD", ""))
	env.MySQLDB = cast.ToString(getOrReturnDefault("MYSQL_DB", "autoship"))

	env.MigrationsPath = cast.ToString(getOrReturnDefault("MIGRATIONS_PATH", "migrations"))

	env.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", "change-me-in-production"))

	env.QuoteValidityDays = cast.ToInt(getOrReturnDefault("QUOTE_VALIDITY_DAYS", 30))
	env.OverduePaymentDays = cast.ToInt(getOrReturnDefault("OVERDUE_PAYMENT_DAYS", 30))
	env.ExpiringDocumentDays = cast.ToInt(getOrReturnDefault("EXPIRING_DOCUMENT_DAYS", 30))

	return env
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
