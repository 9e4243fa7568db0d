package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendSupabase = "supabase"
	BackendMongoDB  = "mongodb"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	Supabase  SupabaseConfig
	Auth      AuthConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	SQLite    SQLiteConfig
	Stock     StockConfig
	Users     UsersConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Backend string
}

// SupabaseConfig points at the hosted backend serving both records and auth.
type SupabaseConfig struct {
	URL        string
	AnonKey    string
	ServiceKey string
	JWTSecret  string
}

// AuthConfig controls session handling.
type AuthConfig struct {
	// Disabled treats every request as signed in as DemoUser.
	Disabled    bool
	DemoUser    string
	RedirectURL string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PostgresConfig holds the connection string for the postgres backend.
type PostgresConfig struct {
	DSN string
}

// SQLiteConfig holds the database file for the sqlite backend.
type SQLiteConfig struct {
	Path string
}

// StockConfig tunes the stock adjustment protocol.
type StockConfig struct {
	Concurrency       string
	MaxAttempts       int
	LowStockThreshold float64
}

// UsersConfig carries the email to display name directory.
type UsersConfig struct {
	Directory string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// Notifications are disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	Recipient     string
}

// Enabled reports whether outbound messages can be sent.
func (w WhatsAppConfig) Enabled() bool { return w.AccessToken != "" }

// SheetsConfig contains configuration required to export to Google Sheets.
// Export is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the spreadsheet export is configured.
func (s SheetsConfig) Enabled() bool { return s.SpreadsheetID != "" }

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	DigestSchedule  string
	ExportSchedule  string
	RefreshSchedule string
	Timezone        string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	maxAttempts, err := getenvInt("STOCK_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	threshold, err := getenvFloat("LOW_STOCK_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	authDisabled, err := getenvBool("AUTH_DISABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getenvWithDefault("STORE_BACKEND", BackendSupabase)),
		},
		Supabase: SupabaseConfig{
			URL:        strings.TrimSuffix(os.Getenv("SUPABASE_URL"), "/"),
			AnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
			JWTSecret:  os.Getenv("SUPABASE_JWT_SECRET"),
		},
		Auth: AuthConfig{
			Disabled:    authDisabled,
			DemoUser:    getenvWithDefault("DEMO_USER_EMAIL", "demo@localhost"),
			RedirectURL: os.Getenv("PASSWORD_RESET_REDIRECT_URL"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stockroom"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DATABASE_URL"),
		},
		SQLite: SQLiteConfig{
			Path: getenvWithDefault("SQLITE_PATH", "stockroom.db"),
		},
		Stock: StockConfig{
			Concurrency:       getenvWithDefault("STOCK_CONCURRENCY", "none"),
			MaxAttempts:       maxAttempts,
			LowStockThreshold: threshold,
		},
		Users: UsersConfig{
			Directory: os.Getenv("USER_DIRECTORY"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			Recipient:     os.Getenv("WHATSAPP_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
		Reporting: ReportingConfig{
			DigestSchedule:  getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 7 * * 1-5"),
			ExportSchedule:  getenvWithDefault("EXPORT_CRON_SCHEDULE", "0 20 * * *"),
			RefreshSchedule: getenvWithDefault("CATALOG_REFRESH_SCHEDULE", "@every 5m"),
			Timezone:        getenvWithDefault("TIMEZONE", "Europe/Warsaw"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Backend {
	case BackendSupabase:
		if c.Supabase.URL == "" {
			return errors.New("SUPABASE_URL must be provided for the supabase backend")
		}
		if c.Supabase.AnonKey == "" && c.Supabase.ServiceKey == "" {
			return errors.New("SUPABASE_ANON_KEY or SUPABASE_SERVICE_KEY must be provided for the supabase backend")
		}
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb backend")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("DATABASE_URL must be provided for the postgres backend")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND %q is not supported", c.Store.Backend)
	}

	if !c.Auth.Disabled {
		switch {
		case c.Supabase.URL == "":
			return errors.New("SUPABASE_URL must be provided unless AUTH_DISABLED is set")
		case c.Supabase.AnonKey == "":
			return errors.New("SUPABASE_ANON_KEY must be provided unless AUTH_DISABLED is set")
		case c.Supabase.JWTSecret == "":
			return errors.New("SUPABASE_JWT_SECRET must be provided unless AUTH_DISABLED is set")
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Stock.Concurrency)) {
	case "", "none", "optimistic":
	default:
		return fmt.Errorf("STOCK_CONCURRENCY %q must be none or optimistic", c.Stock.Concurrency)
	}

	if c.Stock.MaxAttempts < 1 {
		return errors.New("STOCK_MAX_ATTEMPTS must be at least 1")
	}

	if c.Stock.LowStockThreshold <= 0 {
		return errors.New("LOW_STOCK_THRESHOLD must be greater than zero")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.Recipient == "":
			return errors.New("WHATSAPP_RECIPIENT must be provided when WHATSAPP_TOKEN is set")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_EXPORT_ID is set")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
