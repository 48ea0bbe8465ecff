package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Billing   BillingConfig
	Router    RouterConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// StorageConfig points at the flat JSON files shared with the dashboard.
type StorageConfig struct {
	DataDir       string
	PaymentsFile  string
	CustomersFile string
	UsersFile     string
	SettingsFile  string
	AppConfigFile string
}

// AuthConfig holds session token options.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	CookieName string
}

// BillingConfig holds the billing calendar settings.
type BillingConfig struct {
	Timezone string
}

// RouterConfig contains credentials for the RouterOS REST API.
type RouterConfig struct {
	BaseURL     string
	Username    string
	Password    string
	InsecureTLS bool
}

// Enabled reports whether a router has been configured.
func (c RouterConfig) Enabled() bool {
	return c.BaseURL != ""
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken     string
	PhoneNumberID   string
	BaseURL         string
	APIVersion      string
	ReportRecipient string
}

// Enabled reports whether monthly summaries should be sent over WhatsApp.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.ReportRecipient != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether commission exports to Google Sheets are configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule          string
	IsolationCronSchedule string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether commission snapshots are archived to MongoDB.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
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
		_ = godotenv.Load()
	}

	ttl, err := time.ParseDuration(getenvWithDefault("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	insecureTLS, _ := strconv.ParseBool(os.Getenv("ROUTER_INSECURE_TLS"))

	dataDir := getenvWithDefault("DATA_DIR", ".")

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataDir:       dataDir,
			PaymentsFile:  resolvePath(dataDir, getenvWithDefault("PAYMENTS_FILE", "billing-payments.json")),
			CustomersFile: resolvePath(dataDir, getenvWithDefault("CUSTOMERS_FILE", "customer-data.json")),
			UsersFile:     resolvePath(dataDir, getenvWithDefault("USERS_FILE", filepath.Join("data", "users.json"))),
			SettingsFile:  resolvePath(dataDir, getenvWithDefault("SETTINGS_FILE", "billing-settings.json")),
			AppConfigFile: resolvePath(dataDir, getenvWithDefault("APP_CONFIG_FILE", filepath.Join("data", "config.json"))),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   ttl,
			CookieName: getenvWithDefault("AUTH_COOKIE_NAME", "auth_token"),
		},
		Billing: BillingConfig{
			Timezone: getenvWithDefault("BILLING_TIMEZONE", "Asia/Jakarta"),
		},
		Router: RouterConfig{
			BaseURL:     os.Getenv("ROUTER_BASE_URL"),
			Username:    os.Getenv("ROUTER_USERNAME"),
			Password:    os.Getenv("ROUTER_PASSWORD"),
			InsecureTLS: insecureTLS,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:     os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:         getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:      getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ReportRecipient: os.Getenv("WHATSAPP_REPORT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule:          getenvWithDefault("REPORT_CRON_SCHEDULE", "0 1 1 * *"),
			IsolationCronSchedule: getenvWithDefault("ISOLATION_CRON_SCHEDULE", "0 6 * * *"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "isp_dashboard"),
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

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	if _, err := time.LoadLocation(c.Billing.Timezone); err != nil {
		return fmt.Errorf("BILLING_TIMEZONE %q is invalid: %w", c.Billing.Timezone, err)
	}

	if c.Router.Enabled() && c.Router.Username == "" {
		return errors.New("ROUTER_USERNAME must be provided when ROUTER_BASE_URL is set")
	}

	if c.WhatsApp.AccessToken != "" && c.WhatsApp.APIVersion == "" {
		return errors.New("WHATSAPP_API_VERSION must not be empty")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	return nil
}

// Location returns the billing calendar time zone. Validate guarantees it loads.
func (c BillingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("UTC+7", 7*60*60)
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func resolvePath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
