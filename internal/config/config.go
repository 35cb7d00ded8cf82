package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface. Only the
// server and the local store are required; everything else degrades to an
// offline-safe default when absent.
type Config struct {
	Server       ServerConfig
	Store        StoreConfig
	MongoDB      MongoDBConfig
	AI           AIConfig
	SMS          SMSConfig
	Sheets       SheetsConfig
	Subscription SubscriptionConfig
	Sync         SyncConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StoreConfig locates the embedded local database.
type StoreConfig struct {
	Path string
}

// MongoDBConfig holds settings for the remote document store. An empty URI
// selects local-only demo mode.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AIConfig holds settings for the insight collaborator.
type AIConfig struct {
	AnthropicKey string
}

// SMSConfig holds settings for the recovery-code gateway. When BaseURL is
// empty, codes are surfaced through the log instead.
type SMSConfig struct {
	BaseURL  string
	APIKey   string
	SenderID string
}

// SheetsConfig holds settings for the daily sales export. Optional.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// SubscriptionConfig carries the manual renewal code. The default is the
// demo literal; a real deployment replaces it with payment verification.
type SubscriptionConfig struct {
	RenewalCode string
}

// SyncConfig holds scheduler-related settings.
type SyncConfig struct {
	CronSchedule        string
	SalesExportSchedule string
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

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Store: StoreConfig{
			Path: getenvWithDefault("SQLITE_PATH", "./data/clinicstock.db"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "ruralmed"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		SMS: SMSConfig{
			BaseURL:  os.Getenv("SMS_GATEWAY_URL"),
			APIKey:   os.Getenv("SMS_GATEWAY_API_KEY"),
			SenderID: getenvWithDefault("SMS_SENDER_ID", "RuralMed"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
		Subscription: SubscriptionConfig{
			RenewalCode: getenvWithDefault("RENEWAL_CODE", "2005"),
		},
		Sync: SyncConfig{
			CronSchedule:        getenvWithDefault("SYNC_CRON_SCHEDULE", "*/15 * * * *"),
			SalesExportSchedule: getenvWithDefault("SALES_EXPORT_CRON_SCHEDULE", "0 20 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures required fields are populated and optional feature blocks
// are either complete or absent.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Store.Path == "" {
		return errors.New("SQLITE_PATH must be provided")
	}
	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}
	if c.SMS.BaseURL != "" && c.SMS.APIKey == "" {
		return errors.New("SMS_GATEWAY_API_KEY must be provided when SMS_GATEWAY_URL is set")
	}
	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_EXPORT_ID is set")
	}
	if c.Subscription.RenewalCode == "" {
		return errors.New("RENEWAL_CODE must not be empty")
	}
	if c.Sync.CronSchedule == "" {
		return errors.New("SYNC_CRON_SCHEDULE must be provided")
	}

	return nil
}

// RemoteConfigured reports whether a remote document store is set up.
func (c *Config) RemoteConfigured() bool {
	return c.MongoDB.URI != ""
}

// SMSConfigured reports whether a real delivery gateway is set up.
func (c *Config) SMSConfigured() bool {
	return c.SMS.BaseURL != ""
}

// SheetsConfigured reports whether the sales export is set up.
func (c *Config) SheetsConfigured() bool {
	return c.Sheets.SpreadsheetID != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
