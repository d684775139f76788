// Package config loads service settings from defaults, an optional YAML
// file named by APP_CONFIG and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreWorkbook = "workbook"

	BlobLocal = "local"
	BlobDrive = "drive"
)

// Config holds every service setting.
type Config struct {
	HTTPAddr    string         `yaml:"http_addr"`
	LogLevel    string         `yaml:"log_level"`
	CORSOrigins []string       `yaml:"cors_origins"`
	Store       StoreConfig    `yaml:"store"`
	Blob        BlobConfig     `yaml:"blob"`
	Auth        AuthConfig     `yaml:"auth"`
	Notify      NotifyConfig   `yaml:"notify"`
	Document    DocumentConfig `yaml:"document"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Backend      string `yaml:"backend"`
	DatabaseURL  string `yaml:"database_url"`
	WorkbookPath string `yaml:"workbook_path"`
}

// BlobConfig selects where documents and images are uploaded.
type BlobConfig struct {
	Backend              string `yaml:"backend"`
	LocalRoot            string `yaml:"local_root"`
	PublicBaseURL        string `yaml:"public_base_url"`
	DriveFolderID        string `yaml:"drive_folder_id"`
	DriveCredentialsFile string `yaml:"drive_credentials_file"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// Disabled lets requests without a token through as AnonymousName.
	Disabled      bool   `yaml:"disabled"`
	AnonymousName string `yaml:"anonymous_name"`
}

// NotifyConfig configures the new-note webhook.
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Template   string        `yaml:"template"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DocumentConfig controls document rendering.
type DocumentConfig struct {
	CompanyName    string   `yaml:"company_name"`
	LogoPath       string   `yaml:"logo_path"`
	Currency       string   `yaml:"currency"`
	CurrencyPlaces int32    `yaml:"currency_places"`
	ReasonBudget   int      `yaml:"reason_budget"`
	Categories     []string `yaml:"categories"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Store: StoreConfig{
			Backend:      StoreWorkbook,
			WorkbookPath: "var/debit_notes.xlsx",
		},
		Blob: BlobConfig{
			Backend:       BlobLocal,
			LocalRoot:     "var/files",
			PublicBaseURL: "http://localhost:8080/files",
		},
		Auth: AuthConfig{AnonymousName: "Site Office"},
		Notify: NotifyConfig{
			Timeout: 5 * time.Second,
		},
		Document: DocumentConfig{
			CompanyName:    "Debit Notes",
			Currency:       "INR",
			CurrencyPlaces: 2,
			ReasonBudget:   55,
		},
	}
}

// Load builds the configuration and validates it.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("APP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	if origins := splitCSV(os.Getenv("CORS_ORIGINS")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}

	cfg.Store.Backend = getenvDefault("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.Store.DatabaseURL))
	cfg.Store.WorkbookPath = getenvDefault("WORKBOOK_PATH", cfg.Store.WorkbookPath)

	cfg.Blob.Backend = getenvDefault("BLOB_BACKEND", cfg.Blob.Backend)
	cfg.Blob.LocalRoot = getenvDefault("BLOB_LOCAL_ROOT", cfg.Blob.LocalRoot)
	cfg.Blob.PublicBaseURL = getenvDefault("PUBLIC_BASE_URL", cfg.Blob.PublicBaseURL)
	cfg.Blob.DriveFolderID = getenvDefault("DRIVE_FOLDER_ID", cfg.Blob.DriveFolderID)
	cfg.Blob.DriveCredentialsFile = getenvDefault("DRIVE_CREDENTIALS_FILE", cfg.Blob.DriveCredentialsFile)

	cfg.Auth.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.Auth.JWTSecret))
	cfg.Auth.Disabled = getenvBoolDefault("AUTH_DISABLED", cfg.Auth.Disabled)
	cfg.Auth.AnonymousName = getenvDefault("AUTH_ANONYMOUS_NAME", cfg.Auth.AnonymousName)

	cfg.Notify.WebhookURL = getenvDefault("NOTIFY_WEBHOOK_URL", cfg.Notify.WebhookURL)
	cfg.Notify.Template = getenvDefault("NOTIFY_TEMPLATE", cfg.Notify.Template)
	cfg.Notify.Timeout = getenvDuration("NOTIFY_TIMEOUT", cfg.Notify.Timeout)

	cfg.Document.CompanyName = getenvDefault("COMPANY_NAME", cfg.Document.CompanyName)
	cfg.Document.LogoPath = getenvDefault("COMPANY_LOGO", cfg.Document.LogoPath)
	cfg.Document.Currency = getenvDefault("CURRENCY", cfg.Document.Currency)
	cfg.Document.CurrencyPlaces = int32(getenvIntDefault("CURRENCY_PLACES", int(cfg.Document.CurrencyPlaces)))
	cfg.Document.ReasonBudget = getenvIntDefault("REASON_BUDGET", cfg.Document.ReasonBudget)
	if categories := splitCSV(os.Getenv("CATEGORIES")); len(categories) > 0 {
		cfg.Document.Categories = categories
	}
}

// Validate fails fast on settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("config: http addr required"))
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("config: DATABASE_URL required for postgres store"))
		}
	case StoreWorkbook:
		if c.Store.WorkbookPath == "" {
			errs = append(errs, errors.New("config: WORKBOOK_PATH required for workbook store"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown store backend %q", c.Store.Backend))
	}
	switch c.Blob.Backend {
	case BlobLocal:
		if c.Blob.LocalRoot == "" {
			errs = append(errs, errors.New("config: BLOB_LOCAL_ROOT required for local blob store"))
		}
	case BlobDrive:
		if c.Blob.DriveFolderID == "" || c.Blob.DriveCredentialsFile == "" {
			errs = append(errs, errors.New("config: DRIVE_FOLDER_ID and DRIVE_CREDENTIALS_FILE required for drive blob store"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown blob backend %q", c.Blob.Backend))
	}
	if !c.Auth.Disabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("config: AUTH_JWT_SECRET required unless AUTH_DISABLED"))
	}
	if c.Document.CurrencyPlaces < 0 {
		errs = append(errs, errors.New("config: currency places must not be negative"))
	}
	if c.Document.ReasonBudget <= 0 {
		errs = append(errs, errors.New("config: reason budget must be positive"))
	}
	return errors.Join(errs...)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
