package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "APP_RDS_DASHBOARD_"

type Config struct {
	Storage StorageConfig
	Export  ExportConfig
	Sheets  SheetsConfig
	History HistoryConfig
	Worker  WorkerConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// StorageConfig locates crash move folders. Each operation path is joined to
// BasePath/OperationsPath and may be a doublestar pattern.
type StorageConfig struct {
	BasePath           string
	OperationsPath     string
	OperationPaths     []string
	AllLayersProductID string
}

type ExportConfig struct {
	Path string
}

type SheetsConfig struct {
	Enabled             bool
	CredentialPath      string
	CredentialScopes    []string
	SpreadsheetKey      string
	SummarySheetName    string
	DetailSheetName     string
	SnapshotSheetPrefix string
}

type HistoryConfig struct {
	Enabled bool
	DBPath  string
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type ServerConfig struct {
	Host      string
	Port      int
	RateLimit int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// fileConfig is the optional YAML file for the operations list, which is the
// one setting that changes with reporting needs.
type fileConfig struct {
	OperationsPath *string  `yaml:"operations_path"`
	OperationPaths []string `yaml:"operation_paths"`
}

var defaultOperationPaths = []string{
	"prepared-country-data/bangladesh",
	"prepared-country-data/cameroon",
	"prepared-country-data/dominica",
	"prepared-country-data/dominican-republic",
	"prepared-country-data/fiji",
	"prepared-country-data/guatemala",
	"prepared-country-data/haiti",
	"prepared-country-data/honduras",
	"prepared-country-data/indonesia",
	"prepared-country-data/kenya",
	"prepared-country-data/malawi",
	"prepared-country-data/mali",
	"prepared-country-data/myanmar",
	"prepared-country-data/nepal",
	"prepared-country-data/pakistan",
	"prepared-country-data/philippines",
	"prepared-country-data/south-sudan",
	"prepared-country-data/sri-lanka",
	"prepared-country-data/vanuatu",
	"country-responses/2021-moz-001",
}

// Google Drive for Desktop mount points on Windows and macOS.
var driveBasePathCandidates = []string{"G:", "/Volumes/GoogleDrive"}

func Load() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			BasePath:           getEnv(envPrefix+"GOOGLE_DRIVE_BASE_PATH", defaultBasePath()),
			OperationsPath:     getEnv(envPrefix+"OPERATIONS_PATH", "Shared drives"),
			OperationPaths:     getEnvList(envPrefix+"OPERATION_PATHS", defaultOperationPaths),
			AllLayersProductID: getEnv(envPrefix+"ALL_PRODUCTS_ID", "MA9999"),
		},
		Export: ExportConfig{
			Path: getEnv(envPrefix+"EXPORT_PATH", "export.json"),
		},
		Sheets: SheetsConfig{
			Enabled:             getEnvBool(envPrefix+"SHEETS_ENABLED", false),
			CredentialPath:      getEnv(envPrefix+"GOOGLE_SERVICE_CREDENTIAL_PATH", "google-application-credentials.json"),
			CredentialScopes:    getEnvList(envPrefix+"GOOGLE_SERVICE_CREDENTIAL_SCOPES", []string{"https://www.googleapis.com/auth/spreadsheets"}),
			SpreadsheetKey:      getEnv(envPrefix+"GOOGLE_SHEETS_KEY", "1MSXc-1mffyv_EtiXWvpu-cDc92UAutRkXVFV4ICILx8"),
			SummarySheetName:    getEnv(envPrefix+"SUMMARY_SHEET_NAME", "Summary"),
			DetailSheetName:     getEnv(envPrefix+"DETAIL_SHEET_NAME", "All layers"),
			SnapshotSheetPrefix: getEnv(envPrefix+"SNAPSHOT_SHEET_PREFIX", "output-"),
		},
		History: HistoryConfig{
			Enabled: getEnvBool("HISTORY_ENABLED", true),
			DBPath:  getEnv("DB_PATH", "./data/rds-dashboard.db"),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 4),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateLimit: getEnvInt("RATE_LIMIT_RPS", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if path := os.Getenv(envPrefix + "CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	if fc.OperationsPath != nil {
		c.Storage.OperationsPath = *fc.OperationsPath
	}
	if len(fc.OperationPaths) > 0 {
		c.Storage.OperationPaths = fc.OperationPaths
	}
	return nil
}

func (c *Config) validate() error {
	if c.Storage.BasePath == "" {
		return fmt.Errorf("storage base path not found, set %sGOOGLE_DRIVE_BASE_PATH", envPrefix)
	}
	if len(c.Storage.OperationPaths) == 0 {
		return fmt.Errorf("no operation paths configured")
	}
	if c.Storage.AllLayersProductID == "" {
		return fmt.Errorf("all layers product id must not be empty")
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("invalid worker count: %d", c.Worker.Count)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

func defaultBasePath() string {
	for _, p := range driveBasePathCandidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
