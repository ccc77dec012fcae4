package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	PrestaShop  PrestaShopConfig `mapstructure:"prestashop"`
	Google      GoogleConfig     `mapstructure:"google"`
	Email       EmailConfig      `mapstructure:"email"`
	PDF         PDFConfig        `mapstructure:"pdf"`
	Ledger      LedgerConfig     `mapstructure:"ledger"`
	Lark        LarkConfig       `mapstructure:"lark"`
	Scheduler   SchedulerConfig  `mapstructure:"scheduler"`
	Logger      LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds the admin HTTP server configuration (server mode)
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the run-history database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// PrestaShopConfig holds the order-source API configuration
type PrestaShopConfig struct {
	APIURL     string        `mapstructure:"api_url"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	EmployeeID int           `mapstructure:"employee_id"`
	Payments   []string      `mapstructure:"payments"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// GoogleConfig holds the service-account credentials shared by the
// Drive artifact store and the Sheets ledger backend
type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	DriveFolderID   string `mapstructure:"drive_folder_id"`
	SheetID         string `mapstructure:"sheet_id"`
	SheetName       string `mapstructure:"sheet_name"`
}

// EmailConfig holds SMTP and template-API configuration
type EmailConfig struct {
	SMTPHost       string        `mapstructure:"smtp_host"`
	SMTPPort       int           `mapstructure:"smtp_port"`
	SenderEmail    string        `mapstructure:"sender_email"`
	SenderPassword string        `mapstructure:"sender_password"`
	TemplateAPIURL string        `mapstructure:"template_api_url"`
	BCCEmail       string        `mapstructure:"bcc_email"`
	DevTestEmail   string        `mapstructure:"dev_test_email"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// PDFConfig holds the invoice renderer configuration
type PDFConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Validate bool          `mapstructure:"validate"`
}

// LedgerConfig selects and configures the sent-invoices ledger backend
type LedgerConfig struct {
	Backend      string `mapstructure:"backend"` // sheets or workbook
	WorkbookPath string `mapstructure:"workbook_path"`
}

// LarkConfig holds the ops alerting channel configuration. Alerting is
// disabled when app_id is empty.
type LarkConfig struct {
	AppID     string        `mapstructure:"app_id"`
	AppSecret string        `mapstructure:"app_secret"`
	ChatID    string        `mapstructure:"chat_id"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SchedulerConfig holds the batch scheduler configuration (server mode)
type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from .env, the config file and environment
// variables, in that order of increasing precedence
func Load(configPath string) (*Config, error) {
	// .env is optional, mirrors the cron deployment layout
	_ = gotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "production")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/confirmation_invoice.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// PrestaShop defaults
	viper.SetDefault("prestashop.employee_id", 5)
	viper.SetDefault("prestashop.timeout", 30*time.Second)
	viper.SetDefault("prestashop.payments", []string{
		"PayPal",
		"Redsys",
		"PayPal with fee",
		"Pagos por transferencia bancaria",
	})

	// Google defaults
	viper.SetDefault("google.sheet_name", "Facturas")

	// Email defaults
	viper.SetDefault("email.smtp_host", "smtp.office365.com")
	viper.SetDefault("email.smtp_port", 587)
	viper.SetDefault("email.timeout", 60*time.Second)

	// PDF defaults
	viper.SetDefault("pdf.timeout", 60*time.Second)
	viper.SetDefault("pdf.validate", false)

	// Ledger defaults
	viper.SetDefault("ledger.backend", "sheets")
	viper.SetDefault("ledger.workbook_path", "data/facturas.xlsx")

	// Lark defaults
	viper.SetDefault("lark.timeout", 30*time.Second)

	// Scheduler defaults
	viper.SetDefault("scheduler.interval", 30*time.Minute)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("environment", "ENVIRONMENT")
	viper.BindEnv("prestashop.api_url", "PRESTASHOP_API_URL")
	viper.BindEnv("prestashop.username", "PRESTASHOP_API_USERNAME")
	viper.BindEnv("prestashop.password", "PRESTASHOP_API_PASSWORD")
	viper.BindEnv("google.credentials_file", "GOOGLE_SERVICE_ACCOUNT_FILE")
	viper.BindEnv("google.drive_folder_id", "GOOGLE_DRIVE_FOLDER_ID")
	viper.BindEnv("google.sheet_id", "GOOGLE_SHEET_ID")
	viper.BindEnv("google.sheet_name", "GOOGLE_SHEET_NAME")
	viper.BindEnv("email.smtp_host", "ORDERS_SMTP_SERVER")
	viper.BindEnv("email.smtp_port", "ORDERS_SMTP_PORT")
	viper.BindEnv("email.sender_email", "ORDERS_SENDER_EMAIL")
	viper.BindEnv("email.sender_password", "ORDERS_SENDER_PASSWORD")
	viper.BindEnv("email.template_api_url", "EMAIL_TEMPLATE_API_URL")
	viper.BindEnv("email.bcc_email", "BCC_EMAIL")
	viper.BindEnv("email.dev_test_email", "DEV_TEST_EMAIL")
	viper.BindEnv("pdf.api_url", "PDF_GENERATION_API_URL")
	viper.BindEnv("lark.app_id", "LARK_APP_ID")
	viper.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	viper.BindEnv("lark.chat_id", "LARK_CHAT_ID")
}

// Validate validates the configuration. A failure here aborts the run
// before any order is touched.
func (c *Config) Validate() error {
	if c.PrestaShop.APIURL == "" {
		return fmt.Errorf("prestashop.api_url is required")
	}
	if c.PrestaShop.Username == "" {
		return fmt.Errorf("prestashop.username is required")
	}
	if len(c.PrestaShop.Payments) == 0 {
		return fmt.Errorf("prestashop.payments must not be empty")
	}

	if c.Email.SenderEmail == "" {
		return fmt.Errorf("email.sender_email is required")
	}
	if c.Email.SenderPassword == "" {
		return fmt.Errorf("email.sender_password is required")
	}
	if c.Email.TemplateAPIURL == "" {
		return fmt.Errorf("email.template_api_url is required")
	}

	if c.PDF.APIURL == "" {
		return fmt.Errorf("pdf.api_url is required")
	}

	if c.Google.CredentialsFile == "" {
		return fmt.Errorf("google.credentials_file is required")
	}

	switch c.Ledger.Backend {
	case "sheets":
		if c.Google.SheetID == "" {
			return fmt.Errorf("google.sheet_id is required for the sheets ledger backend")
		}
	case "workbook":
		if c.Ledger.WorkbookPath == "" {
			return fmt.Errorf("ledger.workbook_path is required for the workbook ledger backend")
		}
	default:
		return fmt.Errorf("unknown ledger backend: %s", c.Ledger.Backend)
	}

	if c.Lark.AppID != "" && c.Lark.ChatID == "" {
		return fmt.Errorf("lark.chat_id is required when lark alerting is enabled")
	}

	return nil
}

// IsProduction reports whether the pipeline runs against real
// customers. Anything else redirects outgoing mail to the test inbox.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
