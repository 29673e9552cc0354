package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/billora/billora/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Webhook    Webhook          `validate:"required"`
	Email      EmailConfig
	Invoice    InvoiceConfig
	Pdf        PdfConfig
	Cache      CacheConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Webhook configures the domain event topic and outbound delivery
type Webhook struct {
	Topic    string `mapstructure:"topic" default:"webhook_events"`
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	// MaxRetries bounds delivery attempts per event
	MaxRetries int `mapstructure:"max_retries" default:"3"`
}

// EmailConfig configures the outbound invoice mailer
type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	ReplyTo     string `mapstructure:"reply_to"`
}

// InvoiceConfig configures numbering and payment terms defaults
type InvoiceConfig struct {
	// NumberPrefix is the default prefix for invoice sequence numbers
	NumberPrefix string `mapstructure:"number_prefix" default:"INV"`
	// CreditNotePrefix is the default prefix for credit note sequence numbers
	CreditNotePrefix string `mapstructure:"credit_note_prefix" default:"CN"`
	// DefaultNetTermsDays is the payment window applied to invoices without
	// explicit net terms
	DefaultNetTermsDays int `mapstructure:"default_net_terms_days" default:"14"`
}

// PdfConfig configures the typst-based invoice renderer
type PdfConfig struct {
	TemplateDir string `mapstructure:"template_dir" default:"assets/typst-templates"`
	FontDir     string `mapstructure:"font_dir" default:"assets/fonts"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	// Load .env if present; real env vars still win
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billora")

	v.SetEnvPrefix("BILLORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("webhook.topic", "webhook_events")
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("invoice.number_prefix", "INV")
	v.SetDefault("invoice.credit_note_prefix", "CN")
	v.SetDefault("invoice.default_net_terms_days", types.InvoiceDefaultNetTermsDays)
	v.SetDefault("pdf.template_dir", "assets/typst-templates")
	v.SetDefault("pdf.font_dir", "assets/fonts")
	v.SetDefault("cache.enabled", true)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// GetDefaultConfig returns a default configuration for local development.
// This is useful for running scripts or tests without a config file.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Webhook: Webhook{
			Topic:      "webhook_events",
			MaxRetries: 3,
		},
		Invoice: InvoiceConfig{
			NumberPrefix:        "INV",
			CreditNotePrefix:    "CN",
			DefaultNetTermsDays: types.InvoiceDefaultNetTermsDays,
		},
		Cache: CacheConfig{Enabled: true},
	}
}
