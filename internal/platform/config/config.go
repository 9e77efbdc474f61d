package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DirectorySourceFile     = "file"
	DirectorySourcePostgres = "postgres"

	TelephonyProviderTwilio = "twilio"
	TelephonyProviderMock   = "mock"
)

// Config holds all configuration for the call dispatch service.
// Keys are read from environment variables of the same name.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	HTTPPort         int           `mapstructure:"HTTPD_PORT" validate:"min=1,max=65535"`
	BearerToken      string        `mapstructure:"HTTPD_BEARER_TOKEN"`
	RateWindowCallMs int           `mapstructure:"HTTPD_RATE_WINDOW_CALL" validate:"min=1"`
	RateLimitCall    int           `mapstructure:"HTTPD_RATE_LIMIT_CALL" validate:"min=1"`
	ShutdownTimeout  time.Duration `mapstructure:"HTTPD_SHUTDOWN_TIMEOUT" validate:"gt=0"`

	DirectorySource       string `mapstructure:"DIRECTORY_SOURCE" validate:"oneof=file postgres"`
	ContactsFilePath      string `mapstructure:"CONTACTS_FILE_PATH"`
	ContactGroupsFilePath string `mapstructure:"CONTACT_GROUPS_FILE_PATH"`
	PostgresDSN           string `mapstructure:"POSTGRES_DSN" validate:"required_if=DirectorySource postgres"`
	TwimlFilePath         string `mapstructure:"TWIML_FILE_PATH" validate:"required,file"`

	TelephonyProvider string `mapstructure:"TELEPHONY_PROVIDER" validate:"oneof=twilio mock"`
	TwilioAccountSID  string `mapstructure:"TWILIO_ACCOUNT_SID" validate:"required_if=TelephonyProvider twilio"`
	TwilioAuthToken   string `mapstructure:"TWILIO_AUTH_TOKEN" validate:"required_if=TelephonyProvider twilio"`
	TwilioPhoneNumber string `mapstructure:"TWILIO_PHONE_NUMBER" validate:"required,startswith=+"`
	TwilioTimeout     int    `mapstructure:"TWILIO_TIMEOUT" validate:"min=1"`
	TwilioLogLevel    string `mapstructure:"TWILIO_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// RateWindow is the admission limiter window.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateWindowCallMs) * time.Millisecond
}

// DefaultCallTimeout is the ring timeout for contacts without an override.
func (c *Config) DefaultCallTimeout() time.Duration {
	return time.Duration(c.TwilioTimeout) * time.Second
}

// LoadDotEnv loads variables from the given files (".env" when none) into the
// process environment. Missing files are skipped; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads defaults, an optional config.defaults.yaml and the environment, then validates.
func Load(serviceName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs") // running from cmd/<service>
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTPD_PORT", 3000)
	v.SetDefault("HTTPD_BEARER_TOKEN", "")
	v.SetDefault("HTTPD_RATE_WINDOW_CALL", 60000)
	v.SetDefault("HTTPD_RATE_LIMIT_CALL", 10)
	v.SetDefault("HTTPD_SHUTDOWN_TIMEOUT", "30s")

	v.SetDefault("DIRECTORY_SOURCE", DirectorySourceFile)
	v.SetDefault("CONTACTS_FILE_PATH", "./contacts.json")
	v.SetDefault("CONTACT_GROUPS_FILE_PATH", "./contact_groups.json")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("TWIML_FILE_PATH", "./twiml.xml.tmpl")

	v.SetDefault("TELEPHONY_PROVIDER", TelephonyProviderTwilio)
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("TWILIO_TIMEOUT", 30)
	v.SetDefault("TWILIO_LOG_LEVEL", "debug")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		log.Printf("%s: config.defaults.yaml not found; using defaults and environment variables.", serviceName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.TwilioLogLevel = strings.ToLower(cfg.TwilioLogLevel)

	if err := cfg.Validate(validator.New()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints, and that the directory files exist when
// the directory is read from files.
func (c *Config) Validate(validate *validator.Validate) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.DirectorySource == DirectorySourceFile {
		if err := validate.Var(c.ContactsFilePath, "required,file"); err != nil {
			return fmt.Errorf("invalid configuration: CONTACTS_FILE_PATH %q: %w", c.ContactsFilePath, err)
		}
		if err := validate.Var(c.ContactGroupsFilePath, "required,file"); err != nil {
			return fmt.Errorf("invalid configuration: CONTACT_GROUPS_FILE_PATH %q: %w", c.ContactGroupsFilePath, err)
		}
	}
	return nil
}
