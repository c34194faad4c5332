// Package config loads the command line settings from an optional YAML file,
// SENDLIX_* environment variables and flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sendlix/sendlix-go/internal/transport"
	customvalidator "github.com/sendlix/sendlix-go/pkg/validator"
)

const EnvPrefix = "SENDLIX"

type Config struct {
	APIKey        string        `mapstructure:"api_key"        validate:"required"`
	Target        string        `mapstructure:"target"         validate:"required"`
	Insecure      bool          `mapstructure:"insecure"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"gt=0"`
	SchemaVersion string        `mapstructure:"schema_version" validate:"oneof=1 2 v1 v2"`
	Log           LogConfig     `mapstructure:"log"`
	TLS           TLSConfig     `mapstructure:"tls"`
	AWS           AWSConfig     `mapstructure:"aws"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type TLSConfig struct {
	CAFile     string `mapstructure:"ca_file"     validate:"omitempty,file"`
	CertFile   string `mapstructure:"cert_file"   validate:"required_with=KeyFile,omitempty,file"`
	KeyFile    string `mapstructure:"key_file"    validate:"required_with=CertFile,omitempty,file"`
	ServerName string `mapstructure:"server_name"`
}

// AWSConfig is only consulted for s3:// message sources.
type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"config":         "",
	"api-key":        "api_key",
	"target":         "target",
	"insecure":       "insecure",
	"timeout":        "timeout",
	"schema-version": "schema_version",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"aws-region":     "aws.region",
	"aws-profile":    "aws.profile",
	"ca-file":        "tls.ca_file",
	"cert-file":      "tls.cert_file",
	"key-file":       "tls.key_file",
	"server-name":    "tls.server_name",
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("api_key", "")
	vip.SetDefault("target", transport.DefaultTarget)
	vip.SetDefault("insecure", false)
	vip.SetDefault("timeout", "30s")
	vip.SetDefault("schema_version", "2")
	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "text")
	vip.SetDefault("tls.ca_file", "")
	vip.SetDefault("tls.cert_file", "")
	vip.SetDefault("tls.key_file", "")
	vip.SetDefault("tls.server_name", "")
	vip.SetDefault("aws.region", "")
	vip.SetDefault("aws.profile", "")
}

// Load reads path when set, otherwise an optional ./sendlix.yaml or
// $HOME/.sendlix/sendlix.yaml, then overlays the environment and any flags that
// were set on flags. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("sendlix")
		vip.AddConfigPath(".")
		vip.AddConfigPath("$HOME/.sendlix")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(EnvPrefix)
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(vip)

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || key == "" {
				continue
			}
			if err := vip.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ValidationError maps config keys to readable messages.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	msgs := make([]string, 0, len(e))
	for _, key := range slices.Sorted(maps.Keys(e)) {
		msgs = append(msgs, e[key])
	}
	return strings.Join(msgs, "; ")
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	if err := customvalidator.RegisterCustomValidators(v); err != nil {
		return fmt.Errorf("failed to register custom validators: %w", err)
	}

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	trans, ok := uni.GetTranslator("en")
	if !ok {
		return errors.New("translator not found")
	}
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return fmt.Errorf("failed to register translations: %w", err)
	}

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	out := make(ValidationError, len(errs))
	for _, fe := range errs {
		_, key, _ := strings.Cut(fe.Namespace(), ".")
		out[key] = fe.Translate(trans)
	}
	return out
}

// TLSOptions converts the TLS section for transport.ConfigureClientTLS.
func (c *Config) TLSOptions() transport.TLSOptions {
	return transport.TLSOptions{
		CAFile:     c.TLS.CAFile,
		CertFile:   c.TLS.CertFile,
		KeyFile:    c.TLS.KeyFile,
		ServerName: c.TLS.ServerName,
	}
}

// HasTLSOverrides reports whether any TLS setting deviates from the defaults.
func (c *Config) HasTLSOverrides() bool {
	return c.TLS != TLSConfig{}
}
