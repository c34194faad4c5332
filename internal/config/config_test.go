package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sendlix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SENDLIX_API_KEY", "abc.1")

	cfg, err := Load(writeConfig(t, ""), nil)
	require.NoError(t, err)

	assert.Equal(t, "abc.1", cfg.APIKey)
	assert.Equal(t, "api.sendlix.com:443", cfg.Target)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "2", cfg.SchemaVersion)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.HasTLSOverrides())
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
api_key: file.1
target: localhost:9000
timeout: 5s
schema_version: v1
log:
  level: debug
  format: json
aws:
  region: eu-central-1
`)
	t.Setenv("SENDLIX_TARGET", "env.example:443")
	t.Setenv("SENDLIX_LOG_FORMAT", "text")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-key", "", "")
	flags.Bool("insecure", false, "")
	require.NoError(t, flags.Parse([]string{"--api-key=flag.2", "--insecure"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "flag.2", cfg.APIKey)
	assert.Equal(t, "env.example:443", cfg.Target)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "v1", cfg.SchemaVersion)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "eu-central-1", cfg.AWS.Region)
}

func TestLoad_Validation(t *testing.T) {
	tests := map[string]string{
		"missing api key":  "target: x:1\n",
		"bad schema":       "api_key: a.1\nschema_version: '3'\n",
		"bad log level":    "api_key: a.1\nlog:\n  level: loud\n",
		"cert without key": "api_key: a.1\ntls:\n  cert_file: /etc/hosts\n",
		"missing ca file":  "api_key: a.1\ntls:\n  ca_file: /does/not/exist.pem\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body), nil)
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}

func TestLoad_ReadableValidationErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "log:\n  format: xml\n"), nil)
	require.Error(t, err)

	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "api_key is a required field", verr["api_key"])
	assert.Contains(t, verr, "log.format")
	assert.Contains(t, err.Error(), "api_key is a required field")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestTLSOptions(t *testing.T) {
	cfg := &Config{TLS: TLSConfig{CAFile: "ca.pem", ServerName: "api.internal"}}
	opts := cfg.TLSOptions()
	assert.Equal(t, "ca.pem", opts.CAFile)
	assert.Equal(t, "api.internal", opts.ServerName)
	assert.True(t, cfg.HasTLSOverrides())
}
