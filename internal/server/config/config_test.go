package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, ":5000", c.Server.Addr)
	assert.Equal(t, DefaultSecretKey, c.Auth.SecretKey)
	assert.Equal(t, []string{"http://localhost:3000"}, c.Server.CORSOrigins)
	assert.Equal(t, 7*24*time.Hour, c.Auth.TokenValidity)
	assert.Equal(t, 10*time.Minute, c.Auth.OTPValidity)
	assert.False(t, c.Auth.AllowInsecureBypass, "bypass must be off by default")
	assert.True(t, c.Auth.PasswordPolicy)
	assert.Equal(t, DriverMongo, c.Storage.Driver)
	assert.Equal(t, "log", c.Mail.Provider)
	assert.Equal(t, 30*time.Second, c.Mail.Timeout)
	assert.Empty(t, c.S3.Bucket)
	require.NoError(t, c.Validate())
}

func TestLoad_NoArgsUsesDefaults(t *testing.T) {
	c, err := Load(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeTempFile(t, "cfg.yaml", `
environment: staging
server:
  addr: ":8080"
  shutdown_timeout: 3s
  cors_origins:
    - https://desk.example.com
    - https://admin.example.com
auth:
  secret_key: from-file
  token_validity: 48h
  allow_insecure_bypass: true
storage:
  driver: postgres
  postgres_dsn: postgres://u:p@db/issues
mail:
  provider: mailgun
  mailgun:
    domain: mg.example.com
    api_key: key-123
s3:
  bucket: photos
`)

	c, err := Load([]string{"-c", path})
	require.NoError(t, err)

	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 3*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, []string{"https://desk.example.com", "https://admin.example.com"}, c.Server.CORSOrigins)
	assert.Equal(t, "from-file", c.Auth.SecretKey)
	assert.Equal(t, 48*time.Hour, c.Auth.TokenValidity)
	assert.True(t, c.Auth.AllowInsecureBypass)
	assert.Equal(t, DriverPostgres, c.Storage.Driver)
	assert.Equal(t, "postgres://u:p@db/issues", c.Storage.PostgresDSN)
	assert.Equal(t, "mailgun", c.Mail.Provider)
	assert.Equal(t, "mg.example.com", c.Mail.Mailgun.Domain)
	assert.Equal(t, "key-123", c.Mail.Mailgun.APIKey)
	assert.Equal(t, "photos", c.S3.Bucket)

	// untouched keys keep defaults
	assert.Equal(t, 10*time.Minute, c.Auth.OTPValidity)
	assert.Equal(t, "issuedesk", c.Storage.MongoDatabase)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeTempFile(t, "cfg.json", `{"server": {"addr": ":7000"}, "storage": {"driver": "memory"}}`)

	c, err := Load([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.Server.Addr)
	assert.Equal(t, DriverMemory, c.Storage.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeTempFile(t, "cfg.yaml", "auth:\n  secret_key: from-file\n")
	t.Setenv("ISSUEDESK_AUTH_SECRET_KEY", "from-env")
	t.Setenv("ISSUEDESK_MAIL_SMTP_PORT", "2525")
	t.Setenv("ISSUEDESK_SERVER_CORS_ORIGINS", "http://a.test, http://b.test")

	c, err := Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Auth.SecretKey)
	assert.Equal(t, 2525, c.Mail.SMTP.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Server.CORSOrigins)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("MONGO_URI", "mongodb://legacy:27017")
	t.Setenv("EMAIL_USER", "mailer@example.com")

	c, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "legacy-secret", c.Auth.SecretKey)
	assert.Equal(t, "mongodb://legacy:27017", c.Storage.MongoURI)
	assert.Equal(t, "mailer@example.com", c.Mail.SMTP.Username)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	t.Setenv("ISSUEDESK_SERVER_ADDR", ":1111")

	c, err := Load([]string{
		"-a", "127.0.0.1:9090", "-d", "memory", "-s", "flag-secret",
		"-t", "1", "-b", "true", "-m", "mongodb://flag", "-unknown", "x",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", c.Server.Addr)
	assert.Equal(t, DriverMemory, c.Storage.Driver)
	assert.Equal(t, "flag-secret", c.Auth.SecretKey)
	assert.Equal(t, time.Hour, c.Auth.TokenValidity)
	assert.True(t, c.Auth.AllowInsecureBypass)
	assert.Equal(t, "mongodb://flag", c.Storage.MongoURI)
}

func TestLoad_TokenValidityUntouchedWithoutFlag(t *testing.T) {
	path := writeTempFile(t, "cfg.yaml", "auth:\n  token_validity: 90m\n")

	c, err := Load([]string{"-c", path, "-a", ":1"})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, c.Auth.TokenValidity)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults ok", mutate: func(c *Config) {}},
		{name: "empty secret", mutate: func(c *Config) { c.Auth.SecretKey = "" }, wantErr: "secret_key"},
		{name: "zero token validity", mutate: func(c *Config) { c.Auth.TokenValidity = 0 }, wantErr: "token_validity"},
		{name: "zero otp validity", mutate: func(c *Config) { c.Auth.OTPValidity = 0 }, wantErr: "otp_validity"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: "unknown storage driver"},
		{name: "postgres without dsn", mutate: func(c *Config) {
			c.Storage.Driver = DriverPostgres
			c.Storage.PostgresDSN = ""
		}, wantErr: "postgres_dsn"},
		{name: "mongo without uri", mutate: func(c *Config) { c.Storage.MongoURI = "" }, wantErr: "mongo_uri"},
		{name: "bypass in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.Auth.AllowInsecureBypass = true
		}, wantErr: "allow_insecure_bypass"},
		{name: "bypass in development", mutate: func(c *Config) { c.Auth.AllowInsecureBypass = true }},
		{name: "default secret in production", mutate: func(c *Config) { c.Environment = "production" },
			wantErr: "secret_key must be changed"},
		{name: "custom secret in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.Auth.SecretKey = "a-long-random-secret"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
