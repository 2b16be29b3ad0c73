package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/flagx"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key: auth.secret_key is read
// from ISSUEDESK_AUTH_SECRET_KEY.
const EnvPrefix = "ISSUEDESK"

// legacyEnv maps keys to the variable names older deployments used.
var legacyEnv = map[string]string{
	"auth.secret_key":            "JWT_SECRET",
	"auth.allow_insecure_bypass": "ALLOW_ADMIN_BYPASS",
	"storage.mongo_uri":          "MONGO_URI",
	"mail.smtp.username":         "EMAIL_USER",
	"mail.smtp.password":         "EMAIL_PASS",
	"server.addr":                "ADDR",
}

// parseFile overlays cfg with values from the config file given by -c/-config
// (any format viper understands) and from the environment. Keys absent from
// both keep their current value.
func parseFile(cfg *Config, args []string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path := flagx.ConfigPath(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.Environment = getString(v, "environment", cfg.Environment)

	cfg.Server.Addr = getString(v, "server.addr", cfg.Server.Addr)
	cfg.Server.ShutdownTimeout = getDuration(v, "server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	cfg.Server.LogLevel = getString(v, "server.log_level", cfg.Server.LogLevel)
	cfg.Server.CORSOrigins = getStringSlice(v, "server.cors_origins", cfg.Server.CORSOrigins)

	cfg.Auth.SecretKey = getString(v, "auth.secret_key", cfg.Auth.SecretKey)
	cfg.Auth.TokenValidity = getDuration(v, "auth.token_validity", cfg.Auth.TokenValidity)
	cfg.Auth.OTPValidity = getDuration(v, "auth.otp_validity", cfg.Auth.OTPValidity)
	cfg.Auth.AllowInsecureBypass = getBool(v, "auth.allow_insecure_bypass", cfg.Auth.AllowInsecureBypass)
	cfg.Auth.BypassEmail = getString(v, "auth.bypass_email", cfg.Auth.BypassEmail)
	cfg.Auth.PasswordPolicy = getBool(v, "auth.password_policy", cfg.Auth.PasswordPolicy)

	cfg.Storage.Driver = getString(v, "storage.driver", cfg.Storage.Driver)
	cfg.Storage.MongoURI = getString(v, "storage.mongo_uri", cfg.Storage.MongoURI)
	cfg.Storage.MongoDatabase = getString(v, "storage.mongo_database", cfg.Storage.MongoDatabase)
	cfg.Storage.PostgresDSN = getString(v, "storage.postgres_dsn", cfg.Storage.PostgresDSN)

	cfg.Mail.Provider = getString(v, "mail.provider", cfg.Mail.Provider)
	cfg.Mail.From = getString(v, "mail.from", cfg.Mail.From)
	cfg.Mail.Timeout = getDuration(v, "mail.timeout", cfg.Mail.Timeout)
	cfg.Mail.SMTP.Host = getString(v, "mail.smtp.host", cfg.Mail.SMTP.Host)
	cfg.Mail.SMTP.Port = getInt(v, "mail.smtp.port", cfg.Mail.SMTP.Port)
	cfg.Mail.SMTP.Username = getString(v, "mail.smtp.username", cfg.Mail.SMTP.Username)
	cfg.Mail.SMTP.Password = getString(v, "mail.smtp.password", cfg.Mail.SMTP.Password)
	cfg.Mail.Mailgun.Domain = getString(v, "mail.mailgun.domain", cfg.Mail.Mailgun.Domain)
	cfg.Mail.Mailgun.APIKey = getString(v, "mail.mailgun.api_key", cfg.Mail.Mailgun.APIKey)
	cfg.Mail.SendGrid.APIKey = getString(v, "mail.sendgrid.api_key", cfg.Mail.SendGrid.APIKey)

	cfg.S3.AccessKey = getString(v, "s3.access_key", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getString(v, "s3.secret_key", cfg.S3.SecretKey)
	cfg.S3.Bucket = getString(v, "s3.bucket", cfg.S3.Bucket)
	cfg.S3.Region = getString(v, "s3.region", cfg.S3.Region)
	cfg.S3.BaseEndpoint = getString(v, "s3.base_endpoint", cfg.S3.BaseEndpoint)

	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

// getStringSlice accepts a list in the file or a comma separated string
// from the environment.
func getStringSlice(v *viper.Viper, key string, def []string) []string {
	if !v.IsSet(key) {
		return def
	}
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		return v.GetDuration(key)
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return def
}
