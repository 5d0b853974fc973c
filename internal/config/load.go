package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables, e.g.
// VIBEEDIT_SERVER_PORT overrides server.port.
const envPrefix = "VIBEEDIT"

// Load reads configuration from defaults, an optional config.yaml in the
// working directory (or ./config), and VIBEEDIT_-prefixed environment
// variables, in increasing order of precedence. The resulting Config is
// validated before being returned.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; environment variables and defaults
		// can carry the full configuration.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return nil, fmt.Errorf("config validation failed: %w", validationErrs)
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every key. Viper only binds an
// environment variable during Unmarshal when the key is known, so even
// secrets that have no usable default are registered with an empty value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("scheduler.worker_count", 3)
	v.SetDefault("scheduler.retention_max_age_hours", 24)
	v.SetDefault("scheduler.sweep_schedule", "*/30 * * * *")

	v.SetDefault("storage.root", "./storage")
	v.SetDefault("storage.max_upload_size_mb", 512)

	v.SetDefault("ffmpeg.binary_path", "ffmpeg")
	v.SetDefault("ffmpeg.probe_binary_path", "ffprobe")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.gemini_model", "gemini-2.0-flash")
	v.SetDefault("ai.openai_api_key", "")
	v.SetDefault("ai.openai_model", "gpt-4o-mini")
	v.SetDefault("ai.anthropic_api_key", "")
	v.SetDefault("ai.anthropic_model", "claude-3-5-haiku-latest")
	v.SetDefault("ai.max_output_tokens", 2048)
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.retry_delay_seconds", 2)
}
