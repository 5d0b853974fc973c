package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
	FFmpeg    FFmpegConfig    `mapstructure:"ffmpeg"    validate:"required"`
	AI        AIConfig        `mapstructure:"ai"        validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeoutSeconds bounds how long a graceful shutdown waits for
	// in-flight requests.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains all database-related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication and token settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=0,lte=31"`
}

// SchedulerConfig contains background task scheduler settings.
type SchedulerConfig struct {
	// WorkerCount is the fixed number of concurrent task workers.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	// RetentionMaxAgeHours is how long terminal tasks stay queryable before
	// the retention sweep removes them.
	RetentionMaxAgeHours int `mapstructure:"retention_max_age_hours" validate:"required,gt=0"`
	// SweepSchedule is the cron expression driving the retention sweep.
	SweepSchedule string `mapstructure:"sweep_schedule" validate:"required"`
}

// StorageConfig contains media storage settings.
type StorageConfig struct {
	// Root is the directory holding uploaded sources and rendered outputs.
	Root            string `mapstructure:"root"               validate:"required"`
	MaxUploadSizeMB int64  `mapstructure:"max_upload_size_mb" validate:"required,gt=0"`
}

// FFmpegConfig locates the external media-processing binaries.
type FFmpegConfig struct {
	BinaryPath      string `mapstructure:"binary_path"       validate:"required"`
	ProbeBinaryPath string `mapstructure:"probe_binary_path" validate:"required"`
}

// AIConfig contains LLM provider settings. Only the selected provider's
// API key is required; the check happens at wiring time so a single-provider
// deployment doesn't have to configure the others.
type AIConfig struct {
	Provider        string `mapstructure:"provider" validate:"required,oneof=gemini openai anthropic none"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	GeminiModel     string `mapstructure:"gemini_model"     validate:"required"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	OpenAIModel     string `mapstructure:"openai_model"     validate:"required"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	AnthropicModel  string `mapstructure:"anthropic_model"  validate:"required"`
	MaxOutputTokens int    `mapstructure:"max_output_tokens" validate:"required,gt=0"`
	// MaxRetries and RetryDelaySeconds drive the exponential backoff used
	// for transient provider failures.
	MaxRetries        int `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}
