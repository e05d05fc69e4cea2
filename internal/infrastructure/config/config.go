package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DUKAAN_WHATSAPP_TOKEN
const EnvPrefix = "DUKAAN"

// DefaultAdminPIN is the demo PIN the shop ships with. It is rejected in production.
const DefaultAdminPIN = "1234"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	WhatsApp  WhatsAppConfig
	Admin     AdminConfig
	Store     StoreConfig
	Shop      ShopConfig
	Scheduler SchedulerConfig
	Redis     RedisConfig
	Chart     ChartConfig
	Storage   StorageConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string `validate:"required"`
	Env     string `validate:"required"`
	Port    string `validate:"required,numeric"`
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
	Output string `validate:"required"` // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	MaxHeaderBytes  int           `validate:"gt=0"`
	MaxBodySize     int64         `validate:"gt=0"`
	TrustedProxies  []string
}

// WhatsAppConfig holds the WhatsApp Cloud API credentials
type WhatsAppConfig struct {
	Token         string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string        // enables X-Hub-Signature-256 checks when set
	APIVersion    string        `validate:"required"`
	BaseURL       string        `validate:"required,url"`
	Timeout       time.Duration `validate:"gt=0"`
	// DedupeTTL is how long an inbound message id is remembered
	DedupeTTL time.Duration `validate:"gt=0"`
}

// AdminConfig holds owner authentication settings
type AdminConfig struct {
	PIN string `validate:"required"`
}

// StoreConfig points at the shop's data files
type StoreConfig struct {
	ProductsFile      string        `validate:"required"`
	OrdersFile        string        `validate:"required"`
	OffersFile        string        `validate:"required"`
	LowStockThreshold int           `validate:"gte=0"`
	CostRatio         float64       `validate:"gte=0,lte=1"`
	LockRetryDelay    time.Duration `validate:"gt=0"`
}

// ShopConfig holds customer-facing shop details
type ShopConfig struct {
	SupportContact string `validate:"required"`
}

// SchedulerConfig holds the order sweep settings
type SchedulerConfig struct {
	Enabled      bool
	AdvanceEvery time.Duration `validate:"gt=0"`
	NotifyEvery  time.Duration `validate:"gt=0"`
	JobTimeout   time.Duration `validate:"gt=0"`
	StopTimeout  time.Duration `validate:"gt=0"`
}

// RedisConfig holds Redis connection settings for message de-duplication
type RedisConfig struct {
	Enabled     bool
	Addr        string `validate:"required_if=Enabled true"`
	Password    string
	DB          int `validate:"gte=0"`
	KeyPrefix   string
	DialTimeout time.Duration
	// Required makes startup fail instead of falling back to memory
	Required bool
}

// ChartConfig holds sales chart rendering settings
type ChartConfig struct {
	Enabled   bool
	OutputDir string        `validate:"required"`
	RemoteURL string        // DevTools websocket of an external Chrome
	NoSandbox bool
	Timeout   time.Duration `validate:"gt=0"`
	// ArchiveDir receives chart copies when object storage is disabled
	ArchiveDir string
}

// StorageConfig holds S3-compatible object storage settings for chart archival
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string `validate:"required_if=Enabled true"`
	AccessKey    string `validate:"required_if=Enabled true"`
	SecretKey    string `validate:"required_if=Enabled true"`
	KeyPrefix    string
	UseSSL       bool
	UsePathStyle bool
	CreateBucket bool
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled           bool
	Path              string `validate:"required,startswith=/"`
	RuntimeCollectors bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool          // Whether to enable OpenTelemetry
	CollectorEndpoint string        // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64       `validate:"gte=0,lte=1"`
	ServiceName       string        `validate:"required"`
	Insecure          bool          // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool          // Export business metrics over OTLP as well
	LogsEnabled       bool          // Tee zap output to the collector
	ExportInterval    time.Duration
}

// ProfilingConfig holds Pyroscope continuous profiling settings
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string `validate:"required_if=Enabled true"`
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	Mutex             bool
	Block             bool
	// SpanProfiles links CPU samples to trace spans; needs telemetry enabled
	SpanProfiles bool
}

// IsProduction reports whether the app runs with production safeguards
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DUKAAN_ prefix (e.g., DUKAAN_WHATSAPP_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. An empty path searches the
// working directory, ./config and /app for config.toml.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars still apply
	}

	// Switches that are on unless turned off
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("metrics.enabled", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
		},
		WhatsApp: WhatsAppConfig{
			Token:         v.GetString("whatsapp.token"),
			PhoneNumberID: v.GetString("whatsapp.phone_number_id"),
			VerifyToken:   v.GetString("whatsapp.verify_token"),
			AppSecret:     v.GetString("whatsapp.app_secret"),
			APIVersion:    v.GetString("whatsapp.api_version"),
			BaseURL:       v.GetString("whatsapp.base_url"),
			Timeout:       v.GetDuration("whatsapp.timeout"),
			DedupeTTL:     v.GetDuration("whatsapp.dedupe_ttl"),
		},
		Admin: AdminConfig{
			PIN: v.GetString("admin.pin"),
		},
		Store: StoreConfig{
			ProductsFile:      v.GetString("store.products_file"),
			OrdersFile:        v.GetString("store.orders_file"),
			OffersFile:        v.GetString("store.offers_file"),
			LowStockThreshold: v.GetInt("store.low_stock_threshold"),
			CostRatio:         v.GetFloat64("store.cost_ratio"),
			LockRetryDelay:    v.GetDuration("store.lock_retry_delay"),
		},
		Shop: ShopConfig{
			SupportContact: v.GetString("shop.support_contact"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      v.GetBool("scheduler.enabled"),
			AdvanceEvery: v.GetDuration("scheduler.advance_every"),
			NotifyEvery:  v.GetDuration("scheduler.notify_every"),
			JobTimeout:   v.GetDuration("scheduler.job_timeout"),
			StopTimeout:  v.GetDuration("scheduler.stop_timeout"),
		},
		Redis: RedisConfig{
			Enabled:     v.GetBool("redis.enabled"),
			Addr:        v.GetString("redis.addr"),
			Password:    v.GetString("redis.password"),
			DB:          v.GetInt("redis.db"),
			KeyPrefix:   v.GetString("redis.key_prefix"),
			DialTimeout: v.GetDuration("redis.dial_timeout"),
			Required:    v.GetBool("redis.required"),
		},
		Chart: ChartConfig{
			Enabled:    v.GetBool("chart.enabled"),
			OutputDir:  v.GetString("chart.output_dir"),
			RemoteURL:  v.GetString("chart.remote_url"),
			NoSandbox:  v.GetBool("chart.no_sandbox"),
			Timeout:    v.GetDuration("chart.timeout"),
			ArchiveDir: v.GetString("chart.archive_dir"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("storage.enabled"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			KeyPrefix:    v.GetString("storage.key_prefix"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			CreateBucket: v.GetBool("storage.create_bucket"),
		},
		Metrics: MetricsConfig{
			Enabled:           v.GetBool("metrics.enabled"),
			Path:              v.GetString("metrics.path"),
			RuntimeCollectors: v.GetBool("metrics.runtime_collectors"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			Mutex:             v.GetBool("profiling.mutex"),
			Block:             v.GetBool("profiling.block"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "dukaan-dost"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, webhook envelopes are small
	}

	if cfg.WhatsApp.APIVersion == "" {
		cfg.WhatsApp.APIVersion = "v18.0"
	}
	if cfg.WhatsApp.BaseURL == "" {
		cfg.WhatsApp.BaseURL = "https://graph.facebook.com"
	}
	if cfg.WhatsApp.Timeout == 0 {
		cfg.WhatsApp.Timeout = 15 * time.Second
	}
	if cfg.WhatsApp.DedupeTTL == 0 {
		cfg.WhatsApp.DedupeTTL = 24 * time.Hour
	}

	if cfg.Admin.PIN == "" {
		cfg.Admin.PIN = DefaultAdminPIN
	}

	if cfg.Store.ProductsFile == "" {
		cfg.Store.ProductsFile = "products.csv"
	}
	if cfg.Store.OrdersFile == "" {
		cfg.Store.OrdersFile = "orders.csv"
	}
	if cfg.Store.OffersFile == "" {
		cfg.Store.OffersFile = "offers.csv"
	}
	if cfg.Store.LowStockThreshold == 0 {
		cfg.Store.LowStockThreshold = 10
	}
	if cfg.Store.CostRatio == 0 {
		cfg.Store.CostRatio = 0.70
	}
	if cfg.Store.LockRetryDelay == 0 {
		cfg.Store.LockRetryDelay = 25 * time.Millisecond
	}

	if cfg.Shop.SupportContact == "" {
		cfg.Shop.SupportContact = "+91-9996033812"
	}

	if cfg.Scheduler.AdvanceEvery == 0 {
		cfg.Scheduler.AdvanceEvery = 5 * time.Minute
	}
	if cfg.Scheduler.NotifyEvery == 0 {
		cfg.Scheduler.NotifyEvery = 30 * time.Second
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 2 * time.Minute
	}
	if cfg.Scheduler.StopTimeout == 0 {
		cfg.Scheduler.StopTimeout = 30 * time.Second
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}

	if cfg.Chart.OutputDir == "" {
		cfg.Chart.OutputDir = "charts"
	}
	if cfg.Chart.Timeout == 0 {
		cfg.Chart.Timeout = 30 * time.Second
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "charts/"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "dukaan-backend"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}

	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.IsProduction() {
		if c.WhatsApp.Token == "" {
			return fmt.Errorf("whatsapp.token is required in production")
		}
		if c.WhatsApp.PhoneNumberID == "" {
			return fmt.Errorf("whatsapp.phone_number_id is required in production")
		}
		if c.WhatsApp.VerifyToken == "" {
			return fmt.Errorf("whatsapp.verify_token is required in production")
		}
		if c.Admin.PIN == DefaultAdminPIN {
			return fmt.Errorf("admin.pin must be changed from the default in production")
		}
		if c.Telemetry.Enabled && c.Telemetry.Insecure {
			return fmt.Errorf("telemetry.insecure must be false in production")
		}
	}

	return nil
}
