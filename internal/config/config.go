package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	AttachmentDriverLocal = "local"
	AttachmentDriverHTTP  = "http"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type ComplaintConfig struct {
	DetailsMaxLength      int
	ReportNumberRetries   int
	NotifyAdminsOnCreate  bool
	NotificationListLimit int
}

type AttachmentConfig struct {
	Driver        string
	LocalDir      string
	PublicBaseURL string
	HTTPBaseURL   string
	HTTPToken     string
	MaxBytes      int64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Complaints  ComplaintConfig
	Attachments AttachmentConfig
	Redis       RedisConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Complaints: ComplaintConfig{
			DetailsMaxLength:      v.GetInt("COMPLAINT_DETAILS_MAX_LENGTH"),
			ReportNumberRetries:   v.GetInt("REPORT_NUMBER_MAX_RETRIES"),
			NotifyAdminsOnCreate:  v.GetBool("NOTIFY_ADMINS_ON_CREATE"),
			NotificationListLimit: v.GetInt("NOTIFICATION_LIST_LIMIT"),
		},
		Attachments: AttachmentConfig{
			Driver:        v.GetString("ATTACHMENT_DRIVER"),
			LocalDir:      v.GetString("ATTACHMENT_LOCAL_DIR"),
			PublicBaseURL: v.GetString("ATTACHMENT_PUBLIC_BASE_URL"),
			HTTPBaseURL:   v.GetString("ATTACHMENT_HTTP_BASE_URL"),
			HTTPToken:     v.GetString("ATTACHMENT_HTTP_TOKEN"),
			MaxBytes:      v.GetInt64("ATTACHMENT_MAX_BYTES"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Complaints.DetailsMaxLength <= 0 {
		cfg.Complaints.DetailsMaxLength = 1000
	}
	if cfg.Complaints.ReportNumberRetries <= 0 {
		cfg.Complaints.ReportNumberRetries = 5
	}
	if cfg.Complaints.NotificationListLimit <= 0 {
		cfg.Complaints.NotificationListLimit = 50
	}
	if cfg.Attachments.Driver == "" {
		cfg.Attachments.Driver = AttachmentDriverLocal
	}
	if cfg.Attachments.LocalDir == "" {
		cfg.Attachments.LocalDir = "./uploads"
	}
	if cfg.Attachments.PublicBaseURL == "" {
		cfg.Attachments.PublicBaseURL = "/uploads"
	}
	if cfg.Attachments.MaxBytes <= 0 {
		cfg.Attachments.MaxBytes = 5 << 20
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch cfg.Attachments.Driver {
	case AttachmentDriverLocal:
	case AttachmentDriverHTTP:
		if cfg.Attachments.HTTPBaseURL == "" {
			return fmt.Errorf("ATTACHMENT_HTTP_BASE_URL is required for the http attachment driver")
		}
	default:
		return fmt.Errorf("unknown ATTACHMENT_DRIVER %q", cfg.Attachments.Driver)
	}
	return nil
}
