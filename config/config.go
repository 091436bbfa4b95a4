package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置根结构，启动时加载后按需注入各组件
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Order     OrderConfig     `mapstructure:"order"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"` // debug / release
	PageSize int    `mapstructure:"page_size"`
}

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres / sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis 连接配置（通知队列与缓存共用）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	OIDCIssuer   string        `mapstructure:"oidc_issuer"`
	OIDCClientID string        `mapstructure:"oidc_client_id"`
	// AdminKeyHash 管理端 API Key 的 bcrypt 哈希
	AdminKeyHash string `mapstructure:"admin_key_hash"`
}

// OrderConfig 订单业务配置
type OrderConfig struct {
	TaxRate  string `mapstructure:"tax_rate"` // 十进制字符串，如 "0.16"
	MaxItems int    `mapstructure:"max_items"`
}

// NotifyConfig 通知任务配置
type NotifyConfig struct {
	Workers     int           `mapstructure:"workers"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	AdminEmail  string        `mapstructure:"admin_email"`

	SMSAPIURL   string  `mapstructure:"sms_api_url"`
	SMSUsername string  `mapstructure:"sms_username"`
	SMSAPIKey   string  `mapstructure:"sms_api_key"`
	SMSSenderID string  `mapstructure:"sms_sender_id"`
	SMSRate     float64 `mapstructure:"sms_rate"` // 每秒发送上限

	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	SMTPUser string `mapstructure:"smtp_user"`
	SMTPPass string `mapstructure:"smtp_pass"`
	SMTPFrom string `mapstructure:"smtp_from"`
}

// SentryConfig 异常上报配置
type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// TelemetryConfig 链路追踪配置
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

// Load 读取配置文件并叠加环境变量（前缀 ORDERSYS_）
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("ORDERSYS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时允许仅靠默认值+环境变量启动
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.page_size", 20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=orders port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.oidc_issuer", "https://accounts.google.com")

	v.SetDefault("order.tax_rate", "0.16")
	v.SetDefault("order.max_items", 20)

	v.SetDefault("notify.workers", 4)
	v.SetDefault("notify.max_retries", 3)
	v.SetDefault("notify.backoff_base", time.Minute)
	v.SetDefault("notify.admin_email", "admin@order-system.local")
	v.SetDefault("notify.sms_api_url", "https://api.sandbox.africastalking.com/version1/messaging")
	v.SetDefault("notify.sms_username", "sandbox")
	v.SetDefault("notify.sms_rate", 5)
	v.SetDefault("notify.smtp_port", 587)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service", "order-system")
}
