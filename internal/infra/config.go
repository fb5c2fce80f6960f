package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultGatewayURL - продакшн-адрес бэкенда оркестрации, если GATEWAY_BASE_URL не задан
const DefaultGatewayURL = "https://cidadao-api-production.up.railway.app"

// Config - корневая структура конфигурации консоли.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GatewayConfig описывает подключение к бэкенду оркестрации и обвязку надежности.
type GatewayConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 - без таймаута

	RetryAttempts uint          `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`

	RateLimit float64 `mapstructure:"rate_limit"` // rps, 0 - без лимита
	RateBurst int     `mapstructure:"rate_burst"`

	// Настройки Circuit Breaker
	CBMaxRequests      uint32        `mapstructure:"cb_max_requests"`
	CBInterval         time.Duration `mapstructure:"cb_interval"`
	CBTimeout          time.Duration `mapstructure:"cb_timeout"`
	CBFailureThreshold uint32        `mapstructure:"cb_failure_threshold"`
}

// AggregatorConfig содержит параметры построения снапшота метрик.
type AggregatorConfig struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	SampleCount  int           `mapstructure:"sample_count"`
	RecentWindow int           `mapstructure:"recent_window"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub событий смены состояния).
// Пустой Addr отключает публикацию.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: SERVER_PORT=9000 перекроет server.port,
	// GATEWAY_BASE_URL перекроет gateway.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет - работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Валидация
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("gateway.base_url", DefaultGatewayURL)
	v.SetDefault("gateway.timeout", time.Duration(0))
	v.SetDefault("gateway.retry_attempts", 1)
	v.SetDefault("gateway.retry_delay", 200*time.Millisecond)
	v.SetDefault("gateway.rate_limit", 0)
	v.SetDefault("gateway.rate_burst", 1)
	v.SetDefault("gateway.cb_max_requests", 1)
	v.SetDefault("gateway.cb_interval", time.Minute)
	v.SetDefault("gateway.cb_timeout", 30*time.Second)
	v.SetDefault("gateway.cb_failure_threshold", 5)

	v.SetDefault("aggregator.cache_ttl", 5*time.Second)
	v.SetDefault("aggregator.sample_count", 50)
	v.SetDefault("aggregator.recent_window", 20)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("metrics.enabled", true)
}

func (c *Config) validate() error {
	if c.Gateway.BaseURL == "" {
		return errors.New("gateway.base_url must not be empty")
	}
	if c.Aggregator.CacheTTL < 0 {
		return fmt.Errorf("aggregator.cache_ttl must not be negative, got %v", c.Aggregator.CacheTTL)
	}
	if c.Aggregator.SampleCount < 0 || c.Aggregator.RecentWindow < 0 {
		return errors.New("aggregator sample_count and recent_window must not be negative")
	}
	return nil
}
