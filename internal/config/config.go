package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Email     EmailConfig
	Reconcile ReconcileConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит настройки подключения к Redis.
// Поддерживает режимы: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: список адресов Redis (хост:порт). Для 'single' используется
	// первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`
}

// AuthConfig содержит настройки проверки административных токенов
type AuthConfig struct {
	// AdminJWTSecret — общий секрет с внешним сервисом идентификации,
	// который выдает административные токены
	AdminJWTSecret string `mapstructure:"admin_jwt_secret"`
}

// EmailConfig содержит настройки рассылки отчетов сверки
type EmailConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	ResendAPIKey string   `mapstructure:"resend_api_key"`
	From         string   `mapstructure:"from"`
	To           []string `mapstructure:"to"`
}

// ReconcileConfig содержит настройки периодической сверки
type ReconcileConfig struct {
	// IntervalMinutes — период фонового скана; 0 выключает периодический запуск
	IntervalMinutes int `mapstructure:"interval_minutes"`
	// AutoRepair — чинить ли найденные расхождения автоматически.
	// По умолчанию false: фоновый скан только сообщает.
	AutoRepair bool `mapstructure:"auto_repair"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	// Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 10)
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("reconcile.interval_minutes", 0)
	vip.SetDefault("reconcile.auto_repair", false)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("auth.admin_jwt_secret", "ADMIN_JWT_SECRET")

	vip.BindEnv("email.enabled", "EMAIL_ENABLED")
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")
	vip.BindEnv("email.to", "EMAIL_TO")

	vip.BindEnv("reconcile.interval_minutes", "RECONCILE_INTERVAL_MINUTES")
	vip.BindEnv("reconcile.auto_repair", "RECONCILE_AUTO_REPAIR")

	// Файл конфигурации опционален: BindEnv покрывает все ключи
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// EMAIL_TO из окружения приходит одной строкой через запятую
	if len(cfg.Email.To) == 1 && strings.Contains(cfg.Email.To[0], ",") {
		cfg.Email.To = strings.Split(cfg.Email.To[0], ",")
		for i := range cfg.Email.To {
			cfg.Email.To[i] = strings.TrimSpace(cfg.Email.To[i])
		}
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Admin JWT Secret Set: %t", cfg.Auth.AdminJWTSecret != "")
		log.Printf("Email Enabled: %t", cfg.Email.Enabled)
		log.Printf("Reconcile Interval (min): %d", cfg.Reconcile.IntervalMinutes)
		log.Printf("-----------------------------------------")
	}

	// Проверка обязательных параметров
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Auth.AdminJWTSecret == "" {
		return nil, fmt.Errorf("admin JWT secret is required in config (check ADMIN_JWT_SECRET env var)")
	}
	if cfg.Email.Enabled && (cfg.Email.ResendAPIKey == "" || cfg.Email.From == "" || len(cfg.Email.To) == 0) {
		return nil, fmt.Errorf("email is enabled but resend_api_key, from or to is missing (check RESEND_API_KEY, EMAIL_FROM, EMAIL_TO env vars)")
	}
	if os.Getenv("GIN_MODE") == "release" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}

	return &cfg, nil
}
