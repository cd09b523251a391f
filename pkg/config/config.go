package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// DevSessionSecret секрет подписи сессий по умолчанию.
// Допустим только вне production окружения.
const DevSessionSecret = "dev-secret"

// Config представляет конфигурацию приложения. Структура содержит вложенные структуры для различных компонентов приложения.
type Config struct {
	Server       ServerConfig    `json:"server" yaml:"server"`
	Database     DatabaseConfig  `json:"database" yaml:"database"`
	Logger       LoggerConfig    `json:"logger" yaml:"logger"`
	Environment  string          `json:"environment" yaml:"environment"`
	Auth         AuthConfig      `json:"auth" yaml:"auth"`
	RateLimiting RateLimitConfig `json:"rate_limiting" yaml:"rate_limiting"`
	LLM          LLMConfig       `json:"llm" yaml:"llm"`
}

// ServerConfig представляет конфигурацию сервера. Содержит настройки хоста и порта для HTTP-сервера.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// DatabaseConfig представляет конфигурацию базы данных. Содержит параметры подключения к базе данных, включая хост, порт, имя базы, пользователя и пароль.
type DatabaseConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Name     string `json:"name" yaml:"name"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
}

// LoggerConfig представляет конфигурацию логгера. Определяет уровень логирования и формат вывода логов.
type LoggerConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// AuthConfig представляет конфигурацию аутентификации.
// Секрет подписи обязателен в prod и не должен совпадать со значением по умолчанию.
type AuthConfig struct {
	SessionSecret     string `json:"session_secret" yaml:"session_secret"`
	SessionCookieName string `json:"session_cookie_name" yaml:"session_cookie_name"`
	CsrfCookieName    string `json:"csrf_cookie_name" yaml:"csrf_cookie_name"`
	SessionTTLSeconds int    `json:"session_ttl_seconds" yaml:"session_ttl_seconds"`
	CookieSecure      bool   `json:"cookie_secure" yaml:"cookie_secure"`
}

// RateLimitConfig представляет конфигурацию Rate Limiting по областям
type RateLimitConfig struct {
	Auth     ScopeLimitConfig `json:"auth" yaml:"auth"`
	Diagnose ScopeLimitConfig `json:"diagnose" yaml:"diagnose"`
}

// ScopeLimitConfig представляет лимит для одной области запросов
type ScopeLimitConfig struct {
	Limit         int `json:"limit" yaml:"limit"`
	WindowSeconds int `json:"window_seconds" yaml:"window_seconds"`
}

// LLMConfig представляет конфигурацию внешнего генератора планов
type LLMConfig struct {
	APIKey         string `json:"api_key" yaml:"api_key"`
	Model          string `json:"model" yaml:"model"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// LoadConfig загружает конфигурацию в следующем порядке приоритета:
// 1. Загрузка значений по умолчанию
// 2. Загрузка из файла (если указан)
// 3. Переопределение значениями из переменных окружения
// 4. Валидация конфигурации
// Возвращает готовую конфигурацию или ошибку.
func LoadConfig(configFile string) (*Config, error) {
	// Initialize config with default values
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "poolpro",
			User:     "poolpro",
			Password: "poolpro",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Environment: "dev",
		Auth: AuthConfig{
			SessionSecret:     DevSessionSecret,
			SessionCookieName: "poolpro_session",
			CsrfCookieName:    "poolpro_csrf",
			SessionTTLSeconds: 7 * 24 * 60 * 60,
			CookieSecure:      false,
		},
		RateLimiting: RateLimitConfig{
			Auth: ScopeLimitConfig{
				Limit:         10,
				WindowSeconds: 60,
			},
			Diagnose: ScopeLimitConfig{
				Limit:         5,
				WindowSeconds: 60,
			},
		},
		LLM: LLMConfig{
			APIKey:         "",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
	}

	// Load from file if specified
	if configFile != "" {
		if err := loadConfigFromFile(config, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Load from environment variables
	if err := loadConfigFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadConfigFromFile(config *Config, filename string) error {
	// Expand environment variables in the file path
	filename = os.ExpandEnv(filename)

	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	// Read file content
	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	// Try to unmarshal as YAML first, then JSON
	if err := yaml.Unmarshal(content, config); err != nil {
		// If YAML fails, try JSON
		if jsonErr := json.Unmarshal(content, config); jsonErr != nil {
			return fmt.Errorf("failed to unmarshal config file as YAML or JSON: %w", err)
		}
	}

	return nil
}

func loadConfigFromEnv(config *Config) error {
	// Server config
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &config.Server.Port); err != nil {
			return fmt.Errorf("invalid SERVER_PORT: %s", port)
		}
	}

	// Database config
	if host := os.Getenv("DATABASE_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("DATABASE_PORT"); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &config.Database.Port); err != nil {
			return fmt.Errorf("invalid DATABASE_PORT: %s", port)
		}
	}
	if name := os.Getenv("DATABASE_NAME"); name != "" {
		config.Database.Name = name
	}
	if user := os.Getenv("DATABASE_USER"); user != "" {
		config.Database.User = user
	}
	if password := os.Getenv("DATABASE_PASSWORD"); password != "" {
		config.Database.Password = password
	}

	// Logger config
	if level := os.Getenv("LOGGER_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if format := os.Getenv("LOGGER_FORMAT"); format != "" {
		config.Logger.Format = format
	}

	// Environment
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Environment = env
	}

	// Auth config
	if secret := os.Getenv("AUTH_SESSION_SECRET"); secret != "" {
		config.Auth.SessionSecret = secret
	}
	if name := os.Getenv("AUTH_COOKIE_NAME"); name != "" {
		config.Auth.SessionCookieName = name
	}
	if name := os.Getenv("AUTH_CSRF_COOKIE_NAME"); name != "" {
		config.Auth.CsrfCookieName = name
	}
	if ttl := os.Getenv("AUTH_SESSION_TTL_SECONDS"); ttl != "" {
		if _, err := fmt.Sscanf(ttl, "%d", &config.Auth.SessionTTLSeconds); err != nil {
			return fmt.Errorf("invalid AUTH_SESSION_TTL_SECONDS: %s", ttl)
		}
	}
	if secure := os.Getenv("AUTH_COOKIE_SECURE"); secure != "" {
		config.Auth.CookieSecure = secure == "true"
	}

	// Rate limiting config
	if limit := os.Getenv("RATE_LIMIT_AUTH"); limit != "" {
		if _, err := fmt.Sscanf(limit, "%d", &config.RateLimiting.Auth.Limit); err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_AUTH: %s", limit)
		}
	}
	if limit := os.Getenv("RATE_LIMIT_DIAGNOSE"); limit != "" {
		if _, err := fmt.Sscanf(limit, "%d", &config.RateLimiting.Diagnose.Limit); err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_DIAGNOSE: %s", limit)
		}
	}

	// LLM config
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.LLM.Model = model
	}

	return nil
}

func validateConfig(config *Config) error {
	// Проверка корректности окружения. Поддерживаются только: dev, test, staging, prod
	switch config.Environment {
	case "dev", "test", "staging", "prod":
		// Valid environment
	default:
		return fmt.Errorf("invalid environment: %s, must be one of: dev, test, staging, prod", config.Environment)
	}

	// Валидация конфигурации сервера
	// Проверяем, что хост не пустой и порт в допустимом диапазоне (1-65535)
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	// Валидация конфигурации базы данных
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Database.Port <= 0 || config.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if config.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if config.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}

	// Валидация конфигурации логгера
	if config.Logger.Level == "" {
		return fmt.Errorf("logger.level is required")
	}
	if config.Logger.Format == "" {
		return fmt.Errorf("logger.format is required")
	}

	// Валидация конфигурации аутентификации
	// В prod секрет подписи обязателен и не должен совпадать с dev значением,
	// иначе сервис отказывается стартовать
	if config.Environment == "prod" {
		if config.Auth.SessionSecret == "" || config.Auth.SessionSecret == DevSessionSecret {
			return fmt.Errorf("auth.session_secret must be set to a strong value in production")
		}
		// Secure cookie обязателен в prod
		config.Auth.CookieSecure = true
	}
	if config.Auth.SessionCookieName == "" {
		return fmt.Errorf("auth.session_cookie_name is required")
	}
	if config.Auth.CsrfCookieName == "" {
		return fmt.Errorf("auth.csrf_cookie_name is required")
	}
	if config.Auth.SessionTTLSeconds <= 0 {
		return fmt.Errorf("auth.session_ttl_seconds must be positive")
	}

	// Валидация лимитов запросов
	if config.RateLimiting.Auth.Limit <= 0 || config.RateLimiting.Auth.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limiting.auth limit and window_seconds must be positive")
	}
	if config.RateLimiting.Diagnose.Limit <= 0 || config.RateLimiting.Diagnose.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limiting.diagnose limit and window_seconds must be positive")
	}

	return nil
}

// Save сохраняет конфигурацию в файл в формате YAML.
// Автоматически создает директорию, если она не существует.
func (c *Config) Save(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Marshal to YAML
	content, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// Write to file
	return os.WriteFile(filename, content, 0644)
}
