// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Bot содержит параметры Telegram-бота
type Bot struct {
	Token                 string  `json:"-" yaml:"token"`
	AdminIDs              []int64 `json:"admin_ids" yaml:"admin_ids"`
	ParseMode             string  `json:"parse_mode" yaml:"parse_mode"` // HTML, MarkdownV2, plain
	CaptionLimit          int     `json:"caption_limit" yaml:"caption_limit"`
	PollingTimeoutSeconds int     `json:"polling_timeout_seconds" yaml:"polling_timeout_seconds"`
	HandlerTimeoutSeconds int     `json:"handler_timeout_seconds" yaml:"handler_timeout_seconds"`
}

// Retry содержит политику повторов при сетевых ошибках
type Retry struct {
	NetworkAttempts int           `json:"network_attempts" yaml:"network_attempts"`
	InitialBackoff  time.Duration `json:"initial_backoff" yaml:"initial_backoff"`
	Multiplier      float64       `json:"multiplier" yaml:"multiplier"`
}

// Storage содержит настройки базы данных
type Storage struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// State содержит настройки хранилища шагов диалога
type State struct {
	TTL             time.Duration `json:"ttl" yaml:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// Broadcast содержит настройки рассылок
type Broadcast struct {
	Concurrency int           `json:"concurrency" yaml:"concurrency"`
	JobTTL      time.Duration `json:"job_ttl" yaml:"job_ttl"`
}

// Server содержит конфигурацию служебного HTTP-сервера
type Server struct {
	Enabled                bool   `json:"enabled" yaml:"enabled"`
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text, auto
}

// Config содержит конфигурацию приложения
type Config struct {
	Bot       Bot               `json:"bot" yaml:"bot"`
	Retry     Retry             `json:"retry" yaml:"retry"`
	Storage   Storage           `json:"storage" yaml:"storage"`
	State     State             `json:"state" yaml:"state"`
	Broadcast Broadcast         `json:"broadcast" yaml:"broadcast"`
	Server    Server            `json:"server" yaml:"server"`
	Logging   Logging           `json:"logging" yaml:"logging"`
	Media     map[string]string `json:"media" yaml:"media"`
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML-файл,
// затем .env и переменные окружения.
func LoadConfig() (*Config, error) {
	// Отсутствие .env не ошибка: переменные могут прийти из окружения.
	_ = godotenv.Load()

	path := getEnv("CONFIG_PATH", DefaultConfigPath)
	cfg, err := loadFromYAML(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}
	return cfg, nil
}

// loadFromYAML накладывает YAML-файл на значения по умолчанию. Отсутствующий файл допустим.
func loadFromYAML(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	if cfg.Media == nil {
		cfg.Media = map[string]string{}
	}
	return cfg, nil
}

// applyEnv переопределяет значения переменными окружения.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v, ok := os.LookupEnv("ADMIN_IDS"); ok {
		ids, err := ParseAdminIDs(v)
		if err != nil {
			return err
		}
		cfg.Bot.AdminIDs = ids
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		host, portStr, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("недопустимый HTTP_ADDR: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("недопустимый порт в HTTP_ADDR: %w", err)
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}
	return nil
}

// ParseAdminIDs разбирает список идентификаторов через запятую. Пустые элементы пропускаются.
func ParseAdminIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("недопустимый ADMIN_IDS элемент %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ShutdownTimeout возвращает таймаут корректного завершения сервера.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// HandlerTimeout возвращает таймаут обработки одного события.
func (c *Config) HandlerTimeout() time.Duration {
	return time.Duration(c.Bot.HandlerTimeoutSeconds) * time.Second
}

// IsAdmin сообщает, входит ли пользователь в список администраторов.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.Bot.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

// MediaFileID возвращает file_id медиа по ключу или пустую строку.
func (c *Config) MediaFileID(key string) string {
	return c.Media[key]
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	var errs []error

	if c.Bot.Token == "" {
		errs = append(errs, errors.New("bot.token не может быть пустым (BOT_TOKEN)"))
	}
	for _, id := range c.Bot.AdminIDs {
		if id <= 0 {
			errs = append(errs, fmt.Errorf("bot.admin_ids содержит недопустимый идентификатор %d", id))
		}
	}
	switch c.Bot.ParseMode {
	case "HTML", "MarkdownV2", "plain":
	default:
		errs = append(errs, errors.New("bot.parse_mode должен быть одним из: HTML, MarkdownV2, plain"))
	}
	if c.Bot.CaptionLimit <= 0 || c.Bot.CaptionLimit > 1024 {
		errs = append(errs, errors.New("bot.caption_limit должен быть в диапазоне 1-1024"))
	}
	if c.Bot.PollingTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("bot.polling_timeout_seconds должно быть положительным"))
	}
	if c.Bot.HandlerTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("bot.handler_timeout_seconds должно быть положительным"))
	}

	if c.Retry.NetworkAttempts <= 0 {
		errs = append(errs, errors.New("retry.network_attempts должно быть положительным"))
	}
	if c.Retry.InitialBackoff <= 0 {
		errs = append(errs, errors.New("retry.initial_backoff должно быть положительным"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry.multiplier должен быть не меньше 1"))
	}

	if c.Storage.DBPath == "" {
		errs = append(errs, errors.New("storage.db_path не может быть пустым"))
	}

	if c.State.TTL <= 0 {
		errs = append(errs, errors.New("state.ttl должно быть положительным"))
	}
	if c.State.CleanupInterval <= 0 {
		errs = append(errs, errors.New("state.cleanup_interval должно быть положительным"))
	}

	if c.Broadcast.Concurrency <= 0 {
		errs = append(errs, errors.New("broadcast.concurrency должно быть положительным"))
	}
	if c.Broadcast.JobTTL <= 0 {
		errs = append(errs, errors.New("broadcast.job_ttl должно быть положительным"))
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, errors.New("server.port должен быть действительным номером порта (1-65535)"))
		}
		if c.Server.ShutdownTimeoutSeconds <= 0 {
			errs = append(errs, errors.New("server.shutdown_timeout_seconds должно быть положительным"))
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, errors.New("logging.level должен быть одним из: debug, info, warn, error"))
	}
	switch c.Logging.Format {
	case "json", "text", "auto":
	default:
		errs = append(errs, errors.New("logging.format должен быть одним из: json, text, auto"))
	}

	return errors.Join(errs...)
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
