// Пакет config — загрузка и валидация конфигурации mnemos
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к корневой директории хранения содержимого датасетов
	StorageDir string
	// Максимальный размер загружаемого файла в байтах.
	// Применяется маршрутизирующим слоем до передачи потока координатору.
	MaxUploadSize int64
	// Разрешённые расширения файлов (нормализованы: нижний регистр,
	// ведущая точка)
	AllowedExtensions []string
	// Верхняя граница окна сэмплирования схемы в строках
	SchemaSampleRows int
	// Интервал фоновой сверки хранилища с реестром (0 — только при старте)
	ReconcileInterval time.Duration
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// MNEMOS_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("MNEMOS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("MNEMOS_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("MNEMOS_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// MNEMOS_STORAGE_DIR — обязательный
	cfg.StorageDir, err = getEnvRequired("MNEMOS_STORAGE_DIR")
	if err != nil {
		return nil, err
	}

	// MNEMOS_MAX_UPLOAD_SIZE — максимальный размер загрузки (по умолчанию 50 MiB)
	maxUploadSize, err := getEnvInt64("MNEMOS_MAX_UPLOAD_SIZE", 50*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("MNEMOS_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUploadSize <= 0 {
		return nil, fmt.Errorf("MNEMOS_MAX_UPLOAD_SIZE: значение должно быть положительным")
	}
	cfg.MaxUploadSize = maxUploadSize

	// MNEMOS_ALLOWED_EXTENSIONS — список разрешённых расширений
	cfg.AllowedExtensions, err = parseExtensions(
		getEnvDefault("MNEMOS_ALLOWED_EXTENSIONS", ".csv,.xlsx,.parquet,.json"))
	if err != nil {
		return nil, fmt.Errorf("MNEMOS_ALLOWED_EXTENSIONS: %w", err)
	}

	// MNEMOS_SCHEMA_SAMPLE_ROWS — окно сэмплирования схемы (по умолчанию 10000)
	sampleRows, err := getEnvInt("MNEMOS_SCHEMA_SAMPLE_ROWS", 10000)
	if err != nil {
		return nil, fmt.Errorf("MNEMOS_SCHEMA_SAMPLE_ROWS: %w", err)
	}
	if sampleRows <= 0 {
		return nil, fmt.Errorf("MNEMOS_SCHEMA_SAMPLE_ROWS: значение должно быть положительным")
	}
	cfg.SchemaSampleRows = sampleRows

	// MNEMOS_RECONCILE_INTERVAL — интервал сверки (по умолчанию 6h, 0 отключает)
	cfg.ReconcileInterval, err = getEnvDuration("MNEMOS_RECONCILE_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("MNEMOS_RECONCILE_INTERVAL: %w", err)
	}

	// MNEMOS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("MNEMOS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("MNEMOS_LOG_LEVEL: %w", err)
	}

	// MNEMOS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("MNEMOS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("MNEMOS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// MNEMOS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("MNEMOS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MNEMOS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseExtensions разбирает список расширений через запятую.
// Каждое расширение нормализуется: нижний регистр, ведущая точка.
func parseExtensions(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		ext := strings.ToLower(strings.TrimSpace(p))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if len(ext) == 1 {
			return nil, fmt.Errorf("некорректное расширение: %q", p)
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("список расширений пуст")
	}
	return exts, nil
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 6h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
