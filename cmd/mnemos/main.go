// main.go — точка входа mnemos.
// Собирает зависимости: config → logger → хранилище → реестр →
// сервисы → handlers → HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/bigkaa/mnemos/internal/api/handlers"
	"github.com/bigkaa/mnemos/internal/api/middleware"
	"github.com/bigkaa/mnemos/internal/config"
	"github.com/bigkaa/mnemos/internal/server"
	"github.com/bigkaa/mnemos/internal/service"
	"github.com/bigkaa/mnemos/internal/storage/contentstore"
	"github.com/bigkaa/mnemos/internal/storage/registry"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("mnemos запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage_dir", cfg.StorageDir),
	)

	// 3. Хранилище содержимого и реестр метаданных
	store, err := contentstore.New(cfg.StorageDir)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}
	reg := registry.New()

	// 4. Сервисный слой
	datasetSvc := service.NewDatasetService(cfg, store, reg, logger)
	schemaSvc := service.NewSchemaService(store, reg, cfg.SchemaSampleRows, logger)

	// 5. Фоновая сверка хранилища с реестром
	reconcileSvc := service.NewReconcileService(store, reg, cfg.ReconcileInterval, logger)
	reconcileSvc.Start(context.Background())
	defer reconcileSvc.Stop()

	// 6. HTTP handlers
	h := server.Handlers{
		Datasets: handlers.NewDatasetsHandler(datasetSvc, cfg.MaxUploadSize),
		Schema:   handlers.NewSchemaHandler(schemaSvc),
		Health:   handlers.NewHealthHandler(cfg.StorageDir),
	}

	// 7. HTTP-сервер с middleware (метрики до логирования)
	srv := server.New(cfg, logger, h,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	// 8. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("mnemos остановлен")
}
