// reconcile.go — фоновая сверка реестра с Content Store.
//
// Две категории расхождений:
//   - осиротевшие объекты: содержимое без записи реестра (рестарт
//     процесса, сбой вставки после записи содержимого);
//   - повисшие записи: запись реестра без содержимого (сбой между
//     шагами delete).
//
// Сверка только отчитывается (лог + метрики), ничего не удаляет:
// устаревшее состояние — документированное ограничение, не предмет
// тихого авторемонта.
//
// Запускается как горутина с периодическим тикером (MNEMOS_RECONCILE_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/mnemos/internal/storage/contentstore"
	"github.com/bigkaa/mnemos/internal/storage/registry"
)

// Prometheus метрики сверки
var (
	// reconcileRunsTotal — количество запусков сверки.
	reconcileRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemos_reconcile_runs_total",
		Help: "Общее количество запусков сверки хранилища с реестром",
	})

	// orphanObjects — объекты хранилища без записи реестра (gauge).
	orphanObjects = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mnemos_orphan_objects",
		Help: "Количество объектов хранилища без владеющей записи реестра",
	})

	// danglingRecords — записи реестра без содержимого (gauge).
	danglingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mnemos_dangling_records",
		Help: "Количество записей реестра без содержимого в хранилище",
	})

	// reconcileDurationSeconds — длительность выполнения сверки.
	reconcileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mnemos_reconcile_duration_seconds",
		Help:    "Длительность сверки в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// ReconcileResult — результат одного запуска сверки.
type ReconcileResult struct {
	// ScannedObjects — объектов в хранилище
	ScannedObjects int
	// OrphanObjects — объектов без записи реестра
	OrphanObjects int
	// DanglingRecords — записей без содержимого
	DanglingRecords int
	// Duration — длительность выполнения
	Duration time.Duration
}

// ReconcileService — сервис фоновой сверки.
type ReconcileService struct {
	store    *contentstore.Store
	reg      *registry.Registry
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
}

// NewReconcileService создаёт сервис сверки.
func NewReconcileService(
	store *contentstore.Store,
	reg *registry.Registry,
	interval time.Duration,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		store:    store,
		reg:      reg,
		interval: interval,
		logger:   logger.With(slog.String("component", "reconcile")),
	}
}

// Start запускает фоновую горутину сверки с периодическим тикером.
// При interval <= 0 выполняется только разовая сверка при старте.
func (rs *ReconcileService) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	rs.cancel = cancel

	go rs.run(runCtx)

	rs.logger.Info("Сверка запущена",
		slog.String("interval", rs.interval.String()),
	)
}

// Stop останавливает фоновый процесс сверки.
func (rs *ReconcileService) Stop() {
	if rs.cancel != nil {
		rs.cancel()
	}
	rs.logger.Info("Сверка остановлена")
}

// run — основной цикл фоновой горутины.
func (rs *ReconcileService) run(ctx context.Context) {
	// Первый запуск — сразу после старта
	if _, err := rs.RunOnce(); err != nil {
		rs.logger.Error("Ошибка сверки", slog.String("error", err.Error()))
	}

	if rs.interval <= 0 {
		return
	}

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rs.RunOnce(); err != nil {
				rs.logger.Error("Ошибка сверки", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce выполняет одну сверку хранилища с реестром.
func (rs *ReconcileService) RunOnce() (*ReconcileResult, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	start := time.Now()
	reconcileRunsTotal.Inc()

	keys, err := rs.store.Scan()
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool)
	dangling := 0
	for _, rec := range rs.reg.List() {
		owned[rec.StorageKey] = true
		if !rs.store.Exists(rec.StorageKey) {
			dangling++
			rs.logger.Warn("Запись реестра без содержимого",
				slog.String("dataset_id", rec.ID),
				slog.String("storage_key", rec.StorageKey),
			)
		}
	}

	orphans := 0
	for _, key := range keys {
		if !owned[key] {
			orphans++
			rs.logger.Warn("Осиротевший объект хранилища",
				slog.String("storage_key", key),
			)
		}
	}

	result := &ReconcileResult{
		ScannedObjects:  len(keys),
		OrphanObjects:   orphans,
		DanglingRecords: dangling,
		Duration:        time.Since(start),
	}

	orphanObjects.Set(float64(orphans))
	danglingRecords.Set(float64(dangling))
	reconcileDurationSeconds.Observe(result.Duration.Seconds())

	rs.logger.Info("Сверка завершена",
		slog.Int("scanned", result.ScannedObjects),
		slog.Int("orphans", result.OrphanObjects),
		slog.Int("dangling", result.DanglingRecords),
		slog.String("duration", result.Duration.String()),
	)

	return result, nil
}
