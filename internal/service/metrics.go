// metrics.go — Prometheus бизнес-метрики сервисного слоя.
// HTTP-метрики (mnemos_http_*) регистрируются в api/middleware.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal — общее количество операций с датасетами.
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mnemos_operations_total",
			Help: "Общее количество операций с датасетами",
		},
		[]string{"operation", "result"},
	)

	// datasetsTotal — текущее количество датасетов в реестре (gauge).
	datasetsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mnemos_datasets_total",
			Help: "Текущее количество датасетов в реестре",
		},
	)

	// ingestBytesTotal — суммарный объём принятого содержимого.
	ingestBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mnemos_ingest_bytes_total",
			Help: "Суммарный объём принятого содержимого датасетов в байтах",
		},
	)
)
