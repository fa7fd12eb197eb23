// schema.go — сервис сэмплирования схемы датасетов.
// Read-only операция: читает ключ из реестра и содержимое из
// Content Store, состояние системы не меняет.
package service

import (
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/bigkaa/mnemos/internal/domain/model"
	"github.com/bigkaa/mnemos/internal/schema"
	"github.com/bigkaa/mnemos/internal/storage/contentstore"
	"github.com/bigkaa/mnemos/internal/storage/registry"
)

// SchemaService — сервис вывода схемы по сэмплу строк.
type SchemaService struct {
	store *contentstore.Store
	reg   *registry.Registry
	// sampleRows — верхняя граница окна сэмплирования; ограничивает
	// память и задержку независимо от реального размера файла
	sampleRows int
	logger     *slog.Logger
}

// NewSchemaService создаёт сервис сэмплирования схемы.
func NewSchemaService(
	store *contentstore.Store,
	reg *registry.Registry,
	sampleRows int,
	logger *slog.Logger,
) *SchemaService {
	return &SchemaService{
		store:      store,
		reg:        reg,
		sampleRows: sampleRows,
		logger:     logger.With(slog.String("component", "schema_service")),
	}
}

// Infer выводит схему датасета: формат определяется по расширению
// storage_key, читается не более sampleRows строк.
func (s *SchemaService) Infer(id string) (*model.SchemaSummary, *Error) {
	rec, err := s.reg.Get(id)
	if err != nil {
		return nil, newError(KindNotFound, err, "Датасет %s не найден", id)
	}

	ext := strings.ToLower(path.Ext(rec.StorageKey))
	if !schema.Supported(ext) {
		return nil, newError(KindUnsupportedFormat, nil,
			"Формат %q не поддерживается для сэмплирования схемы", ext)
	}

	f, err := s.store.Open(rec.StorageKey)
	if err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			// Запись реестра указывает на отсутствующее содержимое —
			// окно сбоя delete либо потерянный объект
			s.logger.Error("Содержимое датасета отсутствует в хранилище",
				slog.String("dataset_id", id),
				slog.String("storage_key", rec.StorageKey),
			)
		}
		return nil, newError(KindStorageFailure, err, "Ошибка чтения содержимого датасета")
	}
	defer f.Close()

	res, err := schema.Sample(ext, f, s.sampleRows)
	if err != nil {
		if errors.Is(err, schema.ErrUnsupportedFormat) {
			return nil, newError(KindUnsupportedFormat, err,
				"Формат %q не поддерживается для сэмплирования схемы", ext)
		}
		return nil, newError(KindInvalidInput, err,
			"Не удалось разобрать содержимое датасета как %s", ext)
	}

	s.logger.Info("Схема выведена",
		slog.String("dataset_id", id),
		slog.Int("row_count", res.RowCount),
		slog.Int("columns", len(res.Columns)),
	)

	return &model.SchemaSummary{
		DatasetID: id,
		RowCount:  res.RowCount,
		Columns:   res.Columns,
	}, nil
}
