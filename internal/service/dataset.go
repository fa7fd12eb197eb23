// Пакет service — бизнес-логика mnemos.
// dataset.go — координатор датасетов: create/update/delete/get/list
// поверх Content Store, Key Generator и Metadata Registry.
package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bigkaa/mnemos/internal/config"
	"github.com/bigkaa/mnemos/internal/domain/model"
	"github.com/bigkaa/mnemos/internal/storage/contentstore"
	"github.com/bigkaa/mnemos/internal/storage/keygen"
	"github.com/bigkaa/mnemos/internal/storage/registry"
)

// DatasetService — координатор операций с датасетами.
//
// Дисциплина блокировок: содержимое пишется и удаляется до и вне
// блокировки реестра; сам реестр берёт блокировку только внутри своих
// быстрых in-memory операций. Два конкурентных create не мешают друг
// другу на фазе streaming и коротко соприкасаются лишь на вставке.
type DatasetService struct {
	store   *contentstore.Store
	reg     *registry.Registry
	allowed map[string]bool
	logger  *slog.Logger
}

// UpdateParams — параметры обновления датасета.
// Оба поля опциональны; без обоих update — no-op, не ошибка.
type UpdateParams struct {
	// OriginalName — новое имя файла. Расширение заново не
	// валидируется: переименование не меняет storage_key.
	OriginalName *string
	// Content — новое содержимое, пишется поверх существующего ключа
	Content io.Reader
}

// NewDatasetService создаёт координатор датасетов.
func NewDatasetService(
	cfg *config.Config,
	store *contentstore.Store,
	reg *registry.Registry,
	logger *slog.Logger,
) *DatasetService {
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = true
	}

	return &DatasetService{
		store:   store,
		reg:     reg,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "dataset_service")),
	}
}

// Create загружает новый датасет.
//
// Поток: валидация расширения → генерация ключа → streaming-запись
// содержимого → вставка записи в реестр (точка публикации).
// При ошибке записи реестр не мутируется. Если запись содержимого
// удалась, а вставка — нет (коллизия идентификаторов), осиротевший
// объект остаётся в хранилище: известное ограничение, находится
// reconciliation, автоматически не чинится.
func (s *DatasetService) Create(filename string, content io.Reader) (*model.DatasetRecord, *Error) {
	ext, svcErr := s.validateExtension(filename)
	if svcErr != nil {
		operationsTotal.WithLabelValues("create", "error").Inc()
		return nil, svcErr
	}

	id, key := keygen.Generate(ext)

	size, err := s.store.Save(key, content)
	if err != nil {
		operationsTotal.WithLabelValues("create", "error").Inc()
		s.logger.Error("Ошибка записи содержимого",
			slog.String("dataset_id", id),
			slog.String("storage_key", key),
			slog.String("error", err.Error()),
		)
		return nil, newError(KindStorageFailure, err, "Ошибка сохранения содержимого датасета")
	}

	rec := &model.DatasetRecord{
		ID:           id,
		OriginalName: filename,
		SizeBytes:    size,
		Status:       model.StatusUploaded,
		CreatedAt:    time.Now().UTC(),
		StorageKey:   key,
	}

	if err := s.reg.Insert(rec); err != nil {
		operationsTotal.WithLabelValues("create", "error").Inc()
		s.logger.Error("Ошибка вставки в реестр, объект осиротел",
			slog.String("dataset_id", id),
			slog.String("storage_key", key),
			slog.String("error", err.Error()),
		)
		return nil, newError(KindConflict, err, "Коллизия идентификаторов датасета")
	}

	operationsTotal.WithLabelValues("create", "success").Inc()
	datasetsTotal.Set(float64(s.reg.Count()))
	ingestBytesTotal.Add(float64(size))

	s.logger.Info("Датасет создан",
		slog.String("dataset_id", id),
		slog.String("original_name", filename),
		slog.Int64("size_bytes", size),
		slog.String("storage_key", key),
	)

	return rec, nil
}

// Update обновляет имя и/или содержимое датасета.
// Содержимое пишется поверх существующего storage_key — ключ и
// created_at неизменны на всю жизнь записи.
func (s *DatasetService) Update(id string, params UpdateParams) (*model.DatasetRecord, *Error) {
	rec, err := s.reg.Get(id)
	if err != nil {
		operationsTotal.WithLabelValues("update", "error").Inc()
		return nil, newError(KindNotFound, err, "Датасет %s не найден", id)
	}

	// No-op update возвращает запись без изменений
	if params.OriginalName == nil && params.Content == nil {
		operationsTotal.WithLabelValues("update", "success").Inc()
		return rec, nil
	}

	if params.OriginalName != nil {
		if *params.OriginalName == "" {
			operationsTotal.WithLabelValues("update", "error").Inc()
			return nil, newError(KindInvalidInput, nil, "Имя файла не может быть пустым")
		}
		rec.OriginalName = *params.OriginalName
	}

	if params.Content != nil {
		size, saveErr := s.store.Save(rec.StorageKey, params.Content)
		if saveErr != nil {
			operationsTotal.WithLabelValues("update", "error").Inc()
			s.logger.Error("Ошибка перезаписи содержимого",
				slog.String("dataset_id", id),
				slog.String("storage_key", rec.StorageKey),
				slog.String("error", saveErr.Error()),
			)
			return nil, newError(KindStorageFailure, saveErr, "Ошибка сохранения содержимого датасета")
		}
		rec.SizeBytes = size
		ingestBytesTotal.Add(float64(size))
	}

	if err := s.reg.Replace(id, rec); err != nil {
		// Датасет удалён конкурентно после Get. Содержимое могло быть
		// переписано под уже ничейным ключом — подчищаем защитно
		// (Delete идемпотентен).
		if params.Content != nil {
			_ = s.store.Delete(rec.StorageKey)
		}
		operationsTotal.WithLabelValues("update", "error").Inc()
		return nil, newError(KindNotFound, err, "Датасет %s не найден", id)
	}

	operationsTotal.WithLabelValues("update", "success").Inc()

	s.logger.Info("Датасет обновлён",
		slog.String("dataset_id", id),
		slog.String("original_name", rec.OriginalName),
		slog.Int64("size_bytes", rec.SizeBytes),
		slog.Bool("content_replaced", params.Content != nil),
	)

	return rec, nil
}

// Delete удаляет датасет: сначала содержимое, затем запись реестра.
//
// Порядок намеренный: при сбое между шагами остаётся запись реестра,
// указывающая на отсутствующее содержимое (обнаружимо, операция
// повторяема), а не осиротевший объект без владельца (тихая утечка).
// Отсутствие объекта под ключом не ошибка — удаление содержимого
// идемпотентно.
func (s *DatasetService) Delete(id string) *Error {
	rec, err := s.reg.Get(id)
	if err != nil {
		operationsTotal.WithLabelValues("delete", "error").Inc()
		return newError(KindNotFound, err, "Датасет %s не найден", id)
	}

	if err := s.store.Delete(rec.StorageKey); err != nil {
		// Настоящая ошибка I/O (права, диск): запись остаётся в
		// реестре, удаление можно повторить
		operationsTotal.WithLabelValues("delete", "error").Inc()
		s.logger.Error("Ошибка удаления содержимого",
			slog.String("dataset_id", id),
			slog.String("storage_key", rec.StorageKey),
			slog.String("error", err.Error()),
		)
		return newError(KindStorageFailure, err, "Ошибка удаления содержимого датасета")
	}

	if _, err := s.reg.Remove(id); err != nil {
		operationsTotal.WithLabelValues("delete", "error").Inc()
		return newError(KindNotFound, err, "Датасет %s не найден", id)
	}

	operationsTotal.WithLabelValues("delete", "success").Inc()
	datasetsTotal.Set(float64(s.reg.Count()))

	s.logger.Info("Датасет удалён",
		slog.String("dataset_id", id),
		slog.String("storage_key", rec.StorageKey),
	)

	return nil
}

// Get возвращает запись датасета по идентификатору.
func (s *DatasetService) Get(id string) (*model.DatasetRecord, *Error) {
	rec, err := s.reg.Get(id)
	if err != nil {
		return nil, newError(KindNotFound, err, "Датасет %s не найден", id)
	}
	return rec, nil
}

// List возвращает снапшот всех записей в порядке создания.
func (s *DatasetService) List() []*model.DatasetRecord {
	return s.reg.List()
}

// validateExtension проверяет имя файла и возвращает нормализованное
// расширение. Сравнение регистронезависимое: .CSV допустим, если
// разрешён .csv.
func (s *DatasetService) validateExtension(filename string) (string, *Error) {
	if filename == "" {
		return "", newError(KindInvalidInput, nil, "Имя файла не задано")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", newError(KindInvalidInput, nil, "Имя файла %q не содержит расширения", filename)
	}
	if !s.allowed[ext] {
		return "", newError(KindInvalidInput, nil, "Расширение %q не входит в список разрешённых", ext)
	}
	return ext, nil
}
