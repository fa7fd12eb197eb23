// Пакет model — доменные модели mnemos.
// DatasetRecord — единая структура метаданных датасета, используется
// как in-memory представление и как формат API-ответа.
package model

import (
	"time"
)

// DatasetStatus — статус датасета в реестре.
type DatasetStatus string

const (
	// StatusUploaded — датасет загружен и доступен для операций
	StatusUploaded DatasetStatus = "uploaded"
	// StatusDeleted — датасет удалён (запись изымается из реестра,
	// статус используется только в переходном состоянии)
	StatusDeleted DatasetStatus = "deleted"
)

// DatasetRecord — метаданные загруженного датасета.
type DatasetRecord struct {
	// ID — уникальный идентификатор датасета (UUID v4).
	// Неизменяем на протяжении жизни записи, никогда не переиспользуется.
	ID string `json:"dataset_id"`

	// OriginalName — имя файла, указанное пользователем при загрузке.
	// Изменяемо через update.
	OriginalName string `json:"original_name"`

	// SizeBytes — точный размер содержимого под StorageKey в байтах.
	// Пересчитывается при каждой записи содержимого.
	SizeBytes int64 `json:"size_bytes"`

	// Status — текущий статус датасета
	Status DatasetStatus `json:"status"`

	// CreatedAt — дата и время создания (UTC). Устанавливается один раз.
	CreatedAt time.Time `json:"created_at"`

	// StorageKey — ключ содержимого в Content Store.
	// Формат: datasets/<id>/raw<ext>. Фиксирован на всю жизнь записи:
	// обновление содержимого перезаписывает тот же ключ.
	StorageKey string `json:"storage_key"`
}

// IsUploaded проверяет, что датасет в активном состоянии.
func (r *DatasetRecord) IsUploaded() bool {
	return r.Status == StatusUploaded
}

// ColumnSchema — имя, выведенный тип и nullable-признак одной колонки.
type ColumnSchema struct {
	Name string `json:"name"`
	// Dtype — один из: integer, float, boolean, datetime, string
	Dtype string `json:"dtype"`
	// Nullable — true, если среди сэмплированных значений колонки
	// встретилось отсутствующее
	Nullable bool `json:"nullable"`
}

// SchemaSummary — результат сэмплирования схемы датасета.
type SchemaSummary struct {
	DatasetID string `json:"dataset_id"`
	// RowCount — количество сэмплированных строк (не обязательно
	// полное количество строк файла)
	RowCount int            `json:"row_count"`
	Columns  []ColumnSchema `json:"columns"`
}
