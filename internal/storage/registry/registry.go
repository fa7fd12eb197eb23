// Пакет registry — потокобезопасный in-memory реестр метаданных датасетов.
//
// Реестр — единственный источник истины о существовании датасета.
// Все мутации сериализуются одним sync.RWMutex: ни одна операция не
// наблюдает частичный эффект другой. Записи копируются при входе и
// выходе, поэтому изменить состояние реестра через разделяемый
// указатель невозможно.
//
// Не персистентный: рестарт процесса теряет реестр (осиротевшие
// объекты в хранилище находит reconciliation).
package registry

import (
	"fmt"
	"sync"

	"github.com/bigkaa/mnemos/internal/domain/model"
)

// Ошибки контракта реестра.
var (
	// ErrNotFound — датасет с указанным идентификатором отсутствует.
	ErrNotFound = fmt.Errorf("датасет не найден в реестре")
	// ErrExists — идентификатор уже занят. При UUID-генерации
	// идентификаторов не должно происходить, но контракт обязан
	// выполняться.
	ErrExists = fmt.Errorf("датасет уже существует в реестре")
)

// Registry — реестр метаданных датасетов.
// Использует sync.RWMutex для конкурентного чтения и
// эксклюзивной записи.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*model.DatasetRecord // dataset_id → record
	// order — идентификаторы в порядке вставки, для детерминизма List
	order []string
}

// New создаёт пустой реестр.
func New() *Registry {
	return &Registry{
		records: make(map[string]*model.DatasetRecord),
	}
}

// Insert добавляет новую запись. Возвращает ErrExists, если
// идентификатор уже занят. Вставка — точка публикации: до возврата
// Insert запись не видна ни одной другой операции.
func (r *Registry) Insert(rec *model.DatasetRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, rec.ID)
	}

	copied := *rec
	r.records[rec.ID] = &copied
	r.order = append(r.order, rec.ID)
	return nil
}

// Get возвращает копию записи по идентификатору или ErrNotFound.
func (r *Registry) Get(id string) (*model.DatasetRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	copied := *rec
	return &copied, nil
}

// Replace атомарно заменяет запись с указанным идентификатором.
// Возвращает ErrNotFound, если запись отсутствует.
func (r *Registry) Replace(id string, rec *model.DatasetRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	copied := *rec
	r.records[id] = &copied
	return nil
}

// Remove атомарно удаляет запись и возвращает её копию, чтобы
// вызывающий код мог очистить storage_key. Возвращает ErrNotFound,
// если запись отсутствует — повторное удаление того же идентификатора
// всегда завершается ошибкой.
func (r *Registry) Remove(id string) (*model.DatasetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(r.records, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	copied := *rec
	return &copied, nil
}

// List возвращает снапшот всех записей в порядке вставки.
// Каждая запись — защитная копия.
func (r *Registry) List() []*model.DatasetRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.DatasetRecord, 0, len(r.records))
	for _, id := range r.order {
		copied := *r.records[id]
		out = append(out, &copied)
	}
	return out
}

// Count возвращает количество записей в реестре.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
