// Пакет contentstore — операции с содержимым датасетов на диске.
// Хранилище адресуется непрозрачными ключами (datasets/<id>/raw<ext>),
// ничего не знает о семантике датасетов. Обеспечивает streaming-запись
// чанками, чтение, идемпотентное удаление и сканирование ключей.
package contentstore

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// copyBufferSize — размер чанка при streaming-записи (1 MiB).
// Файл никогда не читается в память целиком.
const copyBufferSize = 1 << 20

// ErrNotFound — объект с указанным ключом отсутствует в хранилище.
var ErrNotFound = fmt.Errorf("объект не найден в хранилище")

// Store — файловое хранилище содержимого датасетов.
type Store struct {
	// rootDir — корневая директория хранения (MNEMOS_STORAGE_DIR)
	rootDir string
}

// New создаёт новый Store. Проверяет и создаёт корневую директорию,
// если она не существует.
func New(rootDir string) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию хранилища %s: %w", rootDir, err)
	}
	return &Store{rootDir: rootDir}, nil
}

// Save записывает данные из reader под указанным ключом и возвращает
// точное количество записанных байт. Существующее содержимое ключа
// перезаписывается (требуется для update-in-place).
//
// Паттерн: temp файл → запись чанками → fsync → atomic rename.
// Temp файл уникален на каждый вызов: конкурентные записи под один
// ключ не делят inode, каждая публикует только своё полное
// содержимое, побеждает последний завершившийся rename.
// При ошибке потока temp файл удаляется, прежнее содержимое ключа
// остаётся нетронутым — частичная запись никогда не публикуется.
func (s *Store) Save(key string, reader io.Reader) (int64, error) {
	fullPath, err := s.pathForKey(key)
	if err != nil {
		return 0, err
	}

	// Создаём промежуточные директории ключа
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return 0, fmt.Errorf("не удалось создать директорию для ключа %s: %w", key, err)
	}

	f, err := os.CreateTemp(filepath.Dir(fullPath), filepath.Base(fullPath)+"-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := f.Name()

	buf := make([]byte, copyBufferSize)
	size, err := io.CopyBuffer(f, reader, buf)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return size, nil
}

// Open открывает содержимое по ключу для последовательного чтения.
// Возвращает ErrNotFound, если объект отсутствует.
// Вызывающий код обязан закрыть файл.
func (s *Store) Open(key string) (*os.File, error) {
	fullPath, err := s.pathForKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("ошибка открытия объекта %s: %w", key, err)
	}
	return f, nil
}

// Delete удаляет объект по ключу. Возвращает nil, если объект уже
// отсутствует — удаление идемпотентно, координатор может вызывать
// его защитно. Опустевшая директория ключа также удаляется.
func (s *Store) Delete(key string) error {
	fullPath, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("ошибка удаления объекта %s: %w", key, err)
	}

	// Подчищаем директорию datasets/<id>, если она опустела.
	// Ошибка не фатальна: директория могла быть уже удалена.
	dir := filepath.Dir(fullPath)
	if dir != s.rootDir {
		_ = os.Remove(dir)
	}

	return nil
}

// Exists проверяет наличие объекта по ключу.
func (s *Store) Exists(key string) bool {
	fullPath, err := s.pathForKey(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

// Size возвращает размер объекта по ключу в байтах.
func (s *Store) Size(key string) (int64, error) {
	fullPath, err := s.pathForKey(key)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return 0, fmt.Errorf("ошибка получения информации об объекте %s: %w", key, err)
	}
	return info.Size(), nil
}

// Scan возвращает ключи всех объектов в хранилище.
// Используется reconciliation для поиска осиротевших объектов.
// Temp-файлы незавершённых записей и служебные скрытые файлы
// (например, .health_check от readiness probe) пропускаются.
func (s *Store) Scan() ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, relErr := filepath.Rel(s.rootDir, path)
		if relErr != nil {
			return relErr
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования хранилища: %w", err)
	}
	return keys, nil
}

// RootDir возвращает путь к корневой директории хранилища.
func (s *Store) RootDir() string {
	return s.rootDir
}

// pathForKey преобразует ключ в абсолютный путь внутри rootDir.
// Ключи с выходом за пределы корня (..) отклоняются.
func (s *Store) pathForKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("пустой ключ хранилища")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("недопустимый ключ хранилища: %q", key)
	}
	return filepath.Join(s.rootDir, clean), nil
}
