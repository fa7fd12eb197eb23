// Пакет schema — сэмплирование схемы табличных файлов.
//
// Для каждого поддерживаемого формата (CSV, XLSX, Parquet, JSON)
// определена функция сэмплирования, читающая не более maxRows строк
// и выводящая тип каждой колонки. Диспетчеризация — таблица по
// расширению, без обращения к реестру: пакет работает только с
// открытым содержимым.
package schema

import (
	"fmt"
	"os"
	"strings"

	"github.com/bigkaa/mnemos/internal/domain/model"
)

// ErrUnsupportedFormat — для расширения нет функции сэмплирования.
var ErrUnsupportedFormat = fmt.Errorf("формат не поддерживается для сэмплирования схемы")

// Result — результат сэмплирования одного файла.
type Result struct {
	// RowCount — количество сэмплированных строк данных
	// (заголовок не считается, полный размер файла не известен)
	RowCount int
	Columns  []model.ColumnSchema
}

// sampleFunc — функция сэмплирования одного формата.
// Принимает открытый файл (Parquet требует io.ReaderAt и размер).
type sampleFunc func(f *os.File, maxRows int) (*Result, error)

// readers — таблица диспетчеризации по расширению.
var readers = map[string]sampleFunc{
	".csv":     sampleCSV,
	".json":    sampleJSON,
	".xlsx":    sampleXLSX,
	".parquet": sampleParquet,
}

// Supported сообщает, есть ли для расширения функция сэмплирования.
func Supported(ext string) bool {
	_, ok := readers[strings.ToLower(ext)]
	return ok
}

// Sample сэмплирует схему файла в указанном формате.
// Возвращает ErrUnsupportedFormat для неизвестного расширения.
func Sample(ext string, f *os.File, maxRows int) (*Result, error) {
	read, ok := readers[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return read(f, maxRows)
}
