// csv.go — сэмплирование CSV. Первая строка — заголовок.
package schema

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// sampleCSV читает заголовок и не более maxRows строк данных.
// Строки с недостающими полями дополняются отсутствующими значениями,
// поля за пределами заголовка игнорируются.
func sampleCSV(f *os.File, maxRows int) (*Result, error) {
	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		// Полностью пустой файл: нет ни строк, ни колонок
		return &Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заголовка CSV: %w", err)
	}

	inf := newInference()
	for _, name := range header {
		inf.column(name)
	}

	for inf.rows < maxRows {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения CSV: %w", err)
		}

		for i := range inf.names {
			if i < len(rec) {
				inf.observeCell(i, rec[i])
			} else {
				inf.observeNull(i)
			}
		}
		inf.rowDone()
	}

	return inf.result(), nil
}
