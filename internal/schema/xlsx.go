// xlsx.go — сэмплирование XLSX через excelize.
// Читается первый лист книги, первая строка — заголовок.
package schema

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// sampleXLSX читает не более maxRows строк данных первого листа.
// Ячейки приходят строками — типы выводятся так же, как для CSV.
func sampleXLSX(f *os.File, maxRows int) (*Result, error) {
	wb, err := excelize.OpenReader(f)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия XLSX: %w", err)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	if sheet == "" {
		return &Result{}, nil
	}

	rows, err := wb.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %q: %w", sheet, err)
	}
	defer rows.Close()

	inf := newInference()
	header := true

	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения строки XLSX: %w", err)
		}

		if header {
			for _, name := range cells {
				inf.column(name)
			}
			header = false
			continue
		}

		if inf.rows >= maxRows {
			break
		}

		// Хвостовые пустые ячейки excelize не возвращает —
		// дополняем отсутствующими значениями
		for i := range inf.names {
			if i < len(cells) {
				inf.observeCell(i, cells[i])
			} else {
				inf.observeNull(i)
			}
		}
		inf.rowDone()
	}

	return inf.result(), nil
}
