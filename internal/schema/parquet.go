// parquet.go — сэмплирование Parquet через parquet-go.
// Имена и типы колонок берутся из схемы файла (нативная типизация,
// без разбора строк), null-значения считаются по сэмплированным
// строкам value-wise.
package schema

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/bigkaa/mnemos/internal/domain/model"
)

// parquetReadBatch — размер батча чтения строк.
const parquetReadBatch = 256

// sampleParquet читает не более maxRows строк из row groups файла.
func sampleParquet(f *os.File, maxRows int) (*Result, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения размера файла: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия Parquet: %w", err)
	}

	fields := pf.Schema().Fields()
	nulls := make([]bool, len(fields))

	sampled := 0
	for _, rg := range pf.RowGroups() {
		if sampled >= maxRows {
			break
		}
		n, err := sampleRowGroup(rg, nulls, maxRows-sampled)
		if err != nil {
			return nil, err
		}
		sampled += n
	}

	columns := make([]model.ColumnSchema, 0, len(fields))
	for i, field := range fields {
		columns = append(columns, model.ColumnSchema{
			Name:     field.Name(),
			Dtype:    parquetDtype(field),
			Nullable: nulls[i],
		})
	}

	return &Result{RowCount: sampled, Columns: columns}, nil
}

// sampleRowGroup читает до limit строк одной row group, отмечая
// колонки с null-значениями. Возвращает количество прочитанных строк.
func sampleRowGroup(rg parquet.RowGroup, nulls []bool, limit int) (int, error) {
	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, parquetReadBatch)
	sampled := 0

	for sampled < limit {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			if sampled >= limit {
				break
			}
			for _, v := range row {
				c := v.Column()
				if c >= 0 && c < len(nulls) && v.IsNull() {
					nulls[c] = true
				}
			}
			sampled++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sampled, fmt.Errorf("ошибка чтения строк Parquet: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return sampled, nil
}

// parquetDtype отображает физический и логический тип поля Parquet
// на таксономию {integer, float, boolean, datetime, string}.
func parquetDtype(field parquet.Field) string {
	if !field.Leaf() {
		// Вложенная группа — нетабличная колонка
		return dtypeString
	}

	t := field.Type()
	if lt := t.LogicalType(); lt != nil {
		switch {
		case lt.Timestamp != nil, lt.Date != nil:
			return dtypeDatetime
		case lt.UTF8 != nil:
			return dtypeString
		}
	}

	switch t.Kind() {
	case parquet.Boolean:
		return dtypeBoolean
	case parquet.Int32, parquet.Int64, parquet.Int96:
		return dtypeInteger
	case parquet.Float, parquet.Double:
		return dtypeFloat
	default:
		return dtypeString
	}
}
