// infer.go — вывод типов колонок по сэмплированным значениям.
// Фиксированный приоритет: integer > float > boolean > datetime > string.
package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/mnemos/internal/domain/model"
)

// Портируемая таксономия типов колонок.
const (
	dtypeInteger  = "integer"
	dtypeFloat    = "float"
	dtypeBoolean  = "boolean"
	dtypeDatetime = "datetime"
	dtypeString   = "string"
)

// valueKind — нативный тип значения для форматов с типизированными
// значениями (JSON, Parquet). Текстовые форматы используют observeCell.
type valueKind int

const (
	kindInteger valueKind = iota
	kindFloat
	kindBool
	kindDatetime
	kindString
)

// columnState — накопленное состояние вывода типа одной колонки.
// Каждый кандидат типа начинается допустимым и исключается первым
// несовместимым значением.
type columnState struct {
	// seen — количество присутствующих (непустых) значений
	seen int
	// null — встречено отсутствующее значение
	null        bool
	canInt      bool
	canFloat    bool
	canBool     bool
	canDatetime bool
}

func newColumnState() *columnState {
	return &columnState{canInt: true, canFloat: true, canBool: true, canDatetime: true}
}

// dtype возвращает тип колонки по приоритету таксономии.
// Колонка без единого значения — string.
func (st *columnState) dtype() string {
	if st.seen == 0 {
		return dtypeString
	}
	switch {
	case st.canInt:
		return dtypeInteger
	case st.canFloat:
		return dtypeFloat
	case st.canBool:
		return dtypeBoolean
	case st.canDatetime:
		return dtypeDatetime
	default:
		return dtypeString
	}
}

// inference — состояние сэмплирования: колонки в порядке появления
// и счётчик строк.
type inference struct {
	names []string
	index map[string]int
	cols  []*columnState
	rows  int
}

func newInference() *inference {
	return &inference{index: make(map[string]int)}
}

// column возвращает индекс колонки, регистрируя её при первом появлении.
func (inf *inference) column(name string) int {
	if i, ok := inf.index[name]; ok {
		return i
	}
	i := len(inf.names)
	inf.names = append(inf.names, name)
	inf.index[name] = i
	inf.cols = append(inf.cols, newColumnState())
	return i
}

// observeCell учитывает текстовую ячейку (CSV, XLSX).
// Пустая ячейка считается отсутствующим значением.
func (inf *inference) observeCell(i int, cell string) {
	st := inf.cols[i]
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		st.null = true
		return
	}

	st.seen++
	if st.canInt {
		if _, err := strconv.ParseInt(trimmed, 10, 64); err != nil {
			st.canInt = false
		}
	}
	if st.canFloat {
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			st.canFloat = false
		}
	}
	if st.canBool {
		if _, err := strconv.ParseBool(strings.ToLower(trimmed)); err != nil {
			st.canBool = false
		}
	}
	if st.canDatetime && !parseDatetime(trimmed) {
		st.canDatetime = false
	}
}

// observeTyped учитывает значение с известным нативным типом.
// Нативный тип исключает несовместимых кандидатов: например, целое
// остаётся допустимым для float-колонки, но не наоборот.
func (inf *inference) observeTyped(i int, k valueKind) {
	st := inf.cols[i]
	st.seen++

	switch k {
	case kindInteger:
		st.canBool = false
		st.canDatetime = false
	case kindFloat:
		st.canInt = false
		st.canBool = false
		st.canDatetime = false
	case kindBool:
		st.canInt = false
		st.canFloat = false
		st.canDatetime = false
	case kindDatetime:
		st.canInt = false
		st.canFloat = false
		st.canBool = false
	case kindString:
		st.canInt = false
		st.canFloat = false
		st.canBool = false
		st.canDatetime = false
	}
}

// observeNull учитывает отсутствующее значение.
func (inf *inference) observeNull(i int) {
	inf.cols[i].null = true
}

// rowDone фиксирует завершение строки данных.
func (inf *inference) rowDone() {
	inf.rows++
}

// result собирает итоговую сводку. nullable — явное отсутствующее
// значение либо колонка, присутствовавшая не во всех строках
// (пропущенный ключ JSON-объекта).
func (inf *inference) result() *Result {
	columns := make([]model.ColumnSchema, 0, len(inf.names))
	for i, name := range inf.names {
		st := inf.cols[i]
		columns = append(columns, model.ColumnSchema{
			Name:     name,
			Dtype:    st.dtype(),
			Nullable: st.null || st.seen < inf.rows,
		})
	}
	return &Result{RowCount: inf.rows, Columns: columns}
}

// datetimeLayouts — распознаваемые форматы даты/времени.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
}

// parseDatetime проверяет, разбирается ли строка как дата/время.
func parseDatetime(s string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
