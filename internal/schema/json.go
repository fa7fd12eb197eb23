// json.go — сэмплирование JSON: массив плоских объектов верхнего уровня.
// Декодирование токенами: в память попадает только сэмплируемое окно,
// остаток файла не читается.
package schema

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// sampleJSON читает не более maxRows объектов из JSON-массива.
// Колонки — объединение ключей в порядке первого появления; ключ,
// отсутствующий в части объектов, делает колонку nullable.
func sampleJSON(f *os.File, maxRows int) (*Result, error) {
	dec := json.NewDecoder(bufio.NewReader(f))
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		// Полностью пустой файл
		return &Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("ожидался JSON-массив объектов")
	}

	inf := newInference()
	for dec.More() && inf.rows < maxRows {
		if err := sampleJSONObject(dec, inf); err != nil {
			return nil, err
		}
		inf.rowDone()
	}
	// Закрывающую скобку и остаток массива не читаем:
	// достигнут лимит сэмплирования либо конец данных.

	return inf.result(), nil
}

// sampleJSONObject декодирует один объект массива по ключу за раз.
func sampleJSONObject(dec *json.Decoder, inf *inference) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("ошибка чтения JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("элемент массива не является объектом")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("ошибка чтения JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("некорректный ключ JSON-объекта")
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("ошибка чтения значения %q: %w", key, err)
		}

		observeJSONValue(inf, inf.column(key), value)
	}

	// Закрывающая скобка объекта
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("ошибка чтения JSON: %w", err)
	}
	return nil
}

// observeJSONValue учитывает значение по его нативному JSON-типу.
func observeJSONValue(inf *inference, i int, value any) {
	switch v := value.(type) {
	case nil:
		inf.observeNull(i)
	case json.Number:
		if isIntegerNumber(v) {
			inf.observeTyped(i, kindInteger)
		} else {
			inf.observeTyped(i, kindFloat)
		}
	case bool:
		inf.observeTyped(i, kindBool)
	case string:
		if parseDatetime(v) {
			inf.observeTyped(i, kindDatetime)
		} else {
			inf.observeTyped(i, kindString)
		}
	default:
		// Вложенные объекты и массивы — нетабличные значения
		inf.observeTyped(i, kindString)
	}
}

// isIntegerNumber различает целые и дробные json.Number по записи.
func isIntegerNumber(n json.Number) bool {
	return !strings.ContainsAny(n.String(), ".eE")
}
