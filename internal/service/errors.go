// errors.go — типизированные ошибки сервисного слоя.
// Каждая ошибка несёт вид из таксономии; HTTP-слой отображает вид
// на статус-код и машиночитаемый код ответа.
package service

import (
	"fmt"
)

// Kind — вид ошибки сервисного слоя.
type Kind string

const (
	// KindInvalidInput — недопустимое расширение, пустое имя файла,
	// некорректное содержимое
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound — неизвестный идентификатор датасета
	KindNotFound Kind = "not_found"
	// KindConflict — коллизия идентификаторов (не должна происходить)
	KindConflict Kind = "conflict"
	// KindUnsupportedFormat — сэмплирование схемы для формата без reader
	KindUnsupportedFormat Kind = "unsupported_format"
	// KindStorageFailure — ошибка I/O при save/open/delete
	KindStorageFailure Kind = "storage_failure"
)

// Error — ошибка операции с видом и человекочитаемым сообщением.
type Error struct {
	Kind    Kind
	Message string
	// Err — исходная ошибка (для логов, не для API-ответа)
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError создаёт ошибку сервисного слоя.
func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
