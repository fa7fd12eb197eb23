// handler.go — общие помощники HTTP-обработчиков mnemos:
// сериализация JSON-ответов и отображение сервисных ошибок
// в HTTP статус-коды.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bigkaa/mnemos/internal/api/errors"
	"github.com/bigkaa/mnemos/internal/service"
)

// writeJSON записывает успешный JSON-ответ с заданным статус-кодом.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError отображает сервисную ошибку в HTTP-ответ.
// Таксономия: InvalidInput → 400, NotFound → 404, Conflict → 409,
// UnsupportedFormat → 400, StorageFailure → 500.
func writeServiceError(w http.ResponseWriter, svcErr *service.Error) {
	switch svcErr.Kind {
	case service.KindInvalidInput:
		errors.ValidationError(w, svcErr.Message)
	case service.KindNotFound:
		errors.NotFound(w, svcErr.Message)
	case service.KindConflict:
		errors.Conflict(w, svcErr.Message)
	case service.KindUnsupportedFormat:
		errors.UnsupportedFormat(w, svcErr.Message)
	case service.KindStorageFailure:
		errors.InternalError(w, svcErr.Message)
	default:
		errors.InternalError(w, svcErr.Message)
	}
}
