// schema.go — HTTP handler сэмплирования схемы датасета.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/mnemos/internal/service"
)

// SchemaHandler — обработчик endpoint /datasets/{dataset_id}/schema.
type SchemaHandler struct {
	svc *service.SchemaService
}

// NewSchemaHandler создаёт обработчик сэмплирования схемы.
func NewSchemaHandler(svc *service.SchemaService) *SchemaHandler {
	return &SchemaHandler{svc: svc}
}

// GetSchema обрабатывает GET /datasets/{dataset_id}/schema.
func (h *SchemaHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataset_id")

	summary, svcErr := h.svc.Infer(id)
	if svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
