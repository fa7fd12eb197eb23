// datasets.go — HTTP handlers операций с датасетами.
// Upload, List, Get, Update, Delete.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/mnemos/internal/api/errors"
	"github.com/bigkaa/mnemos/internal/domain/model"
	"github.com/bigkaa/mnemos/internal/service"
)

// multipartMemoryLimit — сколько байт формы держится в памяти до
// сброса на диск при парсинге multipart.
const multipartMemoryLimit = 32 << 20 // 32 MB

// DatasetsHandler — обработчик endpoints /datasets.
type DatasetsHandler struct {
	svc *service.DatasetService
	// maxUploadSize — лимит размера тела запроса в байтах
	maxUploadSize int64
}

// NewDatasetsHandler создаёт обработчик endpoints датасетов.
func NewDatasetsHandler(svc *service.DatasetService, maxUploadSize int64) *DatasetsHandler {
	return &DatasetsHandler{
		svc:           svc,
		maxUploadSize: maxUploadSize,
	}
}

// parseUploadForm ограничивает тело запроса и парсит multipart form.
// ParseMultipartForm вычитывает всё тело, поэтому превышение лимита
// MaxBytesReader проявляется именно здесь, а не при чтении файла.
// Возвращает false, если ответ об ошибке уже записан.
func (h *DatasetsHandler) parseUploadForm(w http.ResponseWriter, r *http.Request) bool {
	// Запас на multipart-заголовки и прочие поля формы
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.FileTooLarge(w,
				fmt.Sprintf("Размер загрузки превышает лимит %d байт", h.maxUploadSize))
			return false
		}
		apierrors.ValidationError(w, "Ошибка парсинга multipart: "+err.Error())
		return false
	}
	return true
}

// CreateDataset обрабатывает POST /datasets.
// Multipart form: file (обязательно).
func (h *DatasetsHandler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	if !h.parseUploadForm(w, r) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	rec, svcErr := h.svc.Create(header.Filename, file)
	if svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// ListDatasets обрабатывает GET /datasets.
// Возвращает все записи в порядке создания.
func (h *DatasetsHandler) ListDatasets(w http.ResponseWriter, _ *http.Request) {
	list := h.svc.List()
	if list == nil {
		list = []*model.DatasetRecord{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetDataset обрабатывает GET /datasets/{dataset_id}.
func (h *DatasetsHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataset_id")

	rec, svcErr := h.svc.Get(id)
	if svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// UpdateDataset обрабатывает PUT /datasets/{dataset_id}.
// Multipart form: file (опционально), original_name (опционально).
// Без обоих полей — no-op, возвращает текущую запись. Запрос вовсе
// без multipart-тела трактуется так же: нечего менять — не ошибка.
func (h *DatasetsHandler) UpdateDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataset_id")

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		rec, svcErr := h.svc.Update(id, service.UpdateParams{})
		if svcErr != nil {
			writeServiceError(w, svcErr)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	if !h.parseUploadForm(w, r) {
		return
	}

	var params service.UpdateParams

	file, _, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		params.Content = file
	case errors.Is(err, http.ErrMissingFile):
		// Файл опционален при обновлении
	default:
		apierrors.ValidationError(w, "Ошибка чтения поля 'file': "+err.Error())
		return
	}

	if vals, ok := r.MultipartForm.Value["original_name"]; ok && len(vals) > 0 {
		params.OriginalName = &vals[0]
	}

	rec, svcErr := h.svc.Update(id, params)
	if svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// DeleteDataset обрабатывает DELETE /datasets/{dataset_id}.
// Успех — 204 без тела.
func (h *DatasetsHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataset_id")

	if svcErr := h.svc.Delete(id); svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
