package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/mnemos/internal/config"
	"github.com/bigkaa/mnemos/internal/domain/model"
	"github.com/bigkaa/mnemos/internal/service"
	"github.com/bigkaa/mnemos/internal/storage/contentstore"
	"github.com/bigkaa/mnemos/internal/storage/registry"
)

const testMaxUploadSize = 1 << 20 // 1 MB

// newTestRouter собирает полный стек обработчиков поверх chi-роутера.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := contentstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("contentstore.New вернул ошибку: %v", err)
	}
	reg := registry.New()

	cfg := &config.Config{
		AllowedExtensions: []string{".csv", ".xlsx", ".parquet", ".json"},
	}

	datasetSvc := service.NewDatasetService(cfg, store, reg, logger)
	schemaSvc := service.NewSchemaService(store, reg, 10000, logger)

	datasets := NewDatasetsHandler(datasetSvc, testMaxUploadSize)
	schemaHandler := NewSchemaHandler(schemaSvc)

	r := chi.NewRouter()
	r.Route("/datasets", func(r chi.Router) {
		r.Post("/", datasets.CreateDataset)
		r.Get("/", datasets.ListDatasets)
		r.Route("/{dataset_id}", func(r chi.Router) {
			r.Get("/", datasets.GetDataset)
			r.Put("/", datasets.UpdateDataset)
			r.Delete("/", datasets.DeleteDataset)
			r.Get("/schema", schemaHandler.GetSchema)
		})
	})
	return r
}

// multipartBody собирает multipart-тело с файлом и опциональными полями формы.
func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile вернул ошибку: %v", err)
		}
		if _, err := io.Copy(fw, strings.NewReader(content)); err != nil {
			t.Fatalf("запись файла в форму: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField вернул ошибку: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("закрытие multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

// uploadDataset загружает датасет и возвращает разобранный ответ.
func uploadDataset(t *testing.T, r *chi.Mux, filename, content string) *model.DatasetRecord {
	t.Helper()

	body, contentType := multipartBody(t, filename, content, nil)
	req := httptest.NewRequest(http.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("статус %d, ожидалось 201; тело: %s", rec.Code, rec.Body.String())
	}

	var out model.DatasetRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	return &out
}

// errorCode извлекает машиночитаемый код из тела ошибки.
func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("разбор тела ошибки: %v (тело: %s)", err, body)
	}
	return out.Error.Code
}

func TestCreateDataset(t *testing.T) {
	r := newTestRouter(t)

	content := "col1,col2\n1,2\n3,4\n"
	rec := uploadDataset(t, r, "data.csv", content)

	if rec.ID == "" {
		t.Error("dataset_id не задан")
	}
	if rec.OriginalName != "data.csv" {
		t.Errorf("original_name = %q, ожидалось data.csv", rec.OriginalName)
	}
	if rec.SizeBytes != int64(len(content)) {
		t.Errorf("size_bytes = %d, ожидалось %d", rec.SizeBytes, len(content))
	}
	if rec.Status != model.StatusUploaded {
		t.Errorf("status = %q, ожидалось uploaded", rec.Status)
	}
}

func TestCreateDataset_MissingFile(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := multipartBody(t, "", "", map[string]string{"other": "x"})
	req := httptest.NewRequest(http.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("статус %d, ожидалось 400", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, ожидалось VALIDATION_ERROR", code)
	}
}

func TestCreateDataset_InvalidExtension(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := multipartBody(t, "notes.txt", "просто текст", nil)
	req := httptest.NewRequest(http.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("статус %d, ожидалось 400", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, ожидалось VALIDATION_ERROR", code)
	}
}

func TestCreateDataset_TooLarge(t *testing.T) {
	r := newTestRouter(t)

	// Содержимое заведомо больше лимита вместе с запасом на заголовки
	big := strings.Repeat("a", testMaxUploadSize+2<<20)
	body, contentType := multipartBody(t, "big.csv", big, nil)
	req := httptest.NewRequest(http.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("статус %d, ожидалось 413", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "FILE_TOO_LARGE" {
		t.Errorf("code = %q, ожидалось FILE_TOO_LARGE", code)
	}
}

func TestListDatasets_Empty(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/datasets", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидалось 200", rec.Code)
	}
	// Пустое хранилище — пустой массив, не null
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("тело = %q, ожидалось []", got)
	}
}

func TestListDatasets_Order(t *testing.T) {
	r := newTestRouter(t)

	first := uploadDataset(t, r, "first.csv", "a\n1\n")
	second := uploadDataset(t, r, "second.csv", "b\n2\n")

	req := httptest.NewRequest(http.MethodGet, "/datasets", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var list []*model.DatasetRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("записей %d, ожидалось 2", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Error("записи должны возвращаться в порядке создания")
	}
}

func TestGetDataset(t *testing.T) {
	r := newTestRouter(t)

	created := uploadDataset(t, r, "data.csv", "a,b\n1,2\n")

	req := httptest.NewRequest(http.MethodGet, "/datasets/"+created.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидалось 200", rec.Code)
	}
	var got model.DatasetRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("dataset_id = %q, ожидалось %q", got.ID, created.ID)
	}
}

func TestGetDataset_NotFound(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/datasets/missing-id", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус %d, ожидалось 404", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "NOT_FOUND" {
		t.Errorf("code = %q, ожидалось NOT_FOUND", code)
	}
}

func TestUpdateDataset_Rename(t *testing.T) {
	r := newTestRouter(t)

	created := uploadDataset(t, r, "old.csv", "a,b\n1,2\n")

	body, contentType := multipartBody(t, "", "", map[string]string{"original_name": "new.csv"})
	req := httptest.NewRequest(http.MethodPut, "/datasets/"+created.ID, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидалось 200; тело: %s", rec.Code, rec.Body.String())
	}
	var got model.DatasetRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if got.OriginalName != "new.csv" {
		t.Errorf("original_name = %q, ожидалось new.csv", got.OriginalName)
	}
	if got.StorageKey != created.StorageKey {
		t.Errorf("storage_key изменился: %q -> %q", created.StorageKey, got.StorageKey)
	}
}

func TestUpdateDataset_ReplaceContent(t *testing.T) {
	r := newTestRouter(t)

	created := uploadDataset(t, r, "data.csv", "a,b\n1,2\n")

	newContent := "x,y,z\n1,2,3\n"
	body, contentType := multipartBody(t, "data.csv", newContent, nil)
	req := httptest.NewRequest(http.MethodPut, "/datasets/"+created.ID, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидалось 200; тело: %s", rec.Code, rec.Body.String())
	}
	var got model.DatasetRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if got.SizeBytes != int64(len(newContent)) {
		t.Errorf("size_bytes = %d, ожидалось %d", got.SizeBytes, len(newContent))
	}
	if got.StorageKey != created.StorageKey {
		t.Errorf("storage_key изменился: %q -> %q", created.StorageKey, got.StorageKey)
	}
}

func TestUpdateDataset_NoBody(t *testing.T) {
	r := newTestRouter(t)

	created := uploadDataset(t, r, "data.csv", "a,b\n1,2\n")

	// PUT без multipart-тела — no-op, возвращает текущую запись
	req := httptest.NewRequest(http.MethodPut, "/datasets/"+created.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидалось 200; тело: %s", rec.Code, rec.Body.String())
	}
	var got model.DatasetRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if got.OriginalName != created.OriginalName || got.SizeBytes != created.SizeBytes {
		t.Error("запись не должна меняться при PUT без тела")
	}

	// Для неизвестного идентификатора — по-прежнему 404
	req = httptest.NewRequest(http.MethodPut, "/datasets/missing-id", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус %d, ожидалось 404", rec.Code)
	}
}

func TestUpdateDataset_NotFound(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := multipartBody(t, "", "", map[string]string{"original_name": "x.csv"})
	req := httptest.NewRequest(http.MethodPut, "/datasets/missing-id", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус %d, ожидалось 404", rec.Code)
	}
}

func TestDeleteDataset(t *testing.T) {
	r := newTestRouter(t)

	created := uploadDataset(t, r, "data.csv", "a,b\n1,2\n")

	req := httptest.NewRequest(http.MethodDelete, "/datasets/"+created.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("статус %d, ожидалось 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("тело 204 должно быть пустым, получено: %s", rec.Body.String())
	}

	// Повторное удаление — 404
	req = httptest.NewRequest(http.MethodDelete, "/datasets/"+created.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("повторный DELETE: статус %d, ожидалось 404", rec.Code)
	}
}

func TestGetSchema(t *testing.T) {
	r := newTestRouter(t)

	created := uploadDataset(t, r, "data.csv", "col1,col2\n1,2\n3,4\n")

	req := httptest.NewRequest(http.MethodGet, "/datasets/"+created.ID+"/schema", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидалось 200; тело: %s", rec.Code, rec.Body.String())
	}
	var summary model.SchemaSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if summary.DatasetID != created.ID {
		t.Errorf("dataset_id = %q, ожидалось %q", summary.DatasetID, created.ID)
	}
	if summary.RowCount != 2 {
		t.Errorf("row_count = %d, ожидалось 2", summary.RowCount)
	}
	if len(summary.Columns) != 2 {
		t.Fatalf("столбцов %d, ожидалось 2", len(summary.Columns))
	}
	for _, col := range summary.Columns {
		if col.Dtype != "integer" {
			t.Errorf("столбец %q: dtype = %q, ожидалось integer", col.Name, col.Dtype)
		}
	}
}

func TestGetSchema_NotFound(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/datasets/missing-id/schema", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус %d, ожидалось 404", rec.Code)
	}
}
