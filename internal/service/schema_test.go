package service

import (
	"strings"
	"testing"

	"github.com/bigkaa/mnemos/internal/domain/model"
	"github.com/bigkaa/mnemos/internal/storage/keygen"
)

func newTestSchemaService(t *testing.T) (*SchemaService, *DatasetService) {
	t.Helper()
	svc, store, reg := newTestService(t)
	return NewSchemaService(store, reg, 10000, testLogger()), svc
}

func TestInfer_CSV(t *testing.T) {
	schemaSvc, datasetSvc := newTestSchemaService(t)

	rec, svcErr := datasetSvc.Create("data.csv", strings.NewReader("col1,col2\n1,2\n3,4\n"))
	if svcErr != nil {
		t.Fatalf("Create вернул ошибку: %v", svcErr)
	}

	summary, svcErr := schemaSvc.Infer(rec.ID)
	if svcErr != nil {
		t.Fatalf("Infer вернул ошибку: %v", svcErr)
	}

	if summary.DatasetID != rec.ID {
		t.Errorf("DatasetID = %q, ожидалось %q", summary.DatasetID, rec.ID)
	}
	if summary.RowCount != 2 {
		t.Errorf("RowCount = %d, ожидалось 2", summary.RowCount)
	}
	if len(summary.Columns) != 2 {
		t.Fatalf("столбцов %d, ожидалось 2", len(summary.Columns))
	}
	for _, col := range summary.Columns {
		if col.Dtype != "integer" {
			t.Errorf("столбец %q: Dtype = %q, ожидалось integer", col.Name, col.Dtype)
		}
		if col.Nullable {
			t.Errorf("столбец %q не должен быть nullable", col.Name)
		}
	}
}

func TestInfer_NotFound(t *testing.T) {
	schemaSvc, _ := newTestSchemaService(t)

	_, svcErr := schemaSvc.Infer("нет-такого")
	if svcErr == nil {
		t.Fatal("Infer несуществующего датасета должен вернуть ошибку")
	}
	if svcErr.Kind != KindNotFound {
		t.Errorf("Kind = %v, ожидалось KindNotFound", svcErr.Kind)
	}
}

func TestInfer_MalformedContent(t *testing.T) {
	schemaSvc, datasetSvc := newTestSchemaService(t)

	// Содержимое с расширением .json, но не массив объектов
	rec, svcErr := datasetSvc.Create("data.json", strings.NewReader(`{"не":"массив"}`))
	if svcErr != nil {
		t.Fatalf("Create вернул ошибку: %v", svcErr)
	}

	_, svcErr = schemaSvc.Infer(rec.ID)
	if svcErr == nil {
		t.Fatal("Infer должен вернуть ошибку для некорректного содержимого")
	}
	if svcErr.Kind != KindInvalidInput {
		t.Errorf("Kind = %v, ожидалось KindInvalidInput", svcErr.Kind)
	}
}

func TestInfer_UnsupportedFormat(t *testing.T) {
	_, store, reg := newTestService(t)
	schemaSvc := NewSchemaService(store, reg, 10000, testLogger())

	// Запись с ключом неподдерживаемого формата попала в реестр в обход
	// валидации координатора (например, после смены конфигурации)
	id, key := keygen.Generate(".txt")
	if _, err := store.Save(key, strings.NewReader("просто текст")); err != nil {
		t.Fatalf("Save вернул ошибку: %v", err)
	}
	if err := reg.Insert(&model.DatasetRecord{
		ID:           id,
		OriginalName: "notes.txt",
		Status:       model.StatusUploaded,
		StorageKey:   key,
	}); err != nil {
		t.Fatalf("Insert вернул ошибку: %v", err)
	}

	_, svcErr := schemaSvc.Infer(id)
	if svcErr == nil {
		t.Fatal("Infer должен вернуть ошибку для неподдерживаемого формата")
	}
	if svcErr.Kind != KindUnsupportedFormat {
		t.Errorf("Kind = %v, ожидалось KindUnsupportedFormat", svcErr.Kind)
	}
}

func TestInfer_DanglingRecord(t *testing.T) {
	schemaSvc, datasetSvc := newTestSchemaService(t)

	rec, svcErr := datasetSvc.Create("data.csv", strings.NewReader("a\n1\n"))
	if svcErr != nil {
		t.Fatalf("Create вернул ошибку: %v", svcErr)
	}

	// Имитируем повисшую запись: содержимое исчезло, запись осталась
	if err := datasetSvc.store.Delete(rec.StorageKey); err != nil {
		t.Fatalf("Delete вернул ошибку: %v", err)
	}

	_, svcErr = schemaSvc.Infer(rec.ID)
	if svcErr == nil {
		t.Fatal("Infer повисшей записи должен вернуть ошибку")
	}
	if svcErr.Kind != KindStorageFailure {
		t.Errorf("Kind = %v, ожидалось KindStorageFailure", svcErr.Kind)
	}
}
