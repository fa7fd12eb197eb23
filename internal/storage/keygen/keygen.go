// Пакет keygen — генерация ключей Content Store.
// Ключ привязывает содержимое к датасету и никогда не повторяется
// в пределах жизни процесса (и за его пределами — UUID v4).
package keygen

import (
	"fmt"

	"github.com/google/uuid"
)

// keyPrefix — фиксированное пространство имён ключей датасетов.
const keyPrefix = "datasets"

// Generate возвращает новый идентификатор датасета и ключ хранилища
// для него. Формат ключа: datasets/<uuid>/raw<ext>.
// ext передаётся уже валидированным, с ведущей точкой и в нижнем
// регистре. Генерация не выполняет I/O и не завершается ошибкой.
func Generate(ext string) (id, key string) {
	id = uuid.New().String()
	return id, KeyFor(id, ext)
}

// KeyFor строит ключ хранилища для известного идентификатора датасета.
func KeyFor(id, ext string) string {
	return fmt.Sprintf("%s/%s/raw%s", keyPrefix, id, ext)
}
