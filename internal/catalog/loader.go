// Загрузка снапшота каталога из табличных выгрузок (csv/xls/xlsx).
// Источник pull-based: движок берёт полный набор записей и пересобирает
// индекс целиком, записи на месте не мутируются.
package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"match-service/internal/fileio"
	"match-service/internal/resolve/model"
)

// Columns — желаемые имена колонок, альтернативы через "|".
type Columns struct {
	ID        string
	Sku       string
	Name      string
	Category  string
	PackQty   string
	HeaderRow int
}

func DefaultColumns() Columns {
	return Columns{
		ID:        "ID|Id|id",
		Sku:       "Артикул|SKU|Код",
		Name:      "Наименование|Номенклатура|Название|Товар",
		Category:  "Категория|Группа",
		PackQty:   "Упаковка|Кратность|Штук в упаковке",
		HeaderRow: 1,
	}
}

// Read — записи каталога из табличного файла. Строки без артикула и
// имени пропускаются, ID при отсутствии колонки генерируется.
func Read(r io.Reader, filename string, cols Columns) ([]model.CatalogEntry, error) {
	if cols.HeaderRow <= 0 {
		cols.HeaderRow = 1
	}
	maps, err := fileio.ReadTable(r, filename, cols.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("read catalog table: %w", err)
	}

	entries := make([]model.CatalogEntry, 0, len(maps))
	for _, rec := range maps {
		if fileio.LooksLikeHeader(rec) {
			continue
		}
		sku := rec[fileio.ResolveKey(rec, cols.Sku)]
		name := rec[fileio.ResolveKey(rec, cols.Name)]
		if sku == "" && name == "" {
			continue
		}
		id := rec[fileio.ResolveKey(rec, cols.ID)]
		if id == "" {
			id = uuid.NewString()
		}
		packQty := int(fileio.ParseNumberRU(rec[fileio.ResolveKey(rec, cols.PackQty)]))
		if packQty <= 0 {
			packQty = 1
		}
		entries = append(entries, model.CatalogEntry{
			ID:          id,
			Sku:         sku,
			Name:        name,
			Category:    rec[fileio.ResolveKey(rec, cols.Category)],
			PackQty:     packQty,
			SourceAttrs: rec,
		})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog file %s: no usable rows", filename)
	}
	return entries, nil
}

// ReadFile — снапшот из файла на диске (стартовая загрузка).
func ReadFile(path string, cols Columns) ([]model.CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, path, cols)
}
