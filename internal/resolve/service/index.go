package service

import (
	"fmt"
	"sort"

	"match-service/internal/resolve/model"
)

// indexedEntry — запись каталога с предвычисленными фасетами и позицией
// вставки (стабильный tie-break).
type indexedEntry struct {
	entry  *model.CatalogEntry
	facets Facets
	cat    Category
	pos    int
}

// Index — снапшот каталога: точный поиск по артикулу и имени плюс
// триграммный инвертированный индекс для нечеткого перебора. Строится
// целиком в стороне и подменяется одной ссылкой; читатели всегда видят
// согласованный снапшот.
type Index struct {
	entries []*indexedEntry
	bySku   map[string]*indexedEntry
	byName  map[string][]*indexedEntry
	byID    map[string]*indexedEntry
	inv     map[string]map[string]struct{} // trigram → set(normalized name)
}

// BuildIndex нормализует записи и собирает индекс. Дубликат нормализованного
// артикула у разных записей — ошибка сборки: молчаливая перезапись ломает
// точный поиск, прежний индекс остаётся в работе.
func BuildIndex(raw []model.CatalogEntry) (*Index, error) {
	idx := &Index{
		entries: make([]*indexedEntry, 0, len(raw)),
		bySku:   make(map[string]*indexedEntry, len(raw)),
		byName:  make(map[string][]*indexedEntry),
		byID:    make(map[string]*indexedEntry, len(raw)),
		inv:     make(map[string]map[string]struct{}),
	}

	for i := range raw {
		e := raw[i] // копия: снапшот не делит память с источником
		e.NormalizedSku = NormalizeSku(e.Sku)
		e.NormalizedName = NormalizeName(e.Name)
		if e.PipeSize == nil {
			e.PipeSize = ExtractPipeSize(e.Name)
		}

		ie := &indexedEntry{
			entry:  &e,
			facets: ExtractFacets(e.Name),
			cat:    EntryCategory(&e),
			pos:    i,
		}
		idx.entries = append(idx.entries, ie)
		idx.byID[e.ID] = ie

		if e.NormalizedSku != "" {
			if prev, ok := idx.bySku[e.NormalizedSku]; ok && prev.entry.ID != e.ID {
				return nil, fmt.Errorf("duplicate normalized sku %q: entries %s and %s", e.NormalizedSku, prev.entry.ID, e.ID)
			}
			idx.bySku[e.NormalizedSku] = ie
		}

		nn := e.NormalizedName
		if nn == "" {
			continue
		}
		idx.byName[nn] = append(idx.byName[nn], ie)
		for g := range trigramSet(nn) {
			bucket, ok := idx.inv[g]
			if !ok {
				bucket = make(map[string]struct{})
				idx.inv[g] = bucket
			}
			bucket[nn] = struct{}{}
		}
	}

	return idx, nil
}

func (idx *Index) Len() int { return len(idx.entries) }

func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	if s == "" {
		return m
	}
	p := " " + s + " "
	r := []rune(p)
	if len(r) < 3 {
		m[p] = struct{}{}
		return m
	}
	for i := 0; i <= len(r)-3; i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}

// candidateNames — нормализованные имена, делящие хотя бы одну триграмму
// с запросом. Сортировка — для детерминированного порядка перебора.
func (idx *Index) candidateNames(norm string) []string {
	if norm == "" {
		return nil
	}
	seen := make(map[string]struct{})
	for g := range trigramSet(norm) {
		if bucket, ok := idx.inv[g]; ok {
			for nn := range bucket {
				seen[nn] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for nn := range seen {
		out = append(out, nn)
	}
	sort.Strings(out)
	return out
}
