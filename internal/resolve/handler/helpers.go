package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"match-service/internal/fileio"
	"match-service/internal/resolve/model"
	"match-service/internal/resolve/service"
)

// lineColumns — маппинг колонок файла заказа на поля OrderLine.
type lineColumns struct {
	SkuKey    string
	NameKey   string
	QtyKey    string
	HeaderRow int
}

func lineColumnsFromForm(r *http.Request) lineColumns {
	return lineColumns{
		SkuKey:    formOr(r, "sku_col", "Артикул|Код|SKU"),
		NameKey:   formOr(r, "name_col", "Наименование|Номенклатура|Название|Товар"),
		QtyKey:    formOr(r, "qty_col", "Количество|Кол-во|Кол."),
		HeaderRow: atoi(r.FormValue("header_row"), 1),
	}
}

// toOrderLines — из сырых записей в позиции заказа, с фильтром шапок
// и пустых строк.
func toOrderLines(maps []map[string]string, cols lineColumns, clientID string) []model.OrderLine {
	lines := make([]model.OrderLine, 0, len(maps))
	for _, rec := range maps {
		if fileio.LooksLikeHeader(rec) {
			continue
		}
		sku := strings.TrimSpace(rec[fileio.ResolveKey(rec, cols.SkuKey)])
		name := strings.TrimSpace(rec[fileio.ResolveKey(rec, cols.NameKey)])
		if sku == "" && name == "" {
			continue
		}
		qty := fileio.ParseNumberRU(rec[fileio.ResolveKey(rec, cols.QtyKey)])
		lines = append(lines, model.OrderLine{
			ClientID: clientID,
			Sku:      sku,
			Name:     name,
			Qty:      qty,
		})
	}
	return lines
}

// toMappings — записи файла импорта в маппинги; ключ нормализуется так же,
// как при разрешении.
func toMappings(maps []map[string]string, clientID string) []model.CachedMapping {
	out := make([]model.CachedMapping, 0, len(maps))
	for _, rec := range maps {
		if fileio.LooksLikeHeader(rec) {
			continue
		}
		// только точные заголовки: частичный поиск зацепил бы "Артикул клиента"
		cid := strings.TrimSpace(rec["Клиент"])
		if cid == "" {
			cid = strings.TrimSpace(rec["client_id"])
		}
		if cid == "" {
			cid = clientID
		}
		entryID := strings.TrimSpace(rec[fileio.ResolveKey(rec, "Товар|entry_id|product_id")])
		key := service.NormalizeSku(rec[fileio.ResolveKey(rec, "Артикул клиента|client_sku")])
		if key == "" || key == "0" {
			key = service.NormalizeName(rec[fileio.ResolveKey(rec, "Наименование клиента|client_name")])
		}
		if cid == "" || key == "" || entryID == "" {
			continue
		}
		out = append(out, model.CachedMapping{
			ClientID:   cid,
			Key:        key,
			EntryID:    entryID,
			Confidence: atoi(rec[fileio.ResolveKey(rec, "Уверенность|confidence")], 100),
			MatchType:  model.MatchCachedMapping,
			Verified:   toBool(rec[fileio.ResolveKey(rec, "Подтверждён|verified")], true),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func formOr(r *http.Request, key, def string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on", "да":
		return true
	case "0", "false", "no", "n", "off", "нет":
		return false
	default:
		return def
	}
}
