package model

// MatchType — стабильный контракт для отчётности, не менять независимо
// от таблицы уровней каскада.
type MatchType string

const (
	MatchExactSku      MatchType = "exact_sku"
	MatchExactName     MatchType = "exact_name"
	MatchCachedMapping MatchType = "cached_mapping"
	MatchFuzzySku      MatchType = "fuzzy_sku"
	MatchFuzzyName     MatchType = "fuzzy_name"
	MatchSemantic      MatchType = "semantic"
	MatchNotFound      MatchType = "not_found"
)

// PipeSize — диаметр×длина трубы, жёсткий фильтр (110×2000 != 110×3000).
type PipeSize struct {
	Diameter int `json:"diameter"`
	Length   int `json:"length"`
}

// CatalogEntry — неизменяемая запись каталога поставщика.
// Пересобирается целиком при обновлении снапшота.
type CatalogEntry struct {
	ID             string            `json:"id"`
	Sku            string            `json:"sku"`
	Name           string            `json:"name"`
	Category       string            `json:"category,omitempty"`
	PackQty        int               `json:"pack_qty,omitempty"`
	NormalizedSku  string            `json:"-"`
	NormalizedName string            `json:"-"`
	PipeSize       *PipeSize         `json:"pipe_size,omitempty"`
	SourceAttrs    map[string]string `json:"-"`
}

// OrderLine — входная позиция заказа клиента.
type OrderLine struct {
	ClientID string  `json:"client_id,omitempty"`
	Sku      string  `json:"sku"`
	Name     string  `json:"name"`
	Qty      float64 `json:"qty,omitempty"`
}

// MatchResult — единственный выходной контракт движка.
// EntryID == "" <=> Confidence 0 и MatchType not_found.
type MatchResult struct {
	EntryID     string    `json:"entry_id,omitempty"`
	EntrySku    string    `json:"entry_sku,omitempty"`
	EntryName   string    `json:"entry_name,omitempty"`
	PackQty     int       `json:"pack_qty,omitempty"`
	Confidence  int       `json:"confidence"`
	MatchType   MatchType `json:"match_type"`
	Explanation string    `json:"explanation,omitempty"`
	NeedsReview bool      `json:"needs_review"`
}

// CachedMapping — подтверждённая ранее связка "ключ клиента → запись каталога".
// Движок только читает; запись — внешняя ответственность.
type CachedMapping struct {
	ClientID   string    `json:"client_id"`
	Key        string    `json:"key"` // нормализованный артикул или имя
	EntryID    string    `json:"entry_id"`
	Confidence int       `json:"confidence"`
	MatchType  MatchType `json:"match_type"`
	Verified   bool      `json:"verified"`
}

// StatsSnapshot — снимок счётчиков за время жизни процесса (до reset).
type StatsSnapshot struct {
	PerTier       map[MatchType]int `json:"per_tier"`
	Total         int               `json:"total"`
	AvgConfidence float64           `json:"avg_confidence"`
	SuccessRate   float64           `json:"success_rate"`
}
