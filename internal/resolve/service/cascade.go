package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"match-service/internal/resolve/model"
)

// Фиксированные потолки уверенности по уровням каскада. Поздний, более
// "умный" уровень никогда не превышает потолок раннего: семантическому
// коллаборатору доверия меньше, чем fuzzy.
const (
	confExactSku      = 100
	confExactName     = 95
	confCachedMapping = 100
	confFuzzySku      = 90
	confFuzzyName     = 80
	confSemanticCap   = 75
)

// Options — настройки каскада.
type Options struct {
	FuzzyNameThreshold float64       // минимальная схожесть на уровне fuzzy-имени
	FuzzyNameCeiling   float64       // схожесть, с которой даётся полный потолок 80
	FuzzySkuMaxDist    int           // редакционное расстояние для fuzzy-артикула
	MinConfidenceAuto  int           // ниже — needs_review
	ProposalMinConf    int           // порог эмиссии предложенного маппинга
	SemanticTimeout    time.Duration // жёсткий таймаут внешнего вызова
	SemanticCandidates int           // сколько кандидатов отдать коллаборатору
}

func DefaultOptions() Options {
	return Options{
		FuzzyNameThreshold: 0.70,
		FuzzyNameCeiling:   0.95,
		FuzzySkuMaxDist:    1,
		MinConfidenceAuto:  80,
		ProposalMinConf:    80,
		SemanticTimeout:    30 * time.Second,
		SemanticCandidates: 50,
	}
}

// MappingStore — провайдер кэша маппингов. Движок только читает;
// ошибка провайдера эквивалентна промаху.
type MappingStore interface {
	Lookup(clientID, key string) (*model.CachedMapping, error)
}

// SemanticRequest/SemanticResult — контракт внешнего semantic/LLM
// коллаборатора. Пустой EntryID означает NOT_FOUND.
type SemanticRequest struct {
	NormalizedName string
	Category       Category
	Candidates     []model.CatalogEntry
}

type SemanticResult struct {
	EntryID    string
	Confidence int
}

type SemanticMatcher interface {
	Match(ctx context.Context, req SemanticRequest) (SemanticResult, error)
}

// ProposalFunc — побочный канал "предложенный маппинг": движок ничего не
// персистит сам, сохранение — ответственность вызывающего.
type ProposalFunc func(model.CachedMapping)

// Resolver — каскад стратегий над снапшотом каталога. Разрешение одной
// позиции — чистое вычисление, кроме инкремента статистики и опционального
// предложения маппинга; единственная точка блокировки — внешний вызов
// уровня 6.
type Resolver struct {
	log      zerolog.Logger
	opts     Options
	idx      atomic.Pointer[Index]
	mappings MappingStore
	semantic SemanticMatcher
	stats    *Stats
	propose  ProposalFunc
}

func NewResolver(log zerolog.Logger, opts Options, mappings MappingStore, semantic SemanticMatcher, stats *Stats, propose ProposalFunc) *Resolver {
	if stats == nil {
		stats = NewStats()
	}
	return &Resolver{
		log:      log,
		opts:     opts,
		mappings: mappings,
		semantic: semantic,
		stats:    stats,
		propose:  propose,
	}
}

func (r *Resolver) Stats() *Stats { return r.stats }

// SwapCatalog собирает новый индекс в стороне и подменяет ссылку одной
// атомарной операцией: читатели не видят частичного состояния, при ошибке
// сборки прежний снапшот остаётся в работе.
func (r *Resolver) SwapCatalog(entries []model.CatalogEntry) error {
	idx, err := BuildIndex(entries)
	if err != nil {
		r.log.Error().Err(err).Msg("catalog index rebuild failed, previous snapshot stays")
		return fmt.Errorf("build index: %w", err)
	}
	r.idx.Store(idx)
	r.log.Info().Int("entries", idx.Len()).Msg("catalog index swapped")
	return nil
}

// CatalogSize — размер текущего снапшота.
func (r *Resolver) CatalogSize() int {
	if idx := r.idx.Load(); idx != nil {
		return idx.Len()
	}
	return 0
}

// Resolve — ровно один MatchResult на позицию; ни один путь выхода не
// оставляет результат недозаполненным.
func (r *Resolver) Resolve(ctx context.Context, line model.OrderLine) model.MatchResult {
	res := r.resolve(ctx, line)
	r.stats.Record(res.MatchType, res.Confidence)
	return res
}

func (r *Resolver) resolve(ctx context.Context, line model.OrderLine) model.MatchResult {
	if ctx.Err() != nil {
		return notFound("deadline exceeded before resolution")
	}
	idx := r.idx.Load()
	if idx == nil || idx.Len() == 0 {
		return notFound("catalog snapshot is empty")
	}

	normSku := NormalizeSku(line.Sku)
	if normSku == "" {
		if fromName := ExtractSkuFromText(line.Name); fromName != "" {
			normSku = NormalizeSku(fromName)
		}
	}
	normName := NormalizeName(line.Name)

	// пустая позиция — бизнес-исход, не ошибка
	if normSku == "" && normName == "" {
		return notFound("empty reference")
	}

	// 1: точный нормализованный артикул
	if normSku != "" {
		if ie, ok := idx.bySku[normSku]; ok {
			return hit(ie.entry, confExactSku, model.MatchExactSku, "normalized sku equality")
		}
	}

	qf := ExtractFacets(line.Name)

	// 2: точное нормализованное имя (неоднозначность — через tie-break)
	if normName != "" {
		if list := idx.byName[normName]; len(list) > 0 {
			ie := pickByNameTie(list, qf.PipeSize)
			return hit(ie.entry, confExactName, model.MatchExactName, "normalized name equality")
		}
	}

	// 3: кэш маппингов клиента
	if res, ok := r.lookupMapping(idx, line.ClientID, normSku, normName); ok {
		return res
	}

	// 4: fuzzy-артикул, расстояние ≤ 1
	if normSku != "" {
		if res, ok := r.fuzzySku(idx, normSku, qf.PipeSize); ok {
			return res
		}
	}

	// 5: fuzzy-имя — фильтры ДО скоринга
	survivors := idx.filterCandidates(normName, qf)
	if normName != "" {
		if res, ok := r.fuzzyName(line, normName, qf, survivors); ok {
			return res
		}
	}

	// 6: внешний semantic/LLM, потолок 75, отказ деградирует в not_found
	if res, ok := r.semanticLookup(ctx, idx, line, normName, qf, survivors); ok {
		return res
	}

	// 7
	return notFound("all strategies exhausted")
}

func (r *Resolver) lookupMapping(idx *Index, clientID, normSku, normName string) (model.MatchResult, bool) {
	if r.mappings == nil || clientID == "" {
		return model.MatchResult{}, false
	}
	for _, key := range []string{normSku, normName} {
		if key == "" {
			continue
		}
		m, err := r.mappings.Lookup(clientID, key)
		if err != nil {
			// отказ кэша никогда не валит разрешение, каскад продолжается
			r.log.Warn().Err(err).Str("client_id", clientID).Msg("mapping lookup failed, treated as miss")
			continue
		}
		if m == nil || !m.Verified {
			continue
		}
		ie, ok := idx.byID[m.EntryID]
		if !ok {
			// запись ушла из снапшота — маппинг устарел
			continue
		}
		return hit(ie.entry, confCachedMapping, model.MatchCachedMapping, "verified client mapping"), true
	}
	return model.MatchResult{}, false
}

func (r *Resolver) fuzzySku(idx *Index, normSku string, qSize *model.PipeSize) (model.MatchResult, bool) {
	var best *indexedEntry
	bestDist := r.opts.FuzzySkuMaxDist + 1
	for _, ie := range idx.entries {
		es := ie.entry.NormalizedSku
		if es == "" {
			continue
		}
		// грубая отсечка до DP
		if abs(len(es)-len(normSku)) > r.opts.FuzzySkuMaxDist {
			continue
		}
		d := damerauLevenshtein(normSku, es)
		if d == 0 || d > r.opts.FuzzySkuMaxDist {
			continue
		}
		// точность размера абсолютна и на артикульном уровне
		if qSize != nil && ie.entry.PipeSize != nil && *qSize != *ie.entry.PipeSize {
			continue
		}
		switch {
		case d < bestDist:
			best, bestDist = ie, d
		case d == bestDist && best != nil && es < best.entry.NormalizedSku:
			best = ie
		}
	}
	if best == nil {
		return model.MatchResult{}, false
	}
	return hit(best.entry, confFuzzySku, model.MatchFuzzySku,
		fmt.Sprintf("sku edit distance %d", bestDist)), true
}

// filterCandidates применяет жёсткие фильтры по фасетам до любого скоринга:
// кандидат с неподходящим типом/углом/резьбой/категорией/размером выбывает
// независимо от текстовой схожести.
func (idx *Index) filterCandidates(normName string, qf Facets) []*indexedEntry {
	if normName == "" {
		return nil
	}
	var out []*indexedEntry
	for _, nn := range idx.candidateNames(normName) {
		for _, ie := range idx.byName[nn] {
			if disqualified(qf, ie) {
				continue
			}
			out = append(out, ie)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

func disqualified(qf Facets, ie *indexedEntry) bool {
	ef := ie.facets
	if qf.Type != "" && ef.Type != "" && qf.Type != ef.Type {
		return true
	}
	if qf.Angle != 0 && ef.Angle != 0 && qf.Angle != ef.Angle {
		return true
	}
	if qf.Thread != "" && ef.Thread != "" && qf.Thread != ef.Thread {
		return true
	}
	if qf.Category != "" && ie.cat != "" && qf.Category != ie.cat {
		return true
	}
	// размер трубы: несовпадение дисквалифицирует безусловно
	if qf.PipeSize != nil && ie.entry.PipeSize != nil && *qf.PipeSize != *ie.entry.PipeSize {
		return true
	}
	if qf.ThreadSize != "" && ef.ThreadSize != "" && qf.ThreadSize != ef.ThreadSize {
		return true
	}
	if len(qf.Fitting) > 0 && len(ef.Fitting) > 0 && !fittingMatch(qf.Fitting, ef.Fitting) {
		return true
	}
	if qf.ClampMM > 0 && ef.Type == TypeClamp {
		if clampRange.MatchString(ie.entry.Name) && !ClampFitsMM(ie.entry.Name, qf.ClampMM) {
			return true
		}
	}
	return false
}

func fittingMatch(q, e []int) bool {
	if len(q) == 1 {
		return e[0] == q[0]
	}
	if len(q) != len(e) {
		return false
	}
	for i := range q {
		if q[i] != e[i] {
			return false
		}
	}
	return true
}

func (r *Resolver) fuzzyName(line model.OrderLine, normName string, qf Facets, survivors []*indexedEntry) (model.MatchResult, bool) {
	var best *indexedEntry
	bestScore := -1.0
	bestSizeExact := false

	for _, ie := range survivors {
		s := bestSimilarity(normName, ie.entry.NormalizedName)
		if s < r.opts.FuzzyNameThreshold {
			continue
		}
		sizeExact := qf.PipeSize != nil && ie.entry.PipeSize != nil && *qf.PipeSize == *ie.entry.PipeSize
		// tie-break: схожесть → точный размер → порядок вставки в каталог
		switch {
		case s > bestScore:
			best, bestScore, bestSizeExact = ie, s, sizeExact
		case s == bestScore && sizeExact && !bestSizeExact:
			best, bestSizeExact = ie, sizeExact
		}
	}
	if best == nil {
		return model.MatchResult{}, false
	}

	conf := confFuzzyName
	if bestScore < r.opts.FuzzyNameCeiling {
		conf = int(confFuzzyName*bestScore + 0.5)
	}
	res := hit(best.entry, conf, model.MatchFuzzyName,
		fmt.Sprintf("name similarity %.2f", bestScore))
	res.NeedsReview = conf < r.opts.MinConfidenceAuto
	r.emitProposal(line, best.entry, conf, model.MatchFuzzyName)
	return res, true
}

func (r *Resolver) semanticLookup(ctx context.Context, idx *Index, line model.OrderLine, normName string, qf Facets, survivors []*indexedEntry) (model.MatchResult, bool) {
	if r.semantic == nil || normName == "" {
		return model.MatchResult{}, false
	}

	req := SemanticRequest{NormalizedName: normName, Category: qf.Category}
	limit := r.opts.SemanticCandidates
	for _, ie := range survivors {
		if limit == 0 {
			break
		}
		req.Candidates = append(req.Candidates, *ie.entry)
		limit--
	}

	callCtx, cancel := context.WithTimeout(ctx, r.opts.SemanticTimeout)
	defer cancel()
	out, err := r.semantic.Match(callCtx, req)
	if err != nil {
		// недоступность коллаборатора — обычный путь данных, не сбой
		r.log.Warn().Err(err).Str("query", normName).Msg("semantic lookup failed, falling through to not_found")
		return model.MatchResult{}, false
	}
	if out.EntryID == "" || out.Confidence <= 0 {
		return model.MatchResult{}, false
	}
	ie, ok := idx.byID[out.EntryID]
	if !ok {
		r.log.Warn().Str("entry_id", out.EntryID).Msg("semantic candidate not in catalog snapshot")
		return model.MatchResult{}, false
	}

	conf := out.Confidence
	if conf > confSemanticCap {
		conf = confSemanticCap
	}
	res := hit(ie.entry, conf, model.MatchSemantic, "semantic collaborator")
	res.NeedsReview = conf < r.opts.MinConfidenceAuto
	r.emitProposal(line, ie.entry, conf, model.MatchSemantic)
	return res, true
}

func (r *Resolver) emitProposal(line model.OrderLine, e *model.CatalogEntry, conf int, mt model.MatchType) {
	if r.propose == nil || line.ClientID == "" || conf < r.opts.ProposalMinConf {
		return
	}
	key := NormalizeSku(line.Sku)
	if key == "" {
		key = NormalizeName(line.Name)
	}
	if key == "" {
		return
	}
	r.propose(model.CachedMapping{
		ClientID:   line.ClientID,
		Key:        key,
		EntryID:    e.ID,
		Confidence: conf,
		MatchType:  mt,
		Verified:   false,
	})
}

// pickByNameTie — несколько записей с одинаковым нормализованным именем:
// сперва точное совпадение размера, затем порядок вставки.
func pickByNameTie(list []*indexedEntry, qSize *model.PipeSize) *indexedEntry {
	best := list[0]
	bestSize := sizeEqual(qSize, best.entry.PipeSize)
	for _, ie := range list[1:] {
		se := sizeEqual(qSize, ie.entry.PipeSize)
		if se && !bestSize {
			best, bestSize = ie, se
			continue
		}
		if se == bestSize && ie.pos < best.pos {
			best = ie
		}
	}
	return best
}

func sizeEqual(a, b *model.PipeSize) bool {
	return a != nil && b != nil && *a == *b
}

func hit(e *model.CatalogEntry, conf int, mt model.MatchType, why string) model.MatchResult {
	return model.MatchResult{
		EntryID:     e.ID,
		EntrySku:    e.Sku,
		EntryName:   e.Name,
		PackQty:     e.PackQty,
		Confidence:  conf,
		MatchType:   mt,
		Explanation: why,
	}
}

func notFound(why string) model.MatchResult {
	return model.MatchResult{
		Confidence:  0,
		MatchType:   model.MatchNotFound,
		Explanation: why,
		NeedsReview: true,
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
