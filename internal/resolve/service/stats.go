package service

import (
	"sync"

	"match-service/internal/resolve/model"
)

// Stats — счётчики за время жизни процесса. Явно владеемый компонент:
// вызывающий держит ссылку, никаких синглтонов. Мьютекс строго вокруг
// инкремента, через внешние вызовы не удерживается.
type Stats struct {
	mu      sync.Mutex
	perTier map[model.MatchType]int
	confSum float64
	total   int
}

func NewStats() *Stats {
	return &Stats{perTier: make(map[model.MatchType]int)}
}

// Record — инкремент, никогда не падает.
func (s *Stats) Record(mt model.MatchType, confidence int) {
	s.mu.Lock()
	s.perTier[mt]++
	s.confSum += float64(confidence)
	s.total++
	s.mu.Unlock()
}

// Snapshot — согласованный снимок: sum(per_tier) == total,
// success_rate = 1 - not_found/total.
func (s *Stats) Snapshot() model.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := model.StatsSnapshot{
		PerTier: make(map[model.MatchType]int, len(s.perTier)),
		Total:   s.total,
	}
	for k, v := range s.perTier {
		out.PerTier[k] = v
	}
	if s.total > 0 {
		out.AvgConfidence = s.confSum / float64(s.total)
		out.SuccessRate = 1 - float64(s.perTier[model.MatchNotFound])/float64(s.total)
	}
	return out
}

// Reset обнуляет все счётчики атомарно.
func (s *Stats) Reset() {
	s.mu.Lock()
	s.perTier = make(map[model.MatchType]int)
	s.confSum = 0
	s.total = 0
	s.mu.Unlock()
}
