// Потоко-безопасный кэш маппингов "клиентский ключ → запись каталога".
// Движок разрешения только читает; наполнение — внешний путь записи
// (ручной импорт или накопленные предложения).
package mapping

import (
	"sort"
	"sync"

	"match-service/internal/resolve/model"
)

type Store struct {
	mu        sync.RWMutex
	verified  map[string]model.CachedMapping
	proposals map[string]model.CachedMapping
}

func NewStore() *Store {
	return &Store{
		verified:  make(map[string]model.CachedMapping),
		proposals: make(map[string]model.CachedMapping),
	}
}

func storeKey(clientID, key string) string { return clientID + "\x00" + key }

// Lookup — промах это nil, не ошибка.
func (s *Store) Lookup(clientID, key string) (*model.CachedMapping, error) {
	if clientID == "" || key == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.verified[storeKey(clientID, key)]; ok {
		return &m, nil
	}
	return nil, nil
}

// Import — пакетная загрузка подтверждённых маппингов; последний выигрывает.
// Неподтверждённые записи уходят в корзину предложений.
func (s *Store) Import(ms []model.CachedMapping) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range ms {
		if m.ClientID == "" || m.Key == "" || m.EntryID == "" {
			continue
		}
		if m.Verified {
			s.verified[storeKey(m.ClientID, m.Key)] = m
		} else {
			s.proposals[storeKey(m.ClientID, m.Key)] = m
		}
		n++
	}
	return n
}

// Propose — предложение от движка. Никогда не перекрывает подтверждённый
// маппинг, хранится только лучшее по уверенности предложение на ключ.
func (s *Store) Propose(m model.CachedMapping) {
	if m.ClientID == "" || m.Key == "" || m.EntryID == "" {
		return
	}
	k := storeKey(m.ClientID, m.Key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verified[k]; ok {
		return
	}
	if prev, ok := s.proposals[k]; ok && prev.Confidence >= m.Confidence {
		return
	}
	m.Verified = false
	s.proposals[k] = m
}

// Proposals — снимок накопленных предложений в детерминированном порядке.
func (s *Store) Proposals() []model.CachedMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CachedMapping, 0, len(s.proposals))
	for _, m := range s.proposals {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Size — количество подтверждённых маппингов.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.verified)
}
