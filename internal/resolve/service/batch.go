package service

import (
	"context"
	"sync"

	"match-service/internal/resolve/model"
)

// ResolveBatch — параллельное разрешение заказа: позиции независимы,
// пул из workers горутин, результаты выравниваются по индексу входа.
// Общий дедлайн ctx действует на весь батч: просроченные позиции
// завершаются как not_found, а не ошибкой.
func (r *Resolver) ResolveBatch(ctx context.Context, lines []model.OrderLine, workers int) []model.MatchResult {
	if workers <= 0 {
		workers = 4
	}
	if workers > len(lines) {
		workers = len(lines)
	}
	results := make([]model.MatchResult, len(lines))
	if len(lines) == 0 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.Resolve(ctx, lines[i])
			}
		}()
	}
	for i := range lines {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
