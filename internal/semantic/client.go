// Клиент внешнего semantic/LLM коллаборатора. Фундаментально недоверенный
// и медленный: узкий синхронный интерфейс, таймаут в контракте, любой
// сбой транспорта или формата эквивалентен NOT_FOUND на стороне каскада.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"match-service/internal/resolve/service"
)

type Config struct {
	URL     string
	APIKey  string
	RPS     float64 // лимит запросов к коллаборатору
	Burst   int
	Retries int           // повторы на 429
	Backoff time.Duration // стартовая пауза между повторами, удваивается
}

type Client struct {
	log  zerolog.Logger
	http *http.Client
	cfg  Config
	lim  *rate.Limiter
}

// NewClient — nil при пустом URL: каскад тогда просто пропускает уровень 6.
func NewClient(log zerolog.Logger, cfg Config) *Client {
	if cfg.URL == "" {
		return nil
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	return &Client{
		log:  log,
		http: &http.Client{},
		cfg:  cfg,
		lim:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
}

type wireCandidate struct {
	ID   string `json:"id"`
	Sku  string `json:"sku"`
	Name string `json:"name"`
}

type wireRequest struct {
	Query      string          `json:"query"`
	Category   string          `json:"category,omitempty"`
	Candidates []wireCandidate `json:"candidates,omitempty"`
}

type wireResponse struct {
	EntryID    *string `json:"entry_id"`
	Confidence float64 `json:"confidence"`
}

// Match реализует service.SemanticMatcher. Дедлайн приходит из контекста
// вызывающего; сетевые и форматные сбои возвращаются ошибкой, решение о
// деградации принимает каскад.
func (c *Client) Match(ctx context.Context, req service.SemanticRequest) (service.SemanticResult, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return service.SemanticResult{}, fmt.Errorf("rate limit wait: %w", err)
	}

	body := wireRequest{Query: req.NormalizedName, Category: string(req.Category)}
	for _, e := range req.Candidates {
		body.Candidates = append(body.Candidates, wireCandidate{ID: e.ID, Sku: e.Sku, Name: e.Name})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return service.SemanticResult{}, err
	}

	var resp *http.Response
	backoff := c.cfg.Backoff
	for attempt := 0; ; attempt++ {
		resp, err = c.post(ctx, payload)
		if err != nil {
			return service.SemanticResult{}, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.cfg.Retries {
			break
		}
		resp.Body.Close()
		select {
		case <-ctx.Done():
			return service.SemanticResult{}, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return service.SemanticResult{}, fmt.Errorf("semantic collaborator: status %d: %s", resp.StatusCode, b)
	}

	var out wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return service.SemanticResult{}, fmt.Errorf("semantic collaborator: decode: %w", err)
	}

	id := ""
	if out.EntryID != nil && *out.EntryID != "NOT_FOUND" {
		id = *out.EntryID
	}
	conf := int(out.Confidence)
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	if id == "" {
		conf = 0
	}
	c.log.Debug().Str("query", req.NormalizedName).Str("entry_id", id).Int("confidence", conf).Msg("semantic match")
	return service.SemanticResult{EntryID: id, Confidence: conf}, nil
}

func (c *Client) post(ctx context.Context, payload []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return c.http.Do(httpReq)
}

// интерфейсная проверка
var _ service.SemanticMatcher = (*Client)(nil)
