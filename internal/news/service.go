package news

import (
	"context"
	"sync"
	"time"

	"trade-advisor/internal/logger"
	"trade-advisor/internal/types"
)

// Service scrapes, scores and caches news articles per symbol. It satisfies
// the decision engine's article source contract.
type Service struct {
	scraper *Scraper
	lexicon *Lexicon
	cache   *articleCache
}

// ServiceConfig configures the news service.
type ServiceConfig struct {
	CacheDuration  time.Duration
	ScraperTimeout time.Duration
}

func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		CacheDuration:  time.Hour,
		ScraperTimeout: 30 * time.Second,
	}
}

func NewService(cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		scraper: NewScraper(cfg.ScraperTimeout),
		lexicon: NewLexicon(),
		cache:   newArticleCache(cfg.CacheDuration),
	}
}

// ScoredArticles returns sentiment-scored articles for symbol, serving from
// cache when the last scrape is still fresh.
func (s *Service) ScoredArticles(ctx context.Context, symbol string, max int) ([]types.ScoredArticle, error) {
	if cached, ok := s.cache.get(symbol); ok {
		logger.Debug(ctx, "Serving cached articles", "symbol", symbol, "articles", len(cached))
		return cached, nil
	}

	raw, err := s.scraper.Scrape(ctx, symbol, max)
	if err != nil {
		return nil, err
	}
	scored := make([]types.ScoredArticle, 0, len(raw))
	for _, a := range raw {
		scored = append(scored, types.ScoredArticle{
			Article: a,
			Score:   s.lexicon.Score(a.Title, a.Content),
		})
	}
	s.cache.set(symbol, scored)
	return scored, nil
}

// articleCache keeps one scored batch per symbol with a TTL.
type articleCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
	ttl  time.Duration
	now  func() time.Time
}

type cacheEntry struct {
	articles []types.ScoredArticle
	at       time.Time
}

func newArticleCache(ttl time.Duration) *articleCache {
	return &articleCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (c *articleCache) get(symbol string) ([]types.ScoredArticle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[symbol]
	if !ok || c.now().Sub(e.at) > c.ttl {
		return nil, false
	}
	return e.articles, true
}

func (c *articleCache) set(symbol string, articles []types.ScoredArticle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[symbol] = cacheEntry{articles: articles, at: c.now()}
}
