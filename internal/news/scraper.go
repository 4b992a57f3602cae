package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"trade-advisor/internal/logger"
	"trade-advisor/internal/types"
)

// Scraper pulls headlines and article bodies from financial news sites.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source is one scrapeable news site.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // "{symbol}" is substituted
	Selectors  Selectors
	RateLimit  time.Duration
}

// Selectors holds the CSS selectors used on a source's listing page.
type Selectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Content          string
	PublishedAt      string
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{sources: defaultSources(), timeout: timeout}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:       "MoneyControl",
			BaseURL:    "https://www.moneycontrol.com",
			SearchPath: "/news/tags/{symbol}.html",
			Selectors: Selectors{
				ArticleContainer: "li.clearfix",
				Title:            "h2 a, h3 a",
				URL:              "h2 a, h3 a",
				Content:          "p",
				PublishedAt:      "span.ago",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "EconomicTimes",
			BaseURL:    "https://economictimes.indiatimes.com",
			SearchPath: "/topic/{symbol}",
			Selectors: Selectors{
				ArticleContainer: "div.story-box",
				Title:            "a",
				URL:              "a",
				Content:          "p",
				PublishedAt:      "time",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "BusinessStandard",
			BaseURL:    "https://www.business-standard.com",
			SearchPath: "/search?q={symbol}",
			Selectors: Selectors{
				ArticleContainer: "div.listing-txt",
				Title:            "a.Hdng",
				URL:              "a.Hdng",
				Content:          "p",
				PublishedAt:      "span.listing-date",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Scrape fetches up to maxArticles articles for symbol across all sources.
// Per-source failures are logged and skipped; only a total blank is an error
// for the caller to judge.
func (s *Scraper) Scrape(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	logger.Info(ctx, "Starting news scrape", "symbol", symbol, "sources", len(s.sources))

	perSource := maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var all []types.NewsArticle
	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		articles, err := s.scrapeSource(ctx, src, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Source scrape failed", err, "source", src.Name, "symbol", symbol)
			continue
		}
		all = append(all, articles...)
		time.Sleep(src.RateLimit)
	}

	logger.Info(ctx, "News scrape completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	var articles []types.NewsArticle

	c := colly.NewCollector(
		colly.AllowedDomains(domainOf(src.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(src.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}
		title := strings.TrimSpace(e.ChildText(src.Selectors.Title))
		if title == "" {
			return
		}
		articleURL := e.ChildAttr(src.Selectors.URL, "href")
		if articleURL == "" {
			return
		}
		if !strings.HasPrefix(articleURL, "http") {
			articleURL = src.BaseURL + articleURL
		}
		articles = append(articles, types.NewsArticle{
			Title:       title,
			URL:         articleURL,
			Content:     strings.TrimSpace(e.ChildText(src.Selectors.Content)),
			Source:      src.Name,
			PublishedAt: time.Now().UTC(), // listing pages rarely carry machine-readable dates
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scrape request failed", err, "source", src.Name, "url", r.Request.URL.String())
	})

	searchURL := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", strings.ToLower(symbol))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("visiting %s: %w", searchURL, err)
	}
	c.Wait()

	return s.enrich(ctx, articles), nil
}

// enrich replaces short listing snippets with full article bodies.
func (s *Scraper) enrich(ctx context.Context, articles []types.NewsArticle) []types.NewsArticle {
	for i := range articles {
		if len(articles[i].Content) >= 100 {
			continue
		}
		if body := s.fetchBody(ctx, articles[i].URL); body != "" {
			articles[i].Content = body
		}
		time.Sleep(500 * time.Millisecond)
	}
	return articles
}

// fetchBody downloads one article page and extracts its paragraph text.
func (s *Scraper) fetchBody(ctx context.Context, articleURL string) string {
	c := colly.NewCollector()
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	var body string
	c.OnResponse(func(r *colly.Response) {
		text, err := ExtractBody(r.Body)
		if err != nil {
			logger.ErrorWithErr(ctx, "Body extraction failed", err, "url", articleURL)
			return
		}
		body = text
	})

	if err := c.Visit(articleURL); err != nil {
		logger.ErrorWithErr(ctx, "Article fetch failed", err, "url", articleURL)
		return ""
	}
	return body
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
