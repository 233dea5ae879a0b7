package news

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/deusflow/newsdigest/internal/cache"
	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/retry"
)

const (
	// PageSize is the number of articles requested per keyword.
	PageSize = 5
	// MinContentLength is the minimum number of characters an article body
	// needs to be worth summarizing.
	MinContentLength = 100
)

// Article is a single fetched news item.
type Article struct {
	Title   string
	Content string
	URL     string
}

// Summary is the summarized form of an Article shown to the user.
type Summary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// Query is one keyword search against a news source.
type Query struct {
	Keyword  string
	Language string
	Page     int
	PageSize int
}

// Source searches an upstream news provider.
type Source interface {
	Search(ctx context.Context, q Query) ([]Article, error)
}

// Enricher fetches the full body of an article whose content was truncated
// by the upstream provider.
type Enricher interface {
	Extract(ctx context.Context, url string) (string, error)
}

var reTruncatedBody = regexp.MustCompile(`\[\+\d+ chars?\]`)

// Fetcher runs keyword searches and memoizes the filtered results in a
// process-wide cache. Each keyword is isolated: one failing keyword does not
// affect the others.
type Fetcher struct {
	source   Source
	cache    *cache.LRU[[]Article]
	enricher Enricher
	metrics  *metrics.Metrics
	language string
	retry    retry.Config
}

type Option func(*Fetcher)

// WithEnricher enables full-text extraction for truncated articles.
func WithEnricher(e Enricher) Option {
	return func(f *Fetcher) { f.enricher = e }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithRetry retries failed keyword searches. Errors marked with
// retry.Permanent are not retried.
func WithRetry(cfg retry.Config) Option {
	return func(f *Fetcher) { f.retry = cfg }
}

// WithLanguage sets the language requested from the source (default "en").
func WithLanguage(lang string) Option {
	return func(f *Fetcher) { f.language = lang }
}

func NewFetcher(source Source, c *cache.LRU[[]Article], opts ...Option) *Fetcher {
	f := &Fetcher{
		source:   source,
		cache:    c,
		metrics:  metrics.Global,
		language: "en",
		retry:    retry.Single,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cache == nil {
		f.cache = cache.New[[]Article](cache.DefaultCapacity)
	}
	return f
}

// Fetch returns the articles for every keyword on the given page, in keyword
// order. Repeated keywords are searched once. Results for the same keyword
// set and page are served from cache.
func (f *Fetcher) Fetch(ctx context.Context, keywords []string, page int) []Article {
	if page < 1 {
		page = 1
	}

	keywords = cache.Dedup(keywords)
	key := cache.Key(keywords, page)
	if cached, ok := f.cache.Get(key); ok {
		f.metrics.IncrementCacheHits()
		logger.Debug("fetch cache hit", "key", key, "articles", len(cached))
		return cached
	}
	f.metrics.IncrementCacheMisses()

	var articles []Article
	for _, keyword := range keywords {
		q := Query{Keyword: keyword, Language: f.language, Page: page, PageSize: PageSize}
		var found []Article
		err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
			var err error
			found, err = f.source.Search(ctx, q)
			return err
		})
		if err != nil {
			f.metrics.IncrementFetchErrors(err)
			logger.Error("error fetching articles", "keyword", keyword, "page", page, "error", err)
			continue
		}

		kept := 0
		for _, a := range found {
			a = f.enrich(ctx, a)
			if !hasMeaningfulContent(a) {
				continue
			}
			articles = append(articles, a)
			kept++
		}
		f.metrics.AddArticlesFetched(kept)
		f.metrics.AddArticlesFiltered(len(found) - kept)
		logger.Info("fetched articles", "keyword", keyword, "page", page, "kept", kept, "total", len(found))
	}

	f.cache.Add(key, articles)
	return articles
}

// CacheStats exposes the fetch cache counters.
func (f *Fetcher) CacheStats() cache.Stats {
	return f.cache.Stats()
}

func (f *Fetcher) enrich(ctx context.Context, a Article) Article {
	if f.enricher == nil || a.URL == "" || !reTruncatedBody.MatchString(a.Content) {
		return a
	}

	full, err := f.enricher.Extract(ctx, a.URL)
	if err != nil {
		logger.Warn("full text extraction failed, keeping snippet", "url", a.URL, "error", err)
		return a
	}
	if utf8.RuneCountInString(full) > utf8.RuneCountInString(a.Content) {
		a.Content = full
	}
	return a
}

func hasMeaningfulContent(a Article) bool {
	return a.Content != "" && utf8.RuneCountInString(a.Content) > MinContentLength
}
