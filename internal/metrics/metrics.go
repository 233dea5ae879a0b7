package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesFetched      int64
	ArticlesFiltered     int64
	FetchErrors          int64
	FetchCacheHits       int64
	FetchCacheMisses     int64
	SummariesProduced    int64
	SummariesSkipped     int64
	TranslationsDone     int64
	FailedTranslations   int64
	FailedSummarizations int64

	// Timings
	LastSummarizeTime    time.Duration
	AverageSummarizeTime time.Duration
	TotalSummarizeTime   time.Duration
	SummarizeCount       int64

	// Status
	StartedAt     time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{StartedAt: time.Now(), IsHealthy: true}
}

func (m *Metrics) add(counter *int64, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter += n
}

func (m *Metrics) AddArticlesFetched(n int)  { m.add(&m.ArticlesFetched, int64(n)) }
func (m *Metrics) AddArticlesFiltered(n int) { m.add(&m.ArticlesFiltered, int64(n)) }
func (m *Metrics) IncrementCacheHits()       { m.add(&m.FetchCacheHits, 1) }
func (m *Metrics) IncrementCacheMisses()     { m.add(&m.FetchCacheMisses, 1) }
func (m *Metrics) IncrementSummaries()       { m.add(&m.SummariesProduced, 1) }
func (m *Metrics) IncrementSkipped()         { m.add(&m.SummariesSkipped, 1) }
func (m *Metrics) IncrementTranslations()    { m.add(&m.TranslationsDone, 1) }

// IncrementFetchErrors counts a failed keyword fetch and records err as the
// last error. Upstream failures are partial, so health is left alone.
func (m *Metrics) IncrementFetchErrors(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchErrors++
	m.setErrorLocked(err)
}

func (m *Metrics) IncrementFailedTranslations(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedTranslations++
	m.setErrorLocked(err)
}

func (m *Metrics) IncrementFailedSummarizations(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedSummarizations++
	m.setErrorLocked(err)
}

func (m *Metrics) setErrorLocked(err error) {
	if err == nil {
		return
	}
	m.LastError = err.Error()
	m.LastErrorTime = time.Now()
}

func (m *Metrics) RecordSummarizeTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastSummarizeTime = duration
	m.TotalSummarizeTime += duration
	m.SummarizeCount++

	if m.SummarizeCount > 0 {
		m.AverageSummarizeTime = m.TotalSummarizeTime / time.Duration(m.SummarizeCount)
	}
}

// SetUnhealthy marks the process unhealthy, e.g. when a required backend
// could not be constructed at startup.
func (m *Metrics) SetUnhealthy(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = reason
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lastErrorTime := ""
	if !m.LastErrorTime.IsZero() {
		lastErrorTime = m.LastErrorTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"articles_fetched":          m.ArticlesFetched,
		"articles_filtered":         m.ArticlesFiltered,
		"fetch_errors":              m.FetchErrors,
		"fetch_cache_hits":          m.FetchCacheHits,
		"fetch_cache_misses":        m.FetchCacheMisses,
		"summaries_produced":        m.SummariesProduced,
		"summaries_skipped":         m.SummariesSkipped,
		"translations_done":         m.TranslationsDone,
		"failed_translations":       m.FailedTranslations,
		"failed_summarizations":     m.FailedSummarizations,
		"last_summarize_time_ms":    m.LastSummarizeTime.Milliseconds(),
		"average_summarize_time_ms": m.AverageSummarizeTime.Milliseconds(),
		"started_at":                m.StartedAt.Format(time.RFC3339),
		"last_error_time":           lastErrorTime,
		"last_error":                m.LastError,
		"is_healthy":                m.IsHealthy,
	}
}
