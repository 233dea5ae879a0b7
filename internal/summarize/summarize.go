// Package summarize turns fetched articles into short summaries in the
// reader's language. The heavy lifting is delegated to a Model and a
// translate.Translator; this package only cleans input and orchestrates.
package summarize

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/news"
	"github.com/deusflow/newsdigest/internal/sanitize"
	"github.com/deusflow/newsdigest/internal/translate"
)

// Bounds limits the length of a generated summary, in tokens.
type Bounds struct {
	MinTokens int
	MaxTokens int
}

// DefaultBounds keeps summaries to roughly five or six lines.
var DefaultBounds = Bounds{MinTokens: 80, MaxTokens: 200}

// Model produces a single summary for text. Implementations must decode
// deterministically so the same input yields the same summary.
type Model interface {
	Summarize(ctx context.Context, text string, b Bounds) (string, error)
}

var ErrEmptySummary = errors.New("model returned an empty summary")

type Summarizer struct {
	translator translate.Translator
	model      Model
	bounds     Bounds
	metrics    *metrics.Metrics
}

func New(translator translate.Translator, model Model, m *metrics.Metrics) *Summarizer {
	if m == nil {
		m = metrics.Global
	}
	return &Summarizer{
		translator: translator,
		model:      model,
		bounds:     DefaultBounds,
		metrics:    m,
	}
}

// Summarize cleans the article, translates it to target when its detected
// language differs, and summarizes it. ok is false when the article cannot
// be summarized; failures are logged and never returned.
func (s *Summarizer) Summarize(ctx context.Context, article news.Article, target string) (news.Summary, bool) {
	text := sanitize.ForSummary(article.Content)
	if text == "" {
		s.metrics.IncrementSkipped()
		logger.Debug("article empty after cleanup, skipping", "url", article.URL)
		return news.Summary{}, false
	}

	detected, err := s.translator.Detect(ctx, text)
	if err != nil {
		logger.Warn("language detection failed, assuming target", "url", article.URL, "target", target, "error", err)
		detected = target
	}

	if !sameLanguage(detected, target) {
		translated, err := s.translator.Translate(ctx, text, detected, target)
		if err != nil {
			s.metrics.IncrementFailedTranslations(err)
			s.metrics.IncrementSkipped()
			logger.Error("error translating article", "url", article.URL, "from", detected, "to", target, "error", err)
			return news.Summary{}, false
		}
		s.metrics.IncrementTranslations()
		text = translated
	}

	start := time.Now()
	summary, err := s.model.Summarize(ctx, text, s.bounds)
	s.metrics.RecordSummarizeTime(time.Since(start))
	if err == nil && strings.TrimSpace(summary) == "" {
		err = ErrEmptySummary
	}
	if err != nil {
		s.metrics.IncrementFailedSummarizations(err)
		s.metrics.IncrementSkipped()
		logger.Error("error summarizing article", "url", article.URL, "error", err)
		return news.Summary{}, false
	}

	s.metrics.IncrementSummaries()
	return news.Summary{
		Title:   article.Title,
		Summary: strings.TrimSpace(summary),
		URL:     article.URL,
	}, true
}

// SummarizeAll summarizes articles one by one, keeping their order and
// omitting the ones that could not be summarized.
func (s *Summarizer) SummarizeAll(ctx context.Context, articles []news.Article, target string) []news.Summary {
	summaries := make([]news.Summary, 0, len(articles))
	for _, a := range articles {
		if ctx.Err() != nil {
			logger.Warn("request cancelled, stopping summarization", "error", ctx.Err())
			break
		}
		if summary, ok := s.Summarize(ctx, a, target); ok {
			summaries = append(summaries, summary)
		}
	}
	return summaries
}

// sameLanguage compares primary language subtags, so "en" matches "en-US".
func sameLanguage(a, b string) bool {
	return primary(a) == primary(b)
}

func primary(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return code
}
