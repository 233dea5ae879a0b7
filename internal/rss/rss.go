// Package rss implements a keyword news source on top of RSS/Atom search
// feeds such as Google News.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/news"
)

// Source builds a feed URL per keyword from a template containing {keyword}
// and optionally {lang}, and pages through the feed items locally.
type Source struct {
	template string
	parser   *gofeed.Parser
}

func NewSource(template string, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Source{template: template, parser: parser}
}

func (s *Source) feedURL(q news.Query) string {
	lang := q.Language
	if lang == "" {
		lang = "en"
	}
	r := strings.NewReplacer(
		"{keyword}", url.QueryEscape(q.Keyword),
		"{lang}", url.QueryEscape(lang),
	)
	return r.Replace(s.template)
}

func (s *Source) Search(ctx context.Context, q news.Query) ([]news.Article, error) {
	feedURL := s.feedURL(q)
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("error parsing RSS %s: %w", feedURL, err)
	}
	logger.Debug("loaded feed", "url", feedURL, "items", len(feed.Items))

	items := pageOf(feed.Items, q.Page, q.PageSize)
	articles := make([]news.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, toArticle(item))
	}
	return articles, nil
}

func pageOf(items []*gofeed.Item, page, size int) []*gofeed.Item {
	if size <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func toArticle(item *gofeed.Item) news.Article {
	content := item.Content
	if strings.TrimSpace(content) == "" {
		content = item.Description
	}
	return news.Article{
		Title:   strings.TrimSpace(item.Title),
		Content: content,
		URL:     item.Link,
	}
}
