package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/newsdigest/internal/logger"
)

// minParagraphLength skips bylines, captions and share-button labels.
const minParagraphLength = 40

// Selectors tried in order; the first one yielding paragraphs wins.
var contentSelectors = []string{
	"article [itemprop=articleBody] p",
	".article-body p",
	".article-content p",
	".story-body p",
	".entry-content p",
	"article p",
	"main p",
	".content p",
}

// Extractor downloads a page and returns its main article text.
type Extractor struct {
	client    *http.Client
	userAgent string
}

func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: "Mozilla/5.0 (compatible; newsdigest/1.0)",
	}
}

// Extract gets the full text of an article by URL.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	content := extractContent(doc)
	if content == "" {
		return "", fmt.Errorf("can't get content from %s", url)
	}
	return content, nil
}

func extractContent(doc *goquery.Document) string {
	doc.Find("script, style, noscript, figure, aside, nav, footer").Remove()

	var paragraphs []string
	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if len(text) >= minParagraphLength {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}

	return strings.Join(paragraphs, "\n\n")
}
