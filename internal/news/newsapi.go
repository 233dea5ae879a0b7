package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/retry"
)

// ErrAPIStatus is returned when the news API answers with a non-"ok" status.
var ErrAPIStatus = errors.New("news API returned error status")

// NewsAPIClient searches a NewsAPI-compatible "everything" endpoint.
type NewsAPIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewNewsAPIClient(baseURL, apiKey string, timeout time.Duration) *NewsAPIClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NewsAPIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"articles"`
}

func (c *NewsAPIClient) Search(ctx context.Context, q Query) ([]Article, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("q", q.Keyword)
	params.Set("language", q.Language)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var data newsAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, classify(resp.StatusCode, fmt.Errorf("error parsing response (status %d): %w", resp.StatusCode, err))
	}
	if data.Status != "ok" {
		return nil, classify(resp.StatusCode, fmt.Errorf("%w: %s %s (HTTP %d)", ErrAPIStatus, data.Code, data.Message, resp.StatusCode))
	}

	articles := make([]Article, 0, len(data.Articles))
	for _, a := range data.Articles {
		articles = append(articles, Article{
			Title:   a.Title,
			Content: a.Content,
			URL:     a.URL,
		})
	}
	return articles, nil
}

// classify marks err permanent unless the status suggests a transient
// failure (rate limiting or a server error).
func classify(status int, err error) error {
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return err
	}
	return retry.Permanent(err)
}
