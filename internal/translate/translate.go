package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/deusflow/newsdigest/internal/logger"
)

// MaxInputRunes caps the text sent to a translation backend in one request.
// Longer texts are split with Chunks and translated piece by piece.
const MaxInputRunes = 4000

var ErrEmptyResponse = errors.New("empty response from translator")

// Translator detects the language of a text and translates between
// languages. Language codes are ISO 639-1 ("en", "de", ...).
type Translator interface {
	Detect(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text, src, dst string) (string, error)
}

// GoogleTranslator uses the free public Google Translate endpoint.
type GoogleTranslator struct {
	baseURL string
	client  *http.Client
}

func NewGoogleTranslator(baseURL string, timeout time.Duration) *GoogleTranslator {
	if baseURL == "" {
		baseURL = "https://translate.googleapis.com/translate_a/single"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleTranslator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *GoogleTranslator) Detect(ctx context.Context, text string) (string, error) {
	// sl=auto makes the endpoint report the detected source language.
	response, err := g.call(ctx, Truncate(text, MaxInputRunes), "auto", "en")
	if err != nil {
		return "", err
	}
	if len(response) < 3 {
		return "", errors.New("no detected language in response")
	}
	lang, ok := response[2].(string)
	if !ok || lang == "" {
		return "", errors.New("no detected language in response")
	}
	return strings.ToLower(lang), nil
}

func (g *GoogleTranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	if text == "" {
		return text, nil
	}
	if src == "" {
		src = "auto"
	}
	chunks := Chunks(text, MaxInputRunes)
	if len(chunks) == 0 {
		return text, nil
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		response, err := g.call(ctx, chunk, src, dst)
		if err != nil {
			return "", err
		}
		translation, err := collectTranslation(response)
		if err != nil {
			return "", err
		}
		parts = append(parts, translation)
	}
	logger.Debug("google translate ok", "from", src, "to", dst, "chunks", len(chunks))
	return strings.Join(parts, " "), nil
}

func (g *GoogleTranslator) call(ctx context.Context, text, from, to string) ([]interface{}, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", from)
	params.Set("tl", to)
	params.Set("dt", "t") // return translations
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google Translate API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	// Google Translate returns an array of arrays.
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if len(response) == 0 {
		return nil, ErrEmptyResponse
	}
	return response, nil
}

// collectTranslation joins the translated segments held in the first element.
func collectTranslation(response []interface{}) (string, error) {
	translations, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, translation := range translations {
		if parts, ok := translation.([]interface{}); ok && len(parts) > 0 {
			if translatedText, ok := parts[0].(string); ok {
				result.WriteString(translatedText)
			}
		}
	}
	if result.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return result.String(), nil
}

// Chain tries each translator in order and returns the first success.
type Chain []Translator

func (c Chain) Detect(ctx context.Context, text string) (string, error) {
	var errs []error
	for _, t := range c {
		lang, err := t.Detect(ctx, text)
		if err == nil && lang != "" {
			return lang, nil
		}
		errs = append(errs, err)
	}
	return "", fmt.Errorf("all translators failed to detect language: %w", errors.Join(errs...))
}

func (c Chain) Translate(ctx context.Context, text, src, dst string) (string, error) {
	var errs []error
	for _, t := range c {
		out, err := t.Translate(ctx, text, src, dst)
		if err == nil && out != "" {
			return out, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}
		logger.Warn("translator failed, trying next", "from", src, "to", dst, "error", err)
		errs = append(errs, err)
	}
	return "", fmt.Errorf("all translators failed %s->%s: %w", src, dst, errors.Join(errs...))
}

// Truncate cuts s to at most n runes, ending with "..." when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// Chunks splits s into pieces of at most n runes. It cuts after the last
// sentence end in the second half of a window, else at the last space, and
// only splits a word when there is no space to cut at.
func Chunks(s string, n int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n <= 0 {
		return []string{s}
	}

	var chunks []string
	runes := []rune(s)
	for len(runes) > n {
		cut := cutPoint(runes, n)
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = runes[cut:]
		for len(runes) > 0 && unicode.IsSpace(runes[0]) {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// cutPoint requires len(runes) > n.
func cutPoint(runes []rune, n int) int {
	for i := n - 1; i >= n/2; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			if unicode.IsSpace(runes[i+1]) {
				return i + 1
			}
		}
	}
	for i := n; i > n/2; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return n
}
