package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/news"
)

type fakeTranslator struct {
	lang         string
	detectErr    error
	translateErr error
	translated   []string
}

func (f *fakeTranslator) Detect(context.Context, string) (string, error) {
	return f.lang, f.detectErr
}

func (f *fakeTranslator) Translate(_ context.Context, text, src, dst string) (string, error) {
	if f.translateErr != nil {
		return "", f.translateErr
	}
	f.translated = append(f.translated, src+"->"+dst)
	return "[" + dst + "] " + text, nil
}

type fakeModel struct {
	inputs []string
	bounds []Bounds
	out    string
	err    error
}

func (f *fakeModel) Summarize(_ context.Context, text string, b Bounds) (string, error) {
	f.inputs = append(f.inputs, text)
	f.bounds = append(f.bounds, b)
	if f.err != nil {
		return "", f.err
	}
	if f.out != "" {
		return f.out, nil
	}
	return "summary of " + text[:10], nil
}

func article(content string) news.Article {
	return news.Article{Title: "Title", Content: content, URL: "https://example.com/story"}
}

func TestSummarizeEnglishArticle(t *testing.T) {
	tr := &fakeTranslator{lang: "en"}
	model := &fakeModel{}
	s := New(tr, model, metrics.New())

	content := strings.Repeat("Solar power output rose sharply. ", 5)[:150]
	got, ok := s.Summarize(context.Background(), article(content), "en")

	require.True(t, ok)
	assert.Equal(t, "Title", got.Title)
	assert.Equal(t, "https://example.com/story", got.URL)
	assert.NotEmpty(t, got.Summary)
	assert.Empty(t, tr.translated, "no translation when languages match")
	require.Len(t, model.bounds, 1)
	assert.Equal(t, Bounds{MinTokens: 80, MaxTokens: 200}, model.bounds[0])
}

func TestSummarizeCleansInput(t *testing.T) {
	model := &fakeModel{}
	s := New(&fakeTranslator{lang: "en"}, model, metrics.New())

	_, ok := s.Summarize(context.Background(),
		article("<p>Call 555-123-4567 or see https://example.com now.</p>\nMore text here [+300 chars]"), "en")

	require.True(t, ok)
	require.Len(t, model.inputs, 1)
	assert.Equal(t, "Call or see now. More text here", model.inputs[0])
}

func TestSummarizeNonASCIIOnlyIsUnsummarizable(t *testing.T) {
	model := &fakeModel{}
	m := metrics.New()
	s := New(&fakeTranslator{lang: "ja"}, model, m)

	_, ok := s.Summarize(context.Background(), article("日本語の記事です。とても長い内容。"), "en")

	assert.False(t, ok)
	assert.Empty(t, model.inputs, "model never called")
	assert.Equal(t, int64(1), m.GetStats()["summaries_skipped"])
}

func TestSummarizeTranslatesWhenLanguageDiffers(t *testing.T) {
	tr := &fakeTranslator{lang: "en"}
	model := &fakeModel{}
	s := New(tr, model, metrics.New())

	_, ok := s.Summarize(context.Background(), article(strings.Repeat("word ", 40)), "fr")

	require.True(t, ok)
	assert.Equal(t, []string{"en->fr"}, tr.translated)
	require.Len(t, model.inputs, 1)
	assert.True(t, strings.HasPrefix(model.inputs[0], "[fr] "), "model sees translated text")
}

func TestSummarizeRegionalTagsMatch(t *testing.T) {
	tr := &fakeTranslator{lang: "en-US"}
	s := New(tr, &fakeModel{}, metrics.New())

	_, ok := s.Summarize(context.Background(), article(strings.Repeat("word ", 40)), "en")
	require.True(t, ok)
	assert.Empty(t, tr.translated)
}

func TestSummarizeDetectFailureAssumesTarget(t *testing.T) {
	tr := &fakeTranslator{detectErr: errors.New("detector down")}
	model := &fakeModel{}
	s := New(tr, model, metrics.New())

	_, ok := s.Summarize(context.Background(), article(strings.Repeat("word ", 40)), "en")
	require.True(t, ok)
	assert.Empty(t, tr.translated)
	assert.Len(t, model.inputs, 1)
}

func TestSummarizeTranslationFailureOmitsArticle(t *testing.T) {
	tr := &fakeTranslator{lang: "de", translateErr: errors.New("quota")}
	model := &fakeModel{}
	m := metrics.New()
	s := New(tr, model, m)

	_, ok := s.Summarize(context.Background(), article(strings.Repeat("Wort ", 40)), "en")
	assert.False(t, ok)
	assert.Empty(t, model.inputs)
	assert.Equal(t, int64(1), m.GetStats()["failed_translations"])
}

func TestSummarizeModelFailureOmitsArticle(t *testing.T) {
	m := metrics.New()
	s := New(&fakeTranslator{lang: "en"}, &fakeModel{err: errors.New("model crashed")}, m)

	_, ok := s.Summarize(context.Background(), article(strings.Repeat("word ", 40)), "en")
	assert.False(t, ok)
	assert.Equal(t, int64(1), m.GetStats()["failed_summarizations"])
}

func TestSummarizeBlankModelOutputOmitsArticle(t *testing.T) {
	s := New(&fakeTranslator{lang: "en"}, &fakeModel{out: "   "}, metrics.New())

	_, ok := s.Summarize(context.Background(), article(strings.Repeat("word ", 40)), "en")
	assert.False(t, ok)
}

func TestSummarizeAllKeepsOrderAndSkips(t *testing.T) {
	s := New(&fakeTranslator{lang: "en"}, &fakeModel{}, metrics.New())

	articles := []news.Article{
		{Title: "a", Content: strings.Repeat("alpha ", 30), URL: "u1"},
		{Title: "b", Content: "éééé", URL: "u2"},
		{Title: "c", Content: strings.Repeat("gamma ", 30), URL: "u3"},
	}
	got := s.SummarizeAll(context.Background(), articles, "en")

	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].URL)
	assert.Equal(t, "u3", got[1].URL)
}

func TestSummarizeAllStopsOnCancel(t *testing.T) {
	model := &fakeModel{}
	s := New(&fakeTranslator{lang: "en"}, model, metrics.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := s.SummarizeAll(ctx, []news.Article{article(strings.Repeat("word ", 40))}, "en")
	assert.Empty(t, got)
	assert.Empty(t, model.inputs)
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("Some   article\n\ntext.", DefaultBounds)
	assert.Contains(t, p, "between 80 and 200 tokens")
	assert.Contains(t, p, "Some article text.")

	long := strings.Repeat("This is a sentence. ", 600)
	assert.Less(t, len(buildPrompt(long, DefaultBounds)), maxPromptRunes+400)
}

func TestCleanModelOutput(t *testing.T) {
	assert.Equal(t, "Stocks fell sharply.", cleanModelOutput("Summary: **Stocks** fell\nsharply."))
	assert.Equal(t, "One. Two.", cleanModelOutput("- One.\n- Two."))
	assert.Equal(t, "", cleanModelOutput("  \n "))
}

func TestOpenAIModel(t *testing.T) {
	var req struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Summary: Markets rallied."},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	model := NewOpenAIModel("key", srv.URL+"/v1", "")
	out, err := model.Summarize(context.Background(), "Markets rallied on Friday after...", DefaultBounds)
	require.NoError(t, err)

	assert.Equal(t, "Markets rallied.", out)
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 200, req.MaxTokens)
	assert.Less(t, req.Temperature, float32(0.001))
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, "Markets rallied on Friday")
}
