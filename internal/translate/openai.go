package translate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// OpenAITranslator translates through a chat completion model. It is the
// fallback behind GoogleTranslator when OPENAI_API_KEY is set.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

func NewOpenAITranslator(apiKey, baseURL, model string) *OpenAITranslator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAITranslator{client: openai.NewClientWithConfig(cfg), model: model}
}

var reLangCode = regexp.MustCompile(`\b[a-z]{2}\b`)

func (o *OpenAITranslator) Detect(ctx context.Context, text string) (string, error) {
	prompt := "Identify the language of the following text. " +
		"Answer with the two-letter ISO 639-1 code only.\n\nText:\n" + Truncate(text, 1000)

	out, err := o.complete(ctx, prompt, 5)
	if err != nil {
		return "", err
	}
	code := reLangCode.FindString(strings.ToLower(out))
	if code == "" {
		return "", fmt.Errorf("unexpected language answer %q", out)
	}
	return code, nil
}

func (o *OpenAITranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	chunks := Chunks(text, MaxInputRunes)
	if len(chunks) == 0 {
		return text, nil
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := o.translateChunk(ctx, chunk, src, dst)
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, " "), nil
}

func (o *OpenAITranslator) translateChunk(ctx context.Context, text, src, dst string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following %s news text to %s.
Keep the meaning, tone and journalistic style of the original.
Translate only the text itself, without additional comments.

Text to translate:
%s`, languageName(src), languageName(dst), text)

	out, err := o.complete(ctx, prompt, 2000)
	if err != nil {
		return "", err
	}
	out = SanitizeAIText(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (o *OpenAITranslator) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
		// temperature is omitempty, so 0 would fall back to the API default
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// languageName turns a code like "de" into "German" for prompts.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

var (
	reNoteLine        = regexp.MustCompile(`(?im)^\s*note:.*$`)
	reNoteParenthesis = regexp.MustCompile(`(?i)\(\s*note:[^)]*\)`)
	reNoteBracket     = regexp.MustCompile(`(?i)\[\s*note:[^\]]*\]`)
	reBlankRuns       = regexp.MustCompile(`[ \t]{2,}`)
)

// SanitizeAIText removes machine translation disclaimers that chat models
// like to append to their output.
func SanitizeAIText(s string) string {
	s = reNoteParenthesis.ReplaceAllString(s, "")
	s = reNoteBracket.ReplaceAllString(s, "")
	s = reNoteLine.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(reBlankRuns.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
