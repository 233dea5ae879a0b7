package server

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"

	"github.com/deusflow/newsdigest/internal/cache"
	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/news"
	"github.com/deusflow/newsdigest/internal/session"
)

const missingSelection = "Please select both a zone and a language."

type ArticleFetcher interface {
	Fetch(ctx context.Context, keywords []string, page int) []news.Article
}

type ArticleSummarizer interface {
	SummarizeAll(ctx context.Context, articles []news.Article, target string) []news.Summary
}

// cacheReporter is implemented by fetchers that memoize results.
type cacheReporter interface {
	CacheStats() cache.Stats
}

type Deps struct {
	Zones      map[string][]string
	Fetcher    ArticleFetcher
	Summarizer ArticleSummarizer
	Sessions   *session.Store
	Metrics    *metrics.Metrics
}

type Handlers struct {
	zones      map[string][]string
	zoneNames  []string
	fetcher    ArticleFetcher
	summarizer ArticleSummarizer
	sessions   *session.Store
	metrics    *metrics.Metrics
}

func NewHandlers(d Deps) *Handlers {
	names := make([]string, 0, len(d.Zones))
	for name := range d.Zones {
		names = append(names, name)
	}
	sort.Strings(names)

	m := d.Metrics
	if m == nil {
		m = metrics.Global
	}
	return &Handlers{
		zones:      d.Zones,
		zoneNames:  names,
		fetcher:    d.Fetcher,
		summarizer: d.Summarizer,
		sessions:   d.Sessions,
		metrics:    m,
	}
}

type languageOption struct {
	Code string
	Name string
}

var languages = []languageOption{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"hi", "Hindi"},
	{"ja", "Japanese"},
	{"zh-CN", "Chinese (Simplified)"},
}

func (h *Handlers) Home(c *fiber.Ctx) error {
	sess, err := h.sessions.Load(c)
	if err != nil {
		return err
	}
	if err := sess.Save(); err != nil {
		return err
	}
	return h.renderHome(c, "")
}

func (h *Handlers) renderHome(c *fiber.Ctx, errMsg string) error {
	return c.Render("home", fiber.Map{
		"Zones":     h.zoneNames,
		"Languages": languages,
		"Error":     errMsg,
	})
}

// Summarize renders one page of summaries for a zone in the requested
// language, serving it from the session cache when possible.
func (h *Handlers) Summarize(c *fiber.Ctx) error {
	zone := formOrQuery(c, "zone")
	lang := normalizeLanguage(formOrQuery(c, "language"))
	if zone == "" || lang == "" {
		return h.renderHome(c, missingSelection)
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	sess, err := h.sessions.Load(c)
	if err != nil {
		return err
	}
	state := sess.State
	state.SwitchZone(zone)

	summaries, ok := state.CachedSummaries(zone, page)
	if !ok {
		articles := h.fetcher.Fetch(c.UserContext(), h.zones[zone], page)
		summaries = h.summarizer.SummarizeAll(c.UserContext(), articles, lang)
		for _, s := range summaries {
			state.RecordView(s.Title, s.URL)
		}
		state.CacheSummaries(zone, page, summaries)
		logger.Info("summarized page", "zone", zone, "language", lang, "page", page,
			"articles", len(articles), "summaries", len(summaries))
	}

	if err := sess.Save(); err != nil {
		return err
	}

	prev := page - 1
	if prev < 1 {
		prev = 1
	}
	return c.Render("summaries", fiber.Map{
		"Summaries": summaries,
		"Zone":      zone,
		"Language":  lang,
		"Page":      page,
		"NextPage":  page + 1,
		"PrevPage":  prev,
		"HasPrev":   page > 1,
	})
}

type bookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Bookmark always answers 204; malformed or incomplete bodies are ignored.
func (h *Handlers) Bookmark(c *fiber.Ctx) error {
	var req bookmarkRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		logger.Debug("ignoring malformed bookmark request", "error", err)
		return c.SendStatus(fiber.StatusNoContent)
	}
	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if req.Title == "" || req.URL == "" {
		return c.SendStatus(fiber.StatusNoContent)
	}

	sess, err := h.sessions.Load(c)
	if err != nil {
		return err
	}
	if sess.State.AddBookmark(req.Title, req.URL) {
		if err := sess.Save(); err != nil {
			return err
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) Analytics(c *fiber.Ctx) error {
	sess, err := h.sessions.Load(c)
	if err != nil {
		return err
	}
	state := sess.State
	if err := sess.Save(); err != nil {
		return err
	}
	return c.Render("analytics", fiber.Map{
		"Analytics": state.Analytics,
		"Bookmarks": state.Bookmarks,
	})
}

func (h *Handlers) ClearBookmarks(c *fiber.Ctx) error {
	sess, err := h.sessions.Load(c)
	if err != nil {
		return err
	}
	sess.State.ClearBookmarksAndAnalytics()
	if err := sess.Save(); err != nil {
		return err
	}
	return c.Redirect("/analytics")
}

func (h *Handlers) ClearSession(c *fiber.Ctx) error {
	if err := h.sessions.Clear(c); err != nil {
		return err
	}
	return c.Redirect("/")
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	stats := h.metrics.GetStats()

	status := "ok"
	code := fiber.StatusOK
	if !h.metrics.Healthy() {
		status = "error"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":     status,
		"started_at": stats["started_at"],
		"last_error": stats["last_error"],
	})
}

func (h *Handlers) Metrics(c *fiber.Ctx) error {
	stats := h.metrics.GetStats()
	if r, ok := h.fetcher.(cacheReporter); ok {
		stats["fetch_cache"] = r.CacheStats()
	}
	return c.JSON(stats)
}

// formOrQuery prefers a form field over the query parameter of the same name.
func formOrQuery(c *fiber.Ctx, key string) string {
	if v := strings.TrimSpace(string(c.Request().PostArgs().Peek(key))); v != "" {
		return v
	}
	if form, err := c.MultipartForm(); err == nil {
		if vals := form.Value[key]; len(vals) > 0 {
			if v := strings.TrimSpace(vals[0]); v != "" {
				return v
			}
		}
	}
	return strings.TrimSpace(c.Query(key))
}

// normalizeLanguage canonicalizes a BCP 47 code ("EN" becomes "en").
// Codes that do not parse are passed through lower-cased.
func normalizeLanguage(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	return tag.String()
}
