package session

import (
	"fmt"

	"github.com/deusflow/newsdigest/internal/news"
)

const (
	// CurrentVersion is bumped whenever State gains fields that need
	// defaults on sessions created by an older build.
	CurrentVersion = 1

	// MaxBookmarks caps the bookmark list; the oldest entry is evicted first.
	MaxBookmarks = 5
)

type Bookmark struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type HistoryEntry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Analytics struct {
	SummariesViewed int `json:"summaries_viewed"`
	BookmarksAdded  int `json:"bookmarks_added"`
}

// State is everything the app remembers about one browser session.
type State struct {
	Version     int                       `json:"version"`
	Bookmarks   []Bookmark                `json:"bookmarks"`
	History     []HistoryEntry            `json:"history"`
	Analytics   Analytics                 `json:"analytics"`
	CurrentZone string                    `json:"current_zone"`
	Summaries   map[string][]news.Summary `json:"summaries"`
}

// NewState returns an initialized, empty state.
func NewState() *State {
	s := &State{}
	s.Init()
	return s
}

// Init fills in missing collections and upgrades the state to
// CurrentVersion. It is idempotent.
func (s *State) Init() {
	if s.Bookmarks == nil {
		s.Bookmarks = []Bookmark{}
	}
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	if s.Summaries == nil {
		s.Summaries = map[string][]news.Summary{}
	}
	if s.Version < 1 {
		// sessions from before versioning may carry duplicates or too many
		// bookmarks
		s.Bookmarks = lastBookmarks(dedupBookmarks(s.Bookmarks), MaxBookmarks)
		s.History = dedupHistory(s.History)
	}
	s.Version = CurrentVersion
}

// RecordView adds the article to the history and counts it as viewed, once
// per URL. It reports whether the view was new.
func (s *State) RecordView(title, url string) bool {
	if s.hasViewed(url) {
		return false
	}
	s.History = append(s.History, HistoryEntry{Title: title, URL: url})
	s.Analytics.SummariesViewed++
	return true
}

func (s *State) hasViewed(url string) bool {
	for _, h := range s.History {
		if h.URL == url {
			return true
		}
	}
	return false
}

// AddBookmark appends a bookmark unless the URL is already bookmarked. At
// capacity the oldest bookmark is dropped first. It reports whether the
// bookmark was added.
func (s *State) AddBookmark(title, url string) bool {
	if s.IsBookmarked(url) {
		return false
	}
	if len(s.Bookmarks) >= MaxBookmarks {
		s.Bookmarks = s.Bookmarks[len(s.Bookmarks)-MaxBookmarks+1:]
	}
	s.Bookmarks = append(s.Bookmarks, Bookmark{Title: title, URL: url})
	s.Analytics.BookmarksAdded++
	return true
}

func (s *State) IsBookmarked(url string) bool {
	for _, b := range s.Bookmarks {
		if b.URL == url {
			return true
		}
	}
	return false
}

// SwitchZone makes zone the active zone. Moving to a different zone drops
// the cached summaries of every page.
func (s *State) SwitchZone(zone string) {
	if zone != s.CurrentZone {
		s.Summaries = map[string][]news.Summary{}
	}
	s.CurrentZone = zone
}

func summaryKey(zone string, page int) string {
	return fmt.Sprintf("%s_page_%d", zone, page)
}

func (s *State) CacheSummaries(zone string, page int, summaries []news.Summary) {
	if s.Summaries == nil {
		s.Summaries = map[string][]news.Summary{}
	}
	if summaries == nil {
		summaries = []news.Summary{}
	}
	s.Summaries[summaryKey(zone, page)] = summaries
}

// CachedSummaries returns the cached page. An empty cached page counts as a
// miss so it gets fetched again.
func (s *State) CachedSummaries(zone string, page int) ([]news.Summary, bool) {
	cached := s.Summaries[summaryKey(zone, page)]
	return cached, len(cached) > 0
}

// ClearBookmarksAndAnalytics empties the bookmarks and zeroes the counters.
// History and cached summaries are kept.
func (s *State) ClearBookmarksAndAnalytics() {
	s.Bookmarks = []Bookmark{}
	s.Analytics = Analytics{}
}

func dedupBookmarks(in []Bookmark) []Bookmark {
	seen := make(map[string]struct{}, len(in))
	out := make([]Bookmark, 0, len(in))
	for _, b := range in {
		if _, ok := seen[b.URL]; ok {
			continue
		}
		seen[b.URL] = struct{}{}
		out = append(out, b)
	}
	return out
}

func lastBookmarks(in []Bookmark, n int) []Bookmark {
	if len(in) <= n {
		return in
	}
	return in[len(in)-n:]
}

func dedupHistory(in []HistoryEntry) []HistoryEntry {
	seen := make(map[string]struct{}, len(in))
	out := make([]HistoryEntry, 0, len(in))
	for _, h := range in {
		if _, ok := seen[h.URL]; ok {
			continue
		}
		seen[h.URL] = struct{}{}
		out = append(out, h)
	}
	return out
}
