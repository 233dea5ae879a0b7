package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsdigest/internal/news"
)

func TestInitIsIdempotent(t *testing.T) {
	s := &State{}
	s.Init()

	assert.Equal(t, CurrentVersion, s.Version)
	assert.NotNil(t, s.Bookmarks)
	assert.NotNil(t, s.History)
	assert.NotNil(t, s.Summaries)
	assert.Equal(t, Analytics{}, s.Analytics)

	s.AddBookmark("t", "u")
	s.Init()
	assert.Len(t, s.Bookmarks, 1, "Init keeps existing data")
	assert.Equal(t, 1, s.Analytics.BookmarksAdded)
}

func TestInitUpgradesUnversionedState(t *testing.T) {
	s := &State{
		Bookmarks: []Bookmark{
			{"a", "1"}, {"b", "2"}, {"a again", "1"}, {"c", "3"}, {"d", "4"}, {"e", "5"}, {"f", "6"},
		},
		History: []HistoryEntry{{"x", "1"}, {"x", "1"}, {"y", "2"}},
	}
	s.Init()

	require.Len(t, s.Bookmarks, MaxBookmarks)
	assert.Equal(t, "2", s.Bookmarks[0].URL)
	assert.Equal(t, "6", s.Bookmarks[4].URL)
	assert.Len(t, s.History, 2)
}

func TestRecordViewCountsOncePerURL(t *testing.T) {
	s := NewState()

	assert.True(t, s.RecordView("A", "u1"))
	assert.False(t, s.RecordView("A again", "u1"))
	assert.True(t, s.RecordView("B", "u2"))

	assert.Equal(t, 2, s.Analytics.SummariesViewed)
	assert.Equal(t, []HistoryEntry{{"A", "u1"}, {"B", "u2"}}, s.History)
}

func TestAddBookmarkRejectsDuplicates(t *testing.T) {
	s := NewState()

	assert.True(t, s.AddBookmark("T", "u1"))
	assert.False(t, s.AddBookmark("T", "u1"))
	assert.False(t, s.AddBookmark("Other title", "u1"))

	assert.Len(t, s.Bookmarks, 1)
	assert.Equal(t, 1, s.Analytics.BookmarksAdded)
}

func TestAddBookmarkEvictsOldestAtCapacity(t *testing.T) {
	s := NewState()
	for i := 1; i <= 6; i++ {
		require.True(t, s.AddBookmark(fmt.Sprintf("T%d", i), fmt.Sprintf("u%d", i)))
		assert.LessOrEqual(t, len(s.Bookmarks), MaxBookmarks)
	}

	require.Len(t, s.Bookmarks, MaxBookmarks)
	assert.Equal(t, "u2", s.Bookmarks[0].URL)
	assert.Equal(t, "u6", s.Bookmarks[4].URL)
	assert.False(t, s.IsBookmarked("u1"))
	assert.Equal(t, 6, s.Analytics.BookmarksAdded)

	// the evicted URL can be bookmarked again
	assert.True(t, s.AddBookmark("T1", "u1"))
	assert.Equal(t, "u3", s.Bookmarks[0].URL)
}

func TestSummaryCacheAndZoneSwitch(t *testing.T) {
	s := NewState()
	page1 := []news.Summary{{Title: "t", Summary: "s", URL: "u1"}}
	page2 := []news.Summary{{Title: "t2", Summary: "s2", URL: "u2"}}

	s.SwitchZone("tech")
	_, ok := s.CachedSummaries("tech", 1)
	assert.False(t, ok)

	s.CacheSummaries("tech", 1, page1)
	s.CacheSummaries("tech", 2, page2)
	assert.Contains(t, s.Summaries, "tech_page_1")

	got, ok := s.CachedSummaries("tech", 1)
	require.True(t, ok)
	assert.Equal(t, page1, got)

	s.SwitchZone("tech")
	_, ok = s.CachedSummaries("tech", 2)
	assert.True(t, ok, "same zone keeps the cache")

	s.SwitchZone("science")
	assert.Empty(t, s.Summaries)
	s.SwitchZone("tech")
	_, ok = s.CachedSummaries("tech", 1)
	assert.False(t, ok, "switching away invalidates every page")
	_, ok = s.CachedSummaries("tech", 2)
	assert.False(t, ok)
}

func TestEmptyCachedPageIsAMiss(t *testing.T) {
	s := NewState()
	s.CacheSummaries("tech", 1, nil)

	_, ok := s.CachedSummaries("tech", 1)
	assert.False(t, ok)
	assert.NotNil(t, s.Summaries["tech_page_1"])
}

func TestClearBookmarksAndAnalytics(t *testing.T) {
	s := NewState()
	s.SwitchZone("tech")
	s.CacheSummaries("tech", 1, []news.Summary{{URL: "u"}})
	s.RecordView("A", "u1")
	s.AddBookmark("A", "u1")

	s.ClearBookmarksAndAnalytics()

	assert.Empty(t, s.Bookmarks)
	assert.Equal(t, Analytics{}, s.Analytics)
	assert.Len(t, s.History, 1, "history survives")
	assert.Equal(t, "tech", s.CurrentZone)
	_, ok := s.CachedSummaries("tech", 1)
	assert.True(t, ok)

	assert.False(t, s.RecordView("A", "u1"), "already in history")
	assert.Equal(t, 0, s.Analytics.SummariesViewed)
}
