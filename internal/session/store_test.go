package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreApp(t *testing.T) *fiber.App {
	t.Helper()
	store := NewStore(time.Hour)
	app := fiber.New()

	app.Get("/view", func(c *fiber.Ctx) error {
		sess, err := store.Load(c)
		if err != nil {
			return err
		}
		sess.State.RecordView("title", c.Query("url"))
		viewed := sess.State.Analytics.SummariesViewed
		if err := sess.Save(); err != nil {
			return err
		}
		return c.SendString(strconv.Itoa(viewed))
	})
	app.Get("/clear", func(c *fiber.Ctx) error {
		if err := store.Clear(c); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func do(t *testing.T, app *fiber.App, target string, cookies []*http.Cookie) (string, []*http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(resp.Cookies()) > 0 {
		cookies = resp.Cookies()
	}
	return string(body), cookies
}

func TestStorePersistsStateAcrossRequests(t *testing.T) {
	app := newStoreApp(t)

	body, cookies := do(t, app, "/view?url=u1", nil)
	assert.Equal(t, "1", body)
	require.NotEmpty(t, cookies)
	assert.Equal(t, CookieName, cookies[0].Name)

	body, cookies = do(t, app, "/view?url=u1", cookies)
	assert.Equal(t, "1", body, "same url counted once")

	body, _ = do(t, app, "/view?url=u2", cookies)
	assert.Equal(t, "2", body)
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	app := newStoreApp(t)

	_, first := do(t, app, "/view?url=u1", nil)
	do(t, app, "/view?url=u2", first)

	body, _ := do(t, app, "/view?url=u1", nil)
	assert.Equal(t, "1", body, "a new browser starts from zero")
}

func TestStoreClearResetsState(t *testing.T) {
	app := newStoreApp(t)

	_, cookies := do(t, app, "/view?url=u1", nil)
	do(t, app, "/view?url=u2", cookies)
	do(t, app, "/clear", cookies)

	body, _ := do(t, app, "/view?url=u1", cookies)
	assert.Equal(t, "1", body)
}
