// Package session keeps the per-browser state of the app: bookmarks, view
// history, usage counters and the per-zone summary cache. State lives in a
// server-side fiber session and disappears when the session expires or is
// cleared.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/deusflow/newsdigest/internal/logger"
)

const (
	CookieName = "newsdigest_session"
	stateKey   = "state"
)

type Store struct {
	sessions *fibersession.Store
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		sessions: fibersession.New(fibersession.Config{
			Expiration:     ttl,
			KeyLookup:      "cookie:" + CookieName,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		}),
	}
}

// Session pairs the decoded State with the fiber session it came from.
// It must not be used after Save or Destroy.
type Session struct {
	State *State
	sess  *fibersession.Session
}

// Load returns the initialized state of the request's session, creating a
// new session when the request carries none.
func (s *Store) Load(c *fiber.Ctx) (*Session, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	state := &State{}
	if raw, ok := sess.Get(stateKey).(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), state); err != nil {
			logger.Warn("discarding unreadable session state", "session", sess.ID(), "error", err)
			state = &State{}
		}
	}
	state.Init()

	return &Session{State: state, sess: sess}, nil
}

func (s *Session) Save() error {
	raw, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	s.sess.Set(stateKey, string(raw))
	if err := s.sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Destroy removes the session from storage and expires its cookie, so the
// next request starts from a fresh state.
func (s *Session) Destroy() error {
	if err := s.sess.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Clear destroys the request's session.
func (s *Store) Clear(c *fiber.Ctx) error {
	sess, err := s.Load(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
