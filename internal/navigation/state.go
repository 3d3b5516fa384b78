package navigation

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashInfo    FlashKind = "info"
	FlashWarning FlashKind = "warning"
)

// Flash is a one-shot message shown on the next render.
type Flash struct {
	Kind    FlashKind
	Message string
}

const (
	pageKey      = "active_page"
	flashKindKey = "flash_kind"
	flashMsgKey  = "flash_message"

	localsPage  = "navigation.page"
	localsFlash = "navigation.flash"
)

// State keeps the active page and pending flash per browser session. It
// lives in process memory only, so a restart sends everyone back home.
//
// A fiber session must not be touched after Save, so every method below
// does exactly one Get/Save round.
type State struct {
	store *session.Store
}

func NewState(store *session.Store) *State {
	return &State{store: store}
}

// Current returns the session's page (Home when unset) and pops its flash.
func (s *State) Current(c *fiber.Ctx) (Page, *Flash, error) {
	sess, err := s.store.Get(c)
	if err != nil {
		return Home, nil, fmt.Errorf("load session: %w", err)
	}

	page := Home
	if v, ok := sess.Get(pageKey).(string); ok {
		if p, err := ParsePage(v); err == nil {
			page = p
		}
	}

	msg, ok := sess.Get(flashMsgKey).(string)
	if !ok {
		return page, nil, nil
	}
	kind, _ := sess.Get(flashKindKey).(string)
	sess.Delete(flashMsgKey)
	sess.Delete(flashKindKey)
	if err := sess.Save(); err != nil {
		return page, nil, fmt.Errorf("save session: %w", err)
	}
	return page, &Flash{Kind: FlashKind(kind), Message: msg}, nil
}

// Navigate makes p the session's active page.
func (s *State) Navigate(c *fiber.Ctx, p Page) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.Set(pageKey, string(p))
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Flash queues a message for the next render of the session.
func (s *State) Flash(c *fiber.Ctx, kind FlashKind, msg string) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.Set(flashKindKey, string(kind))
	sess.Set(flashMsgKey, msg)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Attach stores the resolved page and flash on the request for the renderer.
func Attach(c *fiber.Ctx, p Page, f *Flash) {
	c.Locals(localsPage, p)
	c.Locals(localsFlash, f)
}

func Active(c *fiber.Ctx) Page {
	if p, ok := c.Locals(localsPage).(Page); ok {
		return p
	}
	return Home
}

func PendingFlash(c *fiber.Ctx) *Flash {
	f, _ := c.Locals(localsFlash).(*Flash)
	return f
}
