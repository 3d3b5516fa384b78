package auth

import (
	"strings"
	"time"

	"food-dashboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName     = "admin_token"
	CtxUserRoleKey = "user_role"
)

// Gate guards the admin panel with a single shared password. A Gate built
// without a password hash lets everyone through.
type Gate struct {
	passwordHash []byte
	secret       string
	Now          func() time.Time
}

func NewGate(passwordHash, secret string) *Gate {
	return &Gate{passwordHash: []byte(passwordHash), secret: secret}
}

func (g *Gate) Enabled() bool {
	return g != nil && len(g.passwordHash) > 0
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// CheckPassword compares password against the configured bcrypt hash.
func (g *Gate) CheckPassword(password string) bool {
	if !g.Enabled() {
		return true
	}
	return bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)) == nil
}

// Issue signs a fresh admin token.
func (g *Gate) Issue() (string, time.Time, error) {
	now := g.now()
	token, err := GenerateToken(g.secret, now)
	return token, now.Add(tokenTTL), err
}

// Authenticated reports whether the request carries a valid admin token,
// either in the cookie or as a bearer header. Always true when the gate is off.
func (g *Gate) Authenticated(c *fiber.Ctx) bool {
	if !g.Enabled() {
		return true
	}
	tokenStr := c.Cookies(CookieName)
	if tokenStr == "" {
		parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}
	if tokenStr == "" {
		return false
	}
	claims, err := ParseToken(g.secret, tokenStr)
	if err != nil {
		return false
	}
	c.Locals(CtxUserRoleKey, claims.Role)
	return true
}

// RequireAdmin rejects admin actions from unauthenticated requests.
func (g *Gate) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !g.Authenticated(c) {
			return fiber.NewError(fiber.StatusUnauthorized, "admin login required")
		}
		if !g.Enabled() {
			c.Locals(CtxUserRoleKey, models.RoleAdmin)
		}
		return c.Next()
	}
}
