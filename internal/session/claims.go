package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/aula/internal/lms"
)

// Claims are the identity fields the API embeds in its access tokens. They
// are read without signature verification: the client holds no key, and the
// server rechecks every request anyway.
type Claims struct {
	Subject   string
	Email     string
	UserID    int64
	Role      string
	IsAdmin   bool
	ExpiresAt time.Time
}

// ParseClaims extracts Claims from a JWT without verifying it.
func ParseClaims(token string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("parse token: unexpected claims type %T", parsed.Claims)
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	c.Email, _ = mc["email"].(string)
	if c.Email == "" && strings.Contains(c.Subject, "@") {
		c.Email = c.Subject
	}
	c.Role, _ = mc["role"].(string)
	c.IsAdmin, _ = mc["is_admin"].(bool)
	switch id := mc["user_id"].(type) {
	case float64:
		c.UserID = int64(id)
	case string:
		c.UserID, _ = strconv.ParseInt(id, 10, 64)
	}
	return c, nil
}

// Expired reports whether the token carries an exp claim before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// fill copies claim fields into the user where the server left them empty.
func (c Claims) fill(u lms.UserSummary) lms.UserSummary {
	if u.ID == 0 {
		u.ID = c.UserID
	}
	if u.Email == "" {
		u.Email = c.Email
	}
	if u.Role == "" {
		u.Role = c.Role
	}
	if !u.IsAdmin {
		u.IsAdmin = c.IsAdmin
	}
	return u
}
