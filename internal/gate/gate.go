// Package gate guards the dashboard behind a single shared password.
//
// A successful login issues a random session token kept in a TTL LRU
// cache and handed to the browser as an HttpOnly cookie. An empty
// password disables the gate entirely for local use.
package gate

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"budgetreview/internal/cache"

	"github.com/google/uuid"
)

const (
	DefaultCookieName  = "budgetreview_session"
	DefaultTTL         = 12 * time.Hour
	DefaultMaxSessions = 256
	LoginPath          = "/login"
)

type Config struct {
	Password    string
	TTL         time.Duration
	MaxSessions int
	CookieName  string
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Session is what the gate remembers about a logged-in browser.
type Session struct {
	CreatedAt time.Time
	ClientIP  string
}

type Gate struct {
	digest   [sha256.Size]byte
	enabled  bool
	ttl      time.Duration
	cookie   string
	secure   bool
	sessions *cache.LRUCache[Session]
}

func New(cfg Config) *Gate {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Gate{
		digest:   sha256.Sum256([]byte(cfg.Password)),
		enabled:  cfg.Password != "",
		ttl:      cfg.TTL,
		cookie:   cfg.CookieName,
		secure:   cfg.Secure,
		sessions: cache.NewLRUCache[Session](cfg.MaxSessions, cfg.TTL),
	}
}

// Enabled reports whether a password is required.
func (g *Gate) Enabled() bool { return g.enabled }

// Sessions exposes the session cache so a cache.Manager can sweep it.
func (g *Gate) Sessions() cache.Cleaner { return g.sessions }

// CheckPassword compares candidate with the configured secret in constant
// time. Both sides are hashed first so the comparison length is fixed.
func (g *Gate) CheckPassword(candidate string) bool {
	if !g.enabled {
		return true
	}
	sum := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(sum[:], g.digest[:]) == 1
}

// Login verifies the password and returns a fresh session token.
func (g *Gate) Login(candidate, clientIP string) (string, bool) {
	if !g.CheckPassword(candidate) {
		return "", false
	}
	token := uuid.NewString()
	g.sessions.Set(token, Session{CreatedAt: time.Now(), ClientIP: clientIP})
	return token, true
}

// Valid reports whether token names a live session.
func (g *Gate) Valid(token string) bool {
	if token == "" {
		return false
	}
	if _, err := uuid.Parse(token); err != nil {
		return false
	}
	_, ok := g.sessions.Get(token)
	return ok
}

func (g *Gate) Logout(token string) {
	if token != "" {
		g.sessions.Delete(token)
	}
}

// Token returns the session token carried by r, if any.
func (g *Gate) Token(r *http.Request) string {
	c, err := r.Cookie(g.cookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// Authenticated reports whether r may see the dashboard.
func (g *Gate) Authenticated(r *http.Request) bool {
	return !g.enabled || g.Valid(g.Token(r))
}

func (g *Gate) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.ttl.Seconds()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Require wraps next so unauthenticated requests are sent to the login
// page. HTMX requests get an HX-Redirect header instead of a 303 so the
// whole page navigates rather than swapping the login form into a partial.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Authenticated(r) {
			next.ServeHTTP(w, r)
			return
		}
		target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", target)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasSuffix(r.URL.Path, ".csv") {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// SafeNext returns next when it is a local absolute path, "/" otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if strings.HasPrefix(next, LoginPath) {
		return "/"
	}
	return next
}
