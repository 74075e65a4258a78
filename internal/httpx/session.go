package httpx

import (
	"context"
	"encoding/gob"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

const (
	SessionName = "storefront"

	sessionCtxKey = "session"
	userIDKey     = "user_id"
)

// Flash levels.
const (
	Info    = "info"
	Success = "success"
	Warning = "warning"
	Danger  = "error"
)

type FlashMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func init() {
	gob.Register(FlashMessage{})
}

func NewCookieStore(key []byte, secure bool, domain string) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   14 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// LoadSession decodes the session cookie once per request. An undecodable
// cookie yields a fresh session.
func LoadSession(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := store.Get(c.Request, SessionName)
		if err != nil {
			slog.Debug("discarding unreadable session", "err", err)
		}
		c.Set(sessionCtxKey, s)
		c.Next()
	}
}

func Session(c *gin.Context) *sessions.Session {
	if v, ok := c.Get(sessionCtxKey); ok {
		return v.(*sessions.Session)
	}
	return nil
}

// SaveSession writes the session cookie, replacing one already queued on this
// response.
func SaveSession(c *gin.Context) error {
	s := Session(c)
	if s == nil {
		return nil
	}
	h := c.Writer.Header()
	if prev := h.Values("Set-Cookie"); len(prev) > 0 {
		keep := prev[:0:0]
		for _, v := range prev {
			if !strings.HasPrefix(v, SessionName+"=") {
				keep = append(keep, v)
			}
		}
		h.Del("Set-Cookie")
		for _, v := range keep {
			h.Add("Set-Cookie", v)
		}
	}
	return s.Save(c.Request, c.Writer)
}

func AddFlash(c *gin.Context, level, msg string) {
	if s := Session(c); s != nil {
		s.AddFlash(FlashMessage{Level: level, Message: msg})
	}
}

// Flashes pops the queued messages.
func Flashes(c *gin.Context) []FlashMessage {
	s := Session(c)
	if s == nil {
		return nil
	}
	var out []FlashMessage
	for _, f := range s.Flashes() {
		if fm, ok := f.(FlashMessage); ok {
			out = append(out, fm)
		}
	}
	return out
}

func CurrentUserID(c *gin.Context) (int64, bool) {
	s := Session(c)
	if s == nil {
		return 0, false
	}
	id, ok := s.Values[userIDKey].(int64)
	return id, ok && id > 0
}

func Login(c *gin.Context, userID int64) {
	if s := Session(c); s != nil {
		s.Values[userIDKey] = userID
	}
}

func Logout(c *gin.Context) {
	if s := Session(c); s != nil {
		delete(s.Values, userIDKey)
	}
}

// Redirect saves the session and answers 303 See Other.
func Redirect(c *gin.Context, location string) {
	if err := SaveSession(c); err != nil {
		Internal(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
	c.Abort()
}

// View answers a page context as JSON together with the pending flash
// messages and the CSRF token for the page's forms.
func View(c *gin.Context, status int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["messages"] = Flashes(c)
	data["csrf_token"] = csrf.Token(c.Request)
	if uid, ok := CurrentUserID(c); ok {
		data["user_id"] = uid
	}
	if err := SaveSession(c); err != nil {
		Internal(c, err)
		return
	}
	c.JSON(status, data)
}

// RequireLogin sends anonymous visitors to the login page with a next link.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); ok {
			c.Next()
			return
		}
		Redirect(c, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	}
}

// RequireStaff lets through only users for which isStaff reports true.
func RequireStaff(isStaff func(ctx context.Context, userID int64) (bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := CurrentUserID(c)
		if !ok {
			Redirect(c, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			return
		}
		staff, err := isStaff(c.Request.Context(), uid)
		if err != nil {
			Internal(c, err)
			return
		}
		if !staff {
			Error(c, http.StatusForbidden, "staff only")
			return
		}
		c.Next()
	}
}

// SafeNext returns next when it is a local path, "/" otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
