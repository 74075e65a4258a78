package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(), LoadSession(NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false, "")))
	return r
}

// do sends req with the cookies in jar and stores the ones the response sets.
func do(t *testing.T, r http.Handler, jar map[string]*http.Cookie, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range jar {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		jar[c.Name] = c
	}
	return w
}

func TestRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("rid")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	rid := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, rid)
	assert.Equal(t, rid, w.Body.String())
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestFlashSurvivesRedirect(t *testing.T) {
	r := newEngine()
	r.POST("/act", func(c *gin.Context) {
		AddFlash(c, Success, "done")
		Redirect(c, "/view")
	})
	r.GET("/view", func(c *gin.Context) { View(c, http.StatusOK, nil) })

	jar := map[string]*http.Cookie{}
	w := do(t, r, jar, httptest.NewRequest(http.MethodPost, "/act", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/view", w.Header().Get("Location"))
	assert.Len(t, w.Result().Cookies(), 1)

	var body struct {
		Messages []FlashMessage `json:"messages"`
	}
	w = do(t, r, jar, httptest.NewRequest(http.MethodGet, "/view", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []FlashMessage{{Level: Success, Message: "done"}}, body.Messages)

	// popped
	w = do(t, r, jar, httptest.NewRequest(http.MethodGet, "/view", nil))
	body.Messages = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Messages)
}

func TestRequireLogin(t *testing.T) {
	r := newEngine()
	r.POST("/login", func(c *gin.Context) {
		Login(c, 7)
		Redirect(c, "/")
	})
	r.GET("/private", RequireLogin(), func(c *gin.Context) {
		uid, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"uid": uid})
	})

	jar := map[string]*http.Cookie{}
	w := do(t, r, jar, httptest.NewRequest(http.MethodGet, "/private?x=1", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/private?x=1"), w.Header().Get("Location"))

	do(t, r, jar, httptest.NewRequest(http.MethodPost, "/login", nil))
	w = do(t, r, jar, httptest.NewRequest(http.MethodGet, "/private", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":7}`, w.Body.String())
}

func TestRequireStaff(t *testing.T) {
	r := newEngine()
	r.POST("/login/:id", func(c *gin.Context) {
		if c.Param("id") == "1" {
			Login(c, 1)
		} else {
			Login(c, 2)
		}
		Redirect(c, "/")
	})
	staff := func(_ context.Context, id int64) (bool, error) {
		if id == 3 {
			return false, errors.New("boom")
		}
		return id == 1, nil
	}
	r.GET("/admin", RequireStaff(staff), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	jar := map[string]*http.Cookie{}
	do(t, r, jar, httptest.NewRequest(http.MethodPost, "/login/2", nil))
	w := do(t, r, jar, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	do(t, r, jar, httptest.NewRequest(http.MethodPost, "/login/1", nil))
	w = do(t, r, jar, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, time.Hour)

	r := newEngine()
	r.POST("/contact", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2"))
}

func TestRateLimiter_ConcurrentFirstRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, time.Hour)

	now := time.Now()
	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.allow("10.0.0.9", now) {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, allowed.Load())
	assert.True(t, rl.allow("10.0.0.9", now.Add(time.Hour)), "a new window lets the ip through again")
}

type countingStore struct {
	mu   sync.Mutex
	hits map[string]int64
}

func (s *countingStore) Increment(_ context.Context, sid, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[sid+"/"+day]++
	return s.hits[sid+"/"+day], nil
}

func (s *countingStore) History(context.Context, string) (map[string]int64, error) {
	return nil, nil
}

func TestVisitCounter(t *testing.T) {
	store := &countingStore{hits: map[string]int64{}}
	now := func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }

	r := newEngine()
	r.Use(VisitCounter(store, now))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, VisitSessionID(c)) })

	jar := map[string]*http.Cookie{}
	first := do(t, r, jar, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	second := do(t, r, jar, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), store.hits[first+"/2024-03-09"])
}

type addressForm struct {
	Street  string `form:"street_address" binding:"required"`
	Country string `form:"country" binding:"required,country"`
}

func TestBindErrors(t *testing.T) {
	SetupValidation()
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var f addressForm
		if err := c.ShouldBind(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": BindErrors(err)})
			return
		}
		c.Status(http.StatusNoContent)
	})

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(url.Values{"country": {"ZZ"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":{"street_address":"This field is required.","country":"Select a valid country."}}`, w.Body.String())

	w = post(url.Values{"street_address": {"1 Main St"}, "country": {"us"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                   "/",
		"/order-summary":     "/order-summary",
		"//evil.example":     "/",
		"https://evil.test/": "/",
		`/\evil`:             "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeNext(in), "next=%q", in)
	}
}
