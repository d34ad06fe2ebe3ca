// Package flash implements one-shot user notices carried between requests in
// a cookie. The queue is a JSON array of strings stored URL-encoded in the
// "_flash" cookie. Concurrent requests from one client race on the cookie and
// the last response wins; flash state is advisory so no locking is attempted.
package flash

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shorts/pkg/logger"
)

const CookieName = "_flash"

type ctxKey struct{}

// Flash is the request-scoped message queue.
type Flash struct {
	w        http.ResponseWriter
	messages []string
	inbound  bool // request carried a flash cookie
	dirty    bool // a flash cookie was set on this response
}

// New reads the inbound queue from r. Writes go to w.
func New(w http.ResponseWriter, r *http.Request) *Flash {
	f := &Flash{w: w, messages: []string{}}

	c, err := r.Cookie(CookieName)
	if err != nil {
		return f
	}
	f.inbound = true

	msgs, err := decode(c.Value)
	if err != nil {
		logger.Warn("discarding malformed flash cookie", zap.Error(err))
		return f
	}
	f.messages = msgs
	return f
}

// Push appends msg and writes the whole queue back to the client.
func (f *Flash) Push(msg string) {
	f.messages = append(f.messages, msg)

	value, err := encode(f.messages)
	if err != nil {
		logger.Error("encode flash cookie", zap.Error(err))
		return
	}
	f.setCookie(&http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

// Peek returns the queued messages without consuming them.
func (f *Flash) Peek() []string {
	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

// Pop returns the queued messages and clears the cookie.
func (f *Flash) Pop() []string {
	out := f.Peek()
	f.messages = f.messages[:0]

	if f.inbound || f.dirty {
		f.setCookie(&http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return out
}

// setCookie replaces any flash cookie already queued on the response.
func (f *Flash) setCookie(c *http.Cookie) {
	h := f.w.Header()
	prefix := CookieName + "="
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(f.w, c)
	f.dirty = true
}

func encode(msgs []string) (string, error) {
	b, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(b)), nil
}

func decode(value string) ([]string, error) {
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return nil, err
	}
	var msgs []string
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []string{}
	}
	return msgs, nil
}

// Middleware attaches a Flash to every request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := New(w, r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, f)))
	})
}

// FromContext returns the request's Flash. Outside Middleware it returns a
// queue that discards writes, so handlers never need a nil check.
func FromContext(ctx context.Context) *Flash {
	if f, ok := ctx.Value(ctxKey{}).(*Flash); ok {
		return f
	}
	return &Flash{w: discard{}, messages: []string{}}
}

type discard struct{}

func (discard) Header() http.Header         { return http.Header{} }
func (discard) Write(b []byte) (int, error) { return len(b), nil }
func (discard) WriteHeader(int)             {}
