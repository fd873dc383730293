package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	visitorCookieName = "storefront_visitor"
	flashCookieName   = "storefront_flash"
)

type contextKey int

const visitorContextKey contextKey = iota

// Sessions assigns every browser an anonymous visitor ID, kept in a cookie and
// renewed on each request so it lives as long as the session is active.
type Sessions struct {
	lifetime time.Duration
	secure   bool
}

func NewSessions(lifetime time.Duration, secure bool) *Sessions {
	return &Sessions{lifetime: lifetime, secure: secure}
}

func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitorID := ""
		if c, err := r.Cookie(visitorCookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				visitorID = c.Value
			}
		}
		if visitorID == "" {
			visitorID = uuid.NewString()
		}

		http.SetCookie(w, &http.Cookie{
			Name:     visitorCookieName,
			Value:    visitorID,
			Path:     "/",
			MaxAge:   int(s.lifetime.Seconds()),
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := context.WithValue(r.Context(), visitorContextKey, visitorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VisitorID returns the ID set by Sessions.Middleware, or "" outside it.
func VisitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorContextKey).(string)
	return id
}

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

func setFlash(w http.ResponseWriter, f Flash) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash, if any.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	return &f
}
