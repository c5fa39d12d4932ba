package web

import (
	"net/http"
	"net/url"
	"strings"
)

// Flash is a one-shot notification shown on the next rendered page. It rides
// in a short-lived cookie so it survives the redirect that follows a
// mutation, and is cleared as soon as a page reads it.
type Flash struct {
	Level   string
	Message string
}

const flashCookie = "flash"

func SetFlash(w http.ResponseWriter, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(level + "|" + message),
		Path:     "/",
		HttpOnly: true,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	level, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return []Flash{{Level: level, Message: message}}
}
