package handlers

import (
	"net/http"
	"time"
)

const AccessCookie = "accessToken"

func CreateCookie(name, value, path string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpireCookie tells the browser to drop the cookie straight away.
func ExpireCookie(name, path string, secure bool) *http.Cookie {
	c := CreateCookie(name, "", path, time.Unix(0, 0), secure)
	c.MaxAge = -1
	return c
}
