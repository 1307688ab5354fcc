package auth

import "strings"

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_id"

// CookieValue extracts the value of the named cookie from a raw Cookie
// header ("a=1; b=2"). Names match exactly; the first match wins. A
// missing cookie or malformed header yields "".
func CookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, name+"="); ok {
			return value
		}
	}
	return ""
}
