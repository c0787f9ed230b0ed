package auth

import (
	"net/http"
	"strings"
)

// ExtractAccessToken pulls the caller's token from the access_token
// cookie, falling back to a Bearer Authorization header. Browser
// clients ride on the cookie; API clients send the header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}
