// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package auth

import (
	"net/http"
	"strings"
)

const (
	// CookieAccessToken names the session cookie carrying the access token.
	CookieAccessToken = "auth-access-token"
	// CookieRefreshToken names the session cookie carrying the refresh token.
	CookieRefreshToken = "auth-refresh-token"

	browserAccept    = "application/json, text/plain, */*"
	browserOrigin    = "https://axiom.trade"
	browserReferer   = "https://axiom.trade/"
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
)

// AttachBrowserHeaders sets the static headers the trading upstream expects
// from its own web front-end.
func AttachBrowserHeaders(h http.Header) {
	h.Set("Accept", browserAccept)
	h.Set("Origin", browserOrigin)
	h.Set("Referer", browserReferer)
	h.Set("User-Agent", browserUserAgent)
}

// AttachSessionCookies sends both session tokens as a cookie pair.
func AttachSessionCookies(h http.Header, cred Credential) {
	h.Set("Cookie", CookieRefreshToken+"="+cred.RefreshToken+"; "+CookieAccessToken+"="+cred.AccessToken)
}

// AttachBearer sets an Authorization bearer header.
func AttachBearer(h http.Header, token string) {
	h.Set("Authorization", "Bearer "+token)
}

// cookieValue extracts name's value from a raw Set-Cookie line by substring
// search; the value runs up to the next ';'.
func cookieValue(raw, name string) (string, bool) {
	idx := strings.Index(raw, name+"=")
	if idx < 0 {
		return "", false
	}
	value := raw[idx+len(name)+1:]
	if end := strings.IndexByte(value, ';'); end >= 0 {
		value = value[:end]
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
