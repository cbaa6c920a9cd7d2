package logger

import "strings"

// Field names whose values are masked outright.
var secretKeys = []string{"api_key", "apikey", "token", "secret", "password", "authorization"}

// redactValue masks secrets and strips URL query strings, which can carry
// tracking parameters and session tokens.
func redactValue(key, val string) string {
	lk := strings.ToLower(key)
	for _, sk := range secretKeys {
		if strings.Contains(lk, sk) {
			return "***"
		}
	}
	if strings.Contains(lk, "url") {
		return RedactURL(val)
	}
	return val
}

// RedactURL drops everything after "?" so query parameters never reach logs.
// "https://site.com/a?uid=42" → "https://site.com/a?…"
func RedactURL(url string) string {
	if idx := strings.Index(url, "?"); idx >= 0 {
		return url[:idx+1] + "…"
	}
	return url
}
