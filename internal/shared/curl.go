// Session credentials copied from a browser as a cURL command.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']+)'|"([^"]+)")`)
	curlCookieRe = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']+)'|"([^"]+)")`)
)

// requestScoped headers describe a single request and must not be replayed on other requests.
var requestScoped = map[string]bool{
	"content-type":    true,
	"content-length":  true,
	"accept-encoding": true,
	"host":            true,
	"cache-control":   true,
	"pragma":          true,
	"if-none-match":   true,
}

// SessionHeaders holds the authentication headers and cookie of a logged-in browser session.
type SessionHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command ("Copy as cURL") and extracts session headers.
func ParseCurlFile(filepath string) (*SessionHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts headers and the session cookie from a cURL command.
//
// A -b/--cookie flag wins over a Cookie header. Request-scoped headers (content type, caching) are dropped.
func ParseCurlCommand(data []byte) (*SessionHeaders, error) {
	curlCmd := strings.ReplaceAll(string(data), "\\\n", " ")

	session := &SessionHeaders{Headers: make(map[string]string)}
	var headerCookie string

	for _, match := range curlHeaderRe.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstNonEmpty(match[1], match[2]), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch lower := strings.ToLower(key); {
		case lower == "cookie":
			if headerCookie == "" {
				headerCookie = value
			}
		case requestScoped[lower]:
		default:
			session.Headers[key] = value
		}
	}

	if m := curlCookieRe.FindStringSubmatch(curlCmd); m != nil {
		session.Cookie = firstNonEmpty(m[1], m[2])
	} else {
		session.Cookie = headerCookie
	}

	if len(session.Headers) == 0 && session.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrMissingCredentials)
	}

	return session, nil
}

// Apply copies the session headers onto h without overriding headers already set.
func (s *SessionHeaders) Apply(h http.Header) {
	if s == nil {
		return
	}
	for key, value := range s.Headers {
		if h.Get(key) == "" {
			h.Set(key, value)
		}
	}
	if s.Cookie != "" && h.Get("Cookie") == "" {
		h.Set("Cookie", s.Cookie)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
