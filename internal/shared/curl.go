package shared

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const defaultCookieDomain = ".youtube.com"

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	urlRegex    = regexp.MustCompile(`https?://[^\s'"]+`)
)

// CurlRequest is a browser request copied as cURL, reduced to what yt-dlp needs.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers and cookies.
func ParseCurlFile(path string) (*CurlRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts the URL, headers and cookies.
//
// A -b cookie wins over a Cookie header.
func ParseCurlCommand(curlCmd string) (*CurlRequest, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	req := &CurlRequest{Headers: make(map[string]string)}
	req.URL = urlRegex.FindString(curlCmd)

	var headerCookie string
	for _, match := range headerRegex.FindAllStringSubmatch(curlCmd, -1) {
		line := firstNonEmpty(match[1], match[2])
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		req.Headers[key] = value
	}

	if m := cookieRegex.FindStringSubmatch(curlCmd); len(m) > 2 {
		req.Cookie = firstNonEmpty(m[1], m[2])
	}
	if req.Cookie == "" {
		req.Cookie = headerCookie
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return req, nil
}

// Cookies splits the cookie string into name/value pairs sorted by name.
func (c *CurlRequest) Cookies() [][2]string {
	var pairs [][2]string
	for _, part := range strings.Split(c.Cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		pairs = append(pairs, [2]string{name, value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

// CookieDomain derives the registrable domain from the request URL, e.g. music.youtube.com
// becomes .youtube.com.
func (c *CurlRequest) CookieDomain() string {
	u, err := url.Parse(c.URL)
	if err != nil || u.Hostname() == "" {
		return defaultCookieDomain
	}
	labels := strings.Split(u.Hostname(), ".")
	if len(labels) < 2 {
		return defaultCookieDomain
	}
	return "." + strings.Join(labels[len(labels)-2:], ".")
}

// WriteCookieJar writes the cookies in the Netscape format yt-dlp reads with --cookies.
func (c *CurlRequest) WriteCookieJar(w io.Writer, expires time.Time) error {
	pairs := c.Cookies()
	if len(pairs) == 0 {
		return fmt.Errorf("%w: no cookies in curl command", ErrInvalidInput)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Netscape HTTP Cookie File")
	fmt.Fprintln(bw, "# Generated by songsaver. Do not share this file.")
	fmt.Fprintln(bw)

	domain := c.CookieDomain()
	for _, p := range pairs {
		fmt.Fprintf(bw, "%s\tTRUE\t/\tTRUE\t%d\t%s\t%s\n", domain, expires.Unix(), p[0], p[1])
	}
	return bw.Flush()
}

// SaveCookieJar writes the jar to path with owner-only permissions.
func (c *CurlRequest) SaveCookieJar(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cookie directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open cookie jar: %w", err)
	}
	defer f.Close()

	return c.WriteCookieJar(f, time.Now().AddDate(1, 0, 0))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
