package downloader

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SessionCookieName is the cookie the share service uses to identify a logged in user
const SessionCookieName = "ndus"

// CredentialStatus describes a configured cookie without exposing its value
type CredentialStatus struct {
	Present          bool     `json:"present"`
	Length           int      `json:"length"`
	HasSessionCookie bool     `json:"hasSessionCookie"`
	CookieNames      []string `json:"cookieNames"`
}

// InspectCredential reports which cookies a Cookie header value carries
func InspectCredential(cookie string) CredentialStatus {
	cookie = strings.TrimSpace(cookie)
	status := CredentialStatus{
		Present:     cookie != "",
		Length:      len(cookie),
		CookieNames: []string{},
	}

	for _, part := range strings.Split(cookie, ";") {
		name, _, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		status.CookieNames = append(status.CookieNames, name)
		if name == SessionCookieName {
			status.HasSessionCookie = true
		}
	}
	sort.Strings(status.CookieNames)

	return status
}

// CookieFileLoader reads browser-exported cookie files into a Cookie header value
type CookieFileLoader struct {
	now func() time.Time
}

// NewCookieFileLoader creates a new instance of CookieFileLoader
func NewCookieFileLoader() *CookieFileLoader {
	return &CookieFileLoader{now: time.Now}
}

// LoadCookies loads cookies from a Netscape-format file. Expired cookies are skipped.
func (l *CookieFileLoader) LoadCookies(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer file.Close()

	var pairs []string
	seen := make(map[string]int)

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// #HttpOnly_ prefixes mark real entries, other # lines are comments
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cookie, err := parseNetscapeCookieLine(line)
		if err != nil {
			return "", fmt.Errorf("invalid cookie format at line %d: %w", lineNum, err)
		}
		if !cookie.Expires.IsZero() && cookie.Expires.Before(l.now()) {
			continue
		}

		pair := cookie.Name + "=" + cookie.Value
		if i, ok := seen[cookie.Name]; ok {
			pairs[i] = pair
			continue
		}
		seen[cookie.Name] = len(pairs)
		pairs = append(pairs, pair)
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading cookie file: %w", err)
	}
	if len(pairs) == 0 {
		return "", fmt.Errorf("no usable cookies found in %s", path)
	}

	return strings.Join(pairs, "; "), nil
}

// parseNetscapeCookieLine parses a single line from Netscape cookie format
// Format: domain	flag	path	secure	expiration	name	value
func parseNetscapeCookieLine(line string) (*http.Cookie, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		return nil, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}

	var expires time.Time
	if fields[4] != "0" {
		timestamp, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid expiration timestamp: %w", err)
		}
		expires = time.Unix(timestamp, 0)
	}

	if fields[5] == "" {
		return nil, fmt.Errorf("cookie name is empty")
	}

	return &http.Cookie{
		Domain:  fields[0],
		Path:    fields[2],
		Secure:  fields[3] == "TRUE",
		Expires: expires,
		Name:    fields[5],
		Value:   fields[6],
	}, nil
}
