package internal

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// SecureLogger provides leveled logging with sensitive data redaction
type SecureLogger struct {
	logger    *log.Logger
	debug     bool
	quiet     bool
	redactors []Redactor
}

// Redactor defines an interface for redacting sensitive information
type Redactor interface {
	Redact(input string) string
}

// CookieRedactor redacts session cookie values
type CookieRedactor struct{}

func (r *CookieRedactor) Redact(input string) string {
	patterns := []string{
		"ndus=",
		"BDUSS=",
		"STOKEN=",
		"csrfToken=",
		"browserid=",
		"Cookie:",
		"Set-Cookie:",
	}

	result := input
	for _, pattern := range patterns {
		result = redactCookieValue(result, pattern)
	}
	return result
}

// URLRedactor redacts signatures and tokens in query strings
type URLRedactor struct{}

func (r *URLRedactor) Redact(input string) string {
	params := []string{
		"jsToken=",
		"sign=",
		"access_token=",
		"token=",
		"pwd=",
	}

	result := input
	for _, param := range params {
		result = redactAfter(result, param, "& \n\"'")
	}
	return result
}

// cookieStops ends a cookie value, '&' included so a match inside a query
// string never swallows the parameters after it
const cookieStops = " ;&\n\r"

// redactCookieValue redacts a cookie only where its name starts a token, so
// "STOKEN=" does not fire inside "jsToken="
func redactCookieValue(input, name string) string {
	return redactAt(input, name, cookieStops, " ;\t\"'")
}

// redactAfter replaces every value following pattern (case-insensitive) up to
// the first stop character
func redactAfter(input, pattern, stops string) string {
	return redactAt(input, pattern, stops, "")
}

// redactAt is redactAfter restricted to matches at the start of the input or
// right after one of boundaries. An empty boundaries matches anywhere.
func redactAt(input, pattern, stops, boundaries string) string {
	const mask = "[REDACTED]"
	lowerPattern := strings.ToLower(pattern)

	result := input
	from := 0
	for from < len(result) {
		index := strings.Index(strings.ToLower(result[from:]), lowerPattern)
		if index == -1 {
			break
		}
		at := from + index
		if boundaries != "" && at > 0 && !strings.ContainsRune(boundaries, rune(result[at-1])) {
			from = at + len(pattern)
			continue
		}
		start := at + len(pattern)
		for start < len(result) && result[start] == ' ' {
			start++
		}
		end := start
		for end < len(result) && !strings.ContainsRune(stops, rune(result[end])) {
			end++
		}
		if end > start && result[start:end] != mask {
			result = result[:start] + mask + result[end:]
			end = start + len(mask)
		}
		from = end
		if end == start {
			from++
		}
	}
	return result
}

// NewSecureLogger creates a new secure logger
func NewSecureLogger(output io.Writer, level log.Level, debug, quiet bool) *SecureLogger {
	if quiet {
		level = log.ErrorLevel
	}

	logger := log.NewWithOptions(output, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		ReportCaller:    debug,
	})

	return &SecureLogger{
		logger: logger,
		debug:  debug,
		quiet:  quiet,
		redactors: []Redactor{
			&CookieRedactor{},
			&URLRedactor{},
		},
	}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger(debug, quiet bool) *SecureLogger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	return NewSecureLogger(os.Stderr, level, debug, quiet)
}

// With returns a child logger carrying the given key/value pairs
func (sl *SecureLogger) With(keyvals ...interface{}) *SecureLogger {
	return &SecureLogger{
		logger:    sl.logger.With(keyvals...),
		debug:     sl.debug,
		quiet:     sl.quiet,
		redactors: sl.redactors,
	}
}

// redactSensitiveData applies all redactors to the input string
func (sl *SecureLogger) redactSensitiveData(input string) string {
	result := input
	for _, redactor := range sl.redactors {
		result = redactor.Redact(result)
	}
	return result
}

func (sl *SecureLogger) emit(level log.Level, format string, args ...interface{}) {
	sl.logger.Helper()
	if sl.logger.GetLevel() > level {
		return
	}
	message := sl.redactSensitiveData(fmt.Sprintf(format, args...))
	sl.logger.Log(level, message)
}

// Error logs an error message
func (sl *SecureLogger) Error(format string, args ...interface{}) {
	sl.logger.Helper()
	sl.emit(log.ErrorLevel, format, args...)
}

// Warn logs a warning message
func (sl *SecureLogger) Warn(format string, args ...interface{}) {
	sl.logger.Helper()
	sl.emit(log.WarnLevel, format, args...)
}

// Info logs an info message
func (sl *SecureLogger) Info(format string, args ...interface{}) {
	sl.logger.Helper()
	sl.emit(log.InfoLevel, format, args...)
}

// Debug logs a debug message
func (sl *SecureLogger) Debug(format string, args ...interface{}) {
	sl.logger.Helper()
	sl.emit(log.DebugLevel, format, args...)
}

// LogHTTPRequest logs an HTTP request with sensitive data redacted
func (sl *SecureLogger) LogHTTPRequest(req *http.Request) {
	sl.logger.Helper()
	if sl.logger.GetLevel() > log.DebugLevel {
		return
	}

	sl.Debug("HTTP Request: %s %s Headers: %v", req.Method, req.URL.String(), sl.sanitizeHeaders(req.Header))
}

// LogHTTPResponse logs an HTTP response with sensitive data redacted
func (sl *SecureLogger) LogHTTPResponse(resp *http.Response) {
	sl.logger.Helper()
	if sl.logger.GetLevel() > log.DebugLevel {
		return
	}

	sl.Debug("HTTP Response: %s Headers: %v", resp.Status, sl.sanitizeHeaders(resp.Header))
}

func (sl *SecureLogger) sanitizeHeaders(header http.Header) map[string]string {
	sanitized := make(map[string]string, len(header))
	for name, values := range header {
		if sl.isSensitiveHeader(name) {
			sanitized[name] = "[REDACTED]"
		} else {
			sanitized[name] = strings.Join(values, ", ")
		}
	}
	return sanitized
}

// isSensitiveHeader checks if a header contains sensitive information
func (sl *SecureLogger) isSensitiveHeader(name string) bool {
	sensitiveHeaders := []string{
		"authorization",
		"cookie",
		"set-cookie",
		"x-auth-token",
		"x-api-key",
		"token",
	}

	lowerName := strings.ToLower(name)
	for _, sensitive := range sensitiveHeaders {
		if strings.Contains(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// Level returns the current logging level
func (sl *SecureLogger) Level() log.Level {
	return sl.logger.GetLevel()
}
