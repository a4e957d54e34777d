package utils

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with base-1024 units and two decimals
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}

// isoLayout matches what browsers produce for Date.toISOString
const isoLayout = "2006-01-02T15:04:05.000Z"

// FormatUnixTime converts Unix seconds to an ISO-8601 UTC string, nil when absent
func FormatUnixTime(seconds int64) *string {
	if seconds <= 0 {
		return nil
	}
	s := time.Unix(seconds, 0).UTC().Format(isoLayout)
	return &s
}

// ContentDisposition forces a download with a percent-encoded filename
func ContentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, EncodeURIComponent(filename))
}

// EncodeURIComponent escapes like the browser function of the same name
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, keep := range []string{"!", "'", "(", ")", "*"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(keep), keep)
	}
	return escaped
}
