package internal

import (
	"io"
	"net/http"
	"strconv"
	"strings"
)

// ShareCode is the canonical identifier of one shared resource tree
type ShareCode string

// ShareInfoSource tags where a ShareInfo was obtained
type ShareInfoSource string

const (
	// FromPage means the quadruple was scraped from the share page
	FromPage ShareInfoSource = "page"
	// FromAPI means the quadruple came from the shorturlinfo endpoint
	FromAPI ShareInfoSource = "api"
)

// SessionContext holds what the share page bootstrap harvested for one request
type SessionContext struct {
	BaseURL      string
	Surl         string
	ExtraCookies string
	JSToken      string

	// Optional, present only when the page inlines them
	ShareID   string
	UK        string
	Sign      string
	Timestamp string
}

// HasShareInfo reports whether the page already provided enough to skip the API call
func (s *SessionContext) HasShareInfo() bool {
	return s != nil && s.ShareID != "" && s.UK != "" && s.Sign != ""
}

// ShareInfo authorizes every downstream call. It is only valid for the request that produced it.
type ShareInfo struct {
	ShareID   int64           `json:"shareid"`
	UK        int64           `json:"uk"`
	Sign      string          `json:"sign"`
	Timestamp FlexString      `json:"timestamp"`
	Surl      string          `json:"surl"`
	BaseURL   string          `json:"baseUrl"`
	JSToken   string          `json:"jsToken,omitempty"`
	Source    ShareInfoSource `json:"source"`

	// Cookies accumulated during bootstrap, forwarded on follow-up calls
	Cookies string `json:"-"`
}

// FileEntry is one normalized entry of a share listing
type FileEntry struct {
	FsID          string            `json:"fs_id"`
	Filename      string            `json:"filename"`
	Path          string            `json:"path"`
	Size          int64             `json:"size"`
	SizeFormatted string            `json:"sizeFormatted"`
	IsDir         bool              `json:"isDir"`
	Category      int               `json:"category"`
	MD5           string            `json:"md5,omitempty"`
	Thumbs        map[string]any    `json:"thumbs,omitempty"`
	Dlink         string            `json:"dlink,omitempty"`
	CreatedAt     *string           `json:"createdAt"`
	ModifiedAt    *string           `json:"modifiedAt"`
}

// FileList is one page of a share listing
type FileList struct {
	Files     []FileEntry `json:"files"`
	ShareInfo *ShareInfo  `json:"shareInfo"`
	HasMore   bool        `json:"hasMore"`
	Total     int         `json:"total"`
}

// DownloadLink is a short-lived upstream download URL for one file
type DownloadLink struct {
	DownloadURL   string `json:"downloadUrl"`
	Filename      string `json:"filename"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"sizeFormatted"`
}

// DirectLink is a DownloadLink enriched with the URL reached after redirects
type DirectLink struct {
	DownloadLink
	DirectURL   string `json:"directUrl"`
	ContentType string `json:"contentType,omitempty"`
}

// StreamResult is a live upstream body. The caller must drain or close Body exactly once.
type StreamResult struct {
	Body       io.ReadCloser
	StatusCode int
	Header     http.Header
}

// FlexString decodes from either a JSON string or a JSON number
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		*f = FlexString(unquoted)
		return nil
	}
	*f = FlexString(s)
	return nil
}

// String returns the raw value
func (f FlexString) String() string {
	return string(f)
}
