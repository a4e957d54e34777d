package downloader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"teraproxy/internal"
	"teraproxy/utils"
)

// Endpoint paths on the share service
const (
	shortURLInfoPath  = "/api/shorturlinfo"
	shareListPath     = "/share/list"
	shareDownloadPath = "/share/download"
	fileMetasPath     = "/api/filemetas"
)

// apiResponse is implemented by every endpoint response
type apiResponse interface {
	apiError() error
}

// apiEnvelope is the errno/errmsg wrapper all endpoints share
type apiEnvelope struct {
	Errno  int    `json:"errno"`
	Errmsg string `json:"errmsg"`
}

func (e *apiEnvelope) apiError() error {
	if e.Errno != 0 {
		return internal.NewUpstreamError(e.Errno, e.Errmsg)
	}
	return nil
}

// flexInt decodes integers sent either as JSON numbers or numeric strings
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

type shortURLInfoResponse struct {
	apiEnvelope
	ShareID   flexInt             `json:"shareid"`
	UK        flexInt             `json:"uk"`
	Sign      string              `json:"sign"`
	Timestamp internal.FlexString `json:"timestamp"`
}

type rawEntry struct {
	FsID           internal.FlexString `json:"fs_id"`
	ServerFilename string              `json:"server_filename"`
	Path           string              `json:"path"`
	Size           flexInt             `json:"size"`
	IsDir          flexInt             `json:"isdir"`
	Category       flexInt             `json:"category"`
	MD5            string              `json:"md5"`
	Thumbs         map[string]any      `json:"thumbs"`
	Dlink          string              `json:"dlink"`
	ServerCtime    flexInt             `json:"server_ctime"`
	ServerMtime    flexInt             `json:"server_mtime"`
}

type shareListResponse struct {
	apiEnvelope
	List  []rawEntry `json:"list"`
	Total int        `json:"total"`
}

type shareDownloadResponse struct {
	apiEnvelope
	Dlink    string  `json:"dlink"`
	Filename string  `json:"filename"`
	Size     flexInt `json:"size"`
}

type fileMetasResponse struct {
	apiEnvelope
	Info []struct {
		Dlink string `json:"dlink"`
	} `json:"info"`
}

// getJSON calls one endpoint and decodes its envelope into out
func (c *Client) getJSON(ctx context.Context, ref *utils.ShareRef, extraCookies, path string, params map[string]string, out apiResponse) error {
	endpoint := ref.Domain.BaseURL + path

	resp, err := c.api.R().
		SetContext(ctx).
		SetHeaders(c.apiHeaders(ref, extraCookies)).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return internal.NewNetworkError(path, err).WithURL(endpoint)
	}

	if resp.IsError() {
		return internal.NewTeraboxError(resp.StatusCode(), fmt.Sprintf("HTTP %d from %s", resp.StatusCode(), path), internal.ErrUpstream).
			WithURL(endpoint)
	}

	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return internal.NewTeraboxError(0, fmt.Sprintf("malformed response from %s", path), internal.ErrUpstream).
			WithURL(endpoint).
			WithCause(err)
	}

	return out.apiError()
}

// encodeJSONString quotes s as a JSON string literal
func encodeJSONString(s string) (string, error) {
	return sonic.MarshalString(s)
}
