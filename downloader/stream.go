package downloader

import (
	"context"
	"fmt"
	"net/http"

	"teraproxy/internal"
	"teraproxy/utils"
)

// DefaultContentType is used when upstream does not send one
const DefaultContentType = "application/octet-stream"

// OpenStream resolves a download link and opens the file body, forwarding
// rangeHeader verbatim. The caller owns Body and must close it.
func (c *Client) OpenStream(ctx context.Context, input, fsID, rangeHeader string) (*internal.StreamResult, error) {
	link, err := c.ResolveDownloadLink(ctx, input, fsID)
	if err != nil {
		return nil, err
	}
	return c.openLink(ctx, link, rangeHeader)
}

func (c *Client) openLink(ctx context.Context, link *internal.DownloadLink, rangeHeader string) (*internal.StreamResult, error) {
	resp, err := c.http.OpenStream(ctx, http.MethodGet, link.DownloadURL, c.downloadHeaders(rangeHeader), c.config.StreamTimeout)
	if err != nil {
		return nil, internal.NewNetworkError("stream open", err).WithURL(link.DownloadURL)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, internal.NewTeraboxError(resp.StatusCode, fmt.Sprintf("file host returned HTTP %d", resp.StatusCode), internal.ErrUpstream).
			WithURL(link.DownloadURL)
	}

	return &internal.StreamResult{
		Body:       resp.Body,
		StatusCode: resp.StatusCode,
		Header:     c.streamHeaders(resp.Header, link.Filename),
	}, nil
}

// streamHeaders builds the header set relayed to the downstream client
func (c *Client) streamHeaders(upstream http.Header, filename string) http.Header {
	header := make(http.Header)

	contentType := upstream.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}
	header.Set("Content-Type", contentType)

	if length := upstream.Get("Content-Length"); length != "" {
		header.Set("Content-Length", length)
	}
	header.Set("Content-Disposition", utils.ContentDisposition(filename))
	header.Set("Accept-Ranges", "bytes")
	if contentRange := upstream.Get("Content-Range"); contentRange != "" {
		header.Set("Content-Range", contentRange)
	}
	header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", c.config.CacheMaxAge))

	return header
}
