package downloader

import (
	"context"
	"net/http"

	"teraproxy/internal"
)

// ResolveDirectLink resolves a download link and follows its redirects to the
// final file host URL. If the HEAD request fails the download URL is returned as is.
func (c *Client) ResolveDirectLink(ctx context.Context, input, fsID string) (*internal.DirectLink, error) {
	link, err := c.ResolveDownloadLink(ctx, input, fsID)
	if err != nil {
		return nil, err
	}
	return c.followDirect(ctx, link), nil
}

func (c *Client) followDirect(ctx context.Context, link *internal.DownloadLink) *internal.DirectLink {
	direct := &internal.DirectLink{
		DownloadLink: *link,
		DirectURL:    link.DownloadURL,
	}

	resp, err := c.http.Inspect(ctx, http.MethodHead, link.DownloadURL, c.downloadHeaders("bytes=0-1"))
	if err != nil {
		internal.LogDebug("Direct link HEAD request failed: %v", err)
		return direct
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		internal.LogDebug("Direct link HEAD request returned HTTP %d", resp.StatusCode)
		return direct
	}

	if resp.Request != nil && resp.Request.URL != nil {
		direct.DirectURL = resp.Request.URL.String()
	}
	direct.ContentType = resp.Header.Get("Content-Type")
	return direct
}
