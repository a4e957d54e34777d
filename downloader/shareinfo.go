package downloader

import (
	"context"
	"strconv"

	"teraproxy/internal"
	"teraproxy/utils"
)

// GetShareInfo resolves the authorization quadruple for a share.
// The result is fresh on every call and must not be reused across requests.
func (c *Client) GetShareInfo(ctx context.Context, input string) (*internal.ShareInfo, error) {
	ref, err := c.parser.Parse(input)
	if err != nil {
		return nil, err
	}
	return c.shareInfo(ctx, ref)
}

// shareInfo scrapes first and falls back to the shorturlinfo endpoint
func (c *Client) shareInfo(ctx context.Context, ref *utils.ShareRef) (*internal.ShareInfo, error) {
	session := c.bootstrap(ctx, ref)

	if info, ok := shareInfoFromPage(session); ok {
		internal.LogDebug("Share info for %s taken from page", ref.Code)
		return info, nil
	}

	return c.shareInfoFromAPI(ctx, ref, session)
}

// shareInfoFromPage builds ShareInfo from inlined page values when all are present
func shareInfoFromPage(session *internal.SessionContext) (*internal.ShareInfo, bool) {
	if !session.HasShareInfo() {
		return nil, false
	}

	shareID, err := strconv.ParseInt(session.ShareID, 10, 64)
	if err != nil {
		return nil, false
	}
	uk, err := strconv.ParseInt(session.UK, 10, 64)
	if err != nil {
		return nil, false
	}

	return &internal.ShareInfo{
		ShareID:   shareID,
		UK:        uk,
		Sign:      session.Sign,
		Timestamp: internal.FlexString(session.Timestamp),
		Surl:      session.Surl,
		BaseURL:   session.BaseURL,
		JSToken:   session.JSToken,
		Source:    internal.FromPage,
		Cookies:   session.ExtraCookies,
	}, true
}

// shareInfoFromAPI asks the authoritative endpoint, forwarding harvested cookies
func (c *Client) shareInfoFromAPI(ctx context.Context, ref *utils.ShareRef, session *internal.SessionContext) (*internal.ShareInfo, error) {
	var resp shortURLInfoResponse
	err := c.getJSON(ctx, ref, session.ExtraCookies, shortURLInfoPath, map[string]string{
		"shorturl": ref.ShortURL(),
		"root":     "1",
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &internal.ShareInfo{
		ShareID:   int64(resp.ShareID),
		UK:        int64(resp.UK),
		Sign:      resp.Sign,
		Timestamp: resp.Timestamp,
		Surl:      session.Surl,
		BaseURL:   session.BaseURL,
		JSToken:   session.JSToken,
		Source:    internal.FromAPI,
		Cookies:   session.ExtraCookies,
	}, nil
}
