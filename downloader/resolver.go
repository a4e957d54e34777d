package downloader

import (
	"context"
	"fmt"
	"strconv"

	"teraproxy/internal"
	"teraproxy/utils"
)

// linkAttempt carries state between download link strategies of one resolution
type linkAttempt struct {
	ref  *utils.ShareRef
	info *internal.ShareInfo
	fsID string

	// set by the listing strategy
	entry    *internal.FileEntry
	notFound bool
}

// linkStrategy tries one way of obtaining a download link. A false result
// means "try the next one"; strategies never return errors.
type linkStrategy struct {
	name string
	fn   func(ctx context.Context, attempt *linkAttempt) (*internal.DownloadLink, bool)
}

// linkStrategies returns the strategies in the order they are tried
func (c *Client) linkStrategies() []linkStrategy {
	return []linkStrategy{
		{"download endpoint", c.linkFromDownloadAPI},
		{"listing re-scan", c.linkFromListing},
		{"metadata by path", c.linkFromFileMetas},
	}
}

// ResolveDownloadLink obtains a temporary download URL for one file
func (c *Client) ResolveDownloadLink(ctx context.Context, input, fsID string) (*internal.DownloadLink, error) {
	ref, err := c.parser.Parse(input)
	if err != nil {
		return nil, err
	}

	info, err := c.shareInfo(ctx, ref)
	if err != nil {
		return nil, err
	}

	return c.resolveLink(ctx, ref, info, fsID)
}

func (c *Client) resolveLink(ctx context.Context, ref *utils.ShareRef, info *internal.ShareInfo, fsID string) (*internal.DownloadLink, error) {
	attempt := &linkAttempt{ref: ref, info: info, fsID: fsID}

	for _, strategy := range c.linkStrategies() {
		link, ok := strategy.fn(ctx, attempt)
		if ok {
			internal.LogDebug("Download link for %s/%s resolved via %s", ref.Code, fsID, strategy.name)
			return link, nil
		}
		if attempt.notFound {
			break
		}
		if ctx.Err() != nil {
			return nil, internal.NewNetworkError("download link resolution", ctx.Err())
		}
		internal.LogDebug("Download link strategy %s failed for %s/%s", strategy.name, ref.Code, fsID)
	}

	reason := internal.ReasonExhausted
	if attempt.notFound {
		reason = internal.ReasonNotFound
	}
	return nil, internal.NewResolutionFailedError(reason).
		WithContext("surl", string(ref.Code)).
		WithContext("fs_id", fsID)
}

// linkFromDownloadAPI calls the dedicated download endpoint with the full quadruple
func (c *Client) linkFromDownloadAPI(ctx context.Context, attempt *linkAttempt) (*internal.DownloadLink, bool) {
	fid, err := strconv.ParseInt(attempt.fsID, 10, 64)
	if err != nil {
		return nil, false
	}

	info := attempt.info
	shareID := strconv.FormatInt(info.ShareID, 10)
	params := map[string]string{
		"shareid":   shareID,
		"uk":        strconv.FormatInt(info.UK, 10),
		"sign":      info.Sign,
		"timestamp": info.Timestamp.String(),
		"fid_list":  fmt.Sprintf("[%d]", fid),
		"primaryid": shareID,
		"product":   "share",
		"nozip":     "0",
	}
	if info.JSToken != "" {
		params["jsToken"] = info.JSToken
	}

	var resp shareDownloadResponse
	if err := c.getJSON(ctx, attempt.ref, info.Cookies, shareDownloadPath, params, &resp); err != nil {
		internal.LogDebug("Download endpoint: %v", err)
		return nil, false
	}
	if resp.Dlink == "" {
		return nil, false
	}

	filename := resp.Filename
	if filename == "" {
		filename = "download"
	}
	return &internal.DownloadLink{
		DownloadURL:   resp.Dlink,
		Filename:      filename,
		Size:          int64(resp.Size),
		SizeFormatted: utils.FormatSize(int64(resp.Size)),
	}, true
}

// linkFromListing looks the file up in the root listing and uses its inline link
func (c *Client) linkFromListing(ctx context.Context, attempt *linkAttempt) (*internal.DownloadLink, bool) {
	list, err := c.listWithInfo(ctx, attempt.ref, attempt.info, internal.ListOptions{})
	if err != nil {
		internal.LogDebug("Listing re-scan: %v", err)
		return nil, false
	}

	for i := range list.Files {
		if list.Files[i].FsID == attempt.fsID {
			attempt.entry = &list.Files[i]
			break
		}
	}
	if attempt.entry == nil {
		attempt.notFound = true
		return nil, false
	}

	if attempt.entry.Dlink == "" {
		return nil, false
	}
	return linkFromEntry(attempt.entry, attempt.entry.Dlink), true
}

// linkFromFileMetas asks the metadata endpoint for a link by the entry's path
func (c *Client) linkFromFileMetas(ctx context.Context, attempt *linkAttempt) (*internal.DownloadLink, bool) {
	if attempt.entry == nil {
		return nil, false
	}

	target, err := encodeJSONString(attempt.entry.Path)
	if err != nil {
		return nil, false
	}

	info := attempt.info
	var resp fileMetasResponse
	err = c.getJSON(ctx, attempt.ref, info.Cookies, fileMetasPath, map[string]string{
		"dlink":    "1",
		"target":   "[" + target + "]",
		"shorturl": attempt.ref.ShortURL(),
		"shareid":  strconv.FormatInt(info.ShareID, 10),
		"uk":       strconv.FormatInt(info.UK, 10),
	}, &resp)
	if err != nil {
		internal.LogDebug("Metadata by path: %v", err)
		return nil, false
	}
	if len(resp.Info) == 0 || resp.Info[0].Dlink == "" {
		return nil, false
	}

	return linkFromEntry(attempt.entry, resp.Info[0].Dlink), true
}

func linkFromEntry(entry *internal.FileEntry, dlink string) *internal.DownloadLink {
	return &internal.DownloadLink{
		DownloadURL:   dlink,
		Filename:      entry.Filename,
		Size:          entry.Size,
		SizeFormatted: entry.SizeFormatted,
	}
}
