package downloader

import (
	"context"
	"strconv"

	"teraproxy/internal"
	"teraproxy/utils"
)

// ListFiles returns one page of entries under opts.Path
func (c *Client) ListFiles(ctx context.Context, input string, opts internal.ListOptions) (*internal.FileList, error) {
	ref, err := c.parser.Parse(input)
	if err != nil {
		return nil, err
	}

	info, err := c.shareInfo(ctx, ref)
	if err != nil {
		return nil, err
	}

	return c.listWithInfo(ctx, ref, info, opts)
}

func (c *Client) listWithInfo(ctx context.Context, ref *utils.ShareRef, info *internal.ShareInfo, opts internal.ListOptions) (*internal.FileList, error) {
	opts = opts.Normalize()

	root := "0"
	if opts.Path == "/" {
		root = "1"
	}

	var resp shareListResponse
	err := c.getJSON(ctx, ref, info.Cookies, shareListPath, map[string]string{
		"shorturl": ref.ShortURL(),
		"dir":      opts.Path,
		"root":     root,
		"page":     strconv.Itoa(opts.Page),
		"num":      strconv.Itoa(opts.Limit),
		"order":    "time",
		"desc":     "1",
	}, &resp)
	if err != nil {
		return nil, err
	}

	files := make([]internal.FileEntry, 0, len(resp.List))
	for _, raw := range resp.List {
		files = append(files, normalizeEntry(raw))
	}

	total := resp.Total
	if total == 0 {
		total = len(files)
	}

	return &internal.FileList{
		Files:     files,
		ShareInfo: info,
		// upstream exposes no cursor, a full page is the only hint
		HasMore: len(files) == opts.Limit,
		Total:   total,
	}, nil
}

func normalizeEntry(raw rawEntry) internal.FileEntry {
	return internal.FileEntry{
		FsID:          raw.FsID.String(),
		Filename:      raw.ServerFilename,
		Path:          raw.Path,
		Size:          int64(raw.Size),
		SizeFormatted: utils.FormatSize(int64(raw.Size)),
		IsDir:         raw.IsDir == 1,
		Category:      int(raw.Category),
		MD5:           raw.MD5,
		Thumbs:        raw.Thumbs,
		Dlink:         raw.Dlink,
		CreatedAt:     utils.FormatUnixTime(int64(raw.ServerCtime)),
		ModifiedAt:    utils.FormatUnixTime(int64(raw.ServerMtime)),
	}
}
