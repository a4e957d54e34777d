package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"teraproxy/internal"
	"teraproxy/utils"
)

// FetchOptions controls saving a shared file to disk
type FetchOptions struct {
	// OutputPath is a file path or an existing directory. Empty means the
	// current directory with the upstream filename.
	OutputPath string
	// RateLimit in bytes per second, zero for unlimited
	RateLimit int64
	Quiet     bool
	// Resume continues an existing .part file with a Range request
	Resume bool
}

// FetchResult describes a completed save
type FetchResult struct {
	Path    string                 `json:"path"`
	Size    int64                  `json:"size"`
	Resumed bool                   `json:"resumed"`
	Summary *utils.TransferSummary `json:"-"`
}

// Fetch streams one file of a share into a local file
func (c *Client) Fetch(ctx context.Context, input, fsID string, opts FetchOptions) (*FetchResult, error) {
	link, err := c.ResolveDownloadLink(ctx, input, fsID)
	if err != nil {
		return nil, err
	}

	outputPath := resolveOutputPath(opts.OutputPath, link.Filename)
	files := utils.NewFileOperations()
	if files.FileExists(outputPath) {
		internal.LogWarn("Overwriting existing file %s", outputPath)
	}

	var offset int64
	if opts.Resume {
		exists, size, err := files.DetectPartialDownload(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect partial download: %w", err)
		}
		if exists {
			offset = size
		}
	}

	if offset > 0 && link.Size > 0 && offset >= link.Size {
		if err := files.CompletePartialFile(outputPath); err != nil {
			return nil, fmt.Errorf("failed to finalize download: %w", err)
		}
		return &FetchResult{Path: outputPath, Size: offset, Resumed: true}, nil
	}

	rangeHeader := ""
	if offset > 0 {
		rangeHeader = fmt.Sprintf("bytes=%d-", offset)
	}

	stream, err := c.openLink(ctx, link, rangeHeader)
	if err != nil {
		return nil, err
	}
	defer stream.Body.Close()

	// the file host may ignore Range and send the whole body
	if offset > 0 && stream.StatusCode != http.StatusPartialContent {
		internal.LogWarn("File host ignored the range request, restarting %s from the beginning", filepath.Base(outputPath))
		offset = 0
	}

	file, err := files.OpenPartialFile(outputPath, offset > 0)
	if err != nil {
		return nil, err
	}

	tracker := utils.NewProgressTracker(link.Size, offset, opts.Quiet)
	tracker.SetFilename(outputPath)

	reader := tracker.Wrap(utils.NewRateLimitedReader(ctx, stream.Body, opts.RateLimit))
	_, copyErr := io.Copy(file, reader)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		tracker.Abort()
	}
	if copyErr != nil {
		return nil, internal.NewNetworkError("file transfer", copyErr).
			WithSuggestion("Run the command again with --resume to continue")
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outputPath, closeErr)
	}

	if err := files.CompletePartialFile(outputPath); err != nil {
		return nil, fmt.Errorf("failed to finalize download: %w", err)
	}

	summary := tracker.Finish()
	return &FetchResult{
		Path:    outputPath,
		Size:    summary.TotalBytes,
		Resumed: offset > 0,
		Summary: summary,
	}, nil
}

func resolveOutputPath(output, filename string) string {
	name := utils.SanitizeFilename(filename)
	if output == "" {
		return name
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, name)
	}
	return output
}
