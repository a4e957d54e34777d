package internal

import "context"

// ShareResolver is the resolution and streaming core consumed by the HTTP facade and the CLI
type ShareResolver interface {
	ResolveShareCode(input string) (ShareCode, error)
	GetShareInfo(ctx context.Context, input string) (*ShareInfo, error)
	ListFiles(ctx context.Context, input string, opts ListOptions) (*FileList, error)
	ResolveDownloadLink(ctx context.Context, input, fsID string) (*DownloadLink, error)
	ResolveDirectLink(ctx context.Context, input, fsID string) (*DirectLink, error)
	OpenStream(ctx context.Context, input, fsID, rangeHeader string) (*StreamResult, error)
}

// ListOptions selects one page of a folder listing
type ListOptions struct {
	Path  string
	Page  int
	Limit int
}

// Defaults used when ListOptions fields are left zero
const (
	DefaultListPath  = "/"
	DefaultListPage  = 1
	DefaultListLimit = 100
)

// Normalize fills zero fields with their defaults
func (o ListOptions) Normalize() ListOptions {
	if o.Path == "" {
		o.Path = DefaultListPath
	}
	if o.Page < 1 {
		o.Page = DefaultListPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultListLimit
	}
	return o
}
