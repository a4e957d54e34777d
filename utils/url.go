package utils

import (
	"fmt"
	"regexp"
	"strings"

	"teraproxy/internal"
)

// ShareRef is a parsed share reference together with the domain variant it belongs to
type ShareRef struct {
	Input  string
	Code   internal.ShareCode
	Domain internal.DomainConfig
}

// ShortURL returns the code as the shorturl API parameter for this domain
func (r *ShareRef) ShortURL() string {
	return r.Domain.ShortURL(string(r.Code))
}

// PageURL returns the human-facing share page
func (r *ShareRef) PageURL() string {
	return r.Domain.BaseURL + "/s/" + string(r.Code)
}

// String returns a string representation of the ShareRef
func (r *ShareRef) String() string {
	return fmt.Sprintf("ShareRef{Code: %s, BaseURL: %s}", r.Code, r.Domain.BaseURL)
}

// ShareCodeExtractor parses share links and bare codes into canonical share codes
type ShareCodeExtractor struct {
	patterns []*regexp.Regexp
	bare     *regexp.Regexp
}

// NewShareCodeExtractor creates an extractor with the known link shapes
func NewShareCodeExtractor() *ShareCodeExtractor {
	// Most specific first. The leading "1" variants win so a code that
	// starts with that digit is never truncated.
	patterns := []*regexp.Regexp{
		// https://www.terabox.com/s/1AbC123
		regexp.MustCompile(`(?i)/s/(1[a-zA-Z0-9_-]+)`),
		// https://www.terabox.com/sharing/link?surl=1AbC123
		regexp.MustCompile(`(?i)surl=(1[a-zA-Z0-9_-]+)`),
		regexp.MustCompile(`(?i)/s/([a-zA-Z0-9_-]+)`),
		regexp.MustCompile(`(?i)surl=([a-zA-Z0-9_-]+)`),
	}

	return &ShareCodeExtractor{
		patterns: patterns,
		bare:     regexp.MustCompile(`^1?[a-zA-Z0-9_-]+$`),
	}
}

// Extract returns the canonical share code of a link or bare code
func (e *ShareCodeExtractor) Extract(input string) (internal.ShareCode, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", internal.NewInvalidFormatError(input)
	}

	for _, pattern := range e.patterns {
		if matches := pattern.FindStringSubmatch(input); len(matches) > 1 {
			return internal.ShareCode(matches[1]), nil
		}
	}

	if e.bare.MatchString(input) {
		return internal.ShareCode(input), nil
	}

	return "", internal.NewInvalidFormatError(input)
}

// DomainTable picks the domain variant a share link belongs to
type DomainTable struct {
	domains  []internal.DomainConfig
	fallback internal.DomainConfig
}

// NewDomainTable creates a table. Inputs matching no entry use defaultBaseURL.
func NewDomainTable(domains []internal.DomainConfig, defaultBaseURL string) *DomainTable {
	fallback := internal.DomainConfig{BaseURL: strings.TrimRight(defaultBaseURL, "/")}
	for _, d := range domains {
		if strings.TrimRight(d.BaseURL, "/") == fallback.BaseURL {
			fallback = d
			break
		}
	}

	table := &DomainTable{
		domains:  make([]internal.DomainConfig, len(domains)),
		fallback: fallback,
	}
	copy(table.domains, domains)
	for i := range table.domains {
		table.domains[i].BaseURL = strings.TrimRight(table.domains[i].BaseURL, "/")
	}
	table.fallback.BaseURL = strings.TrimRight(table.fallback.BaseURL, "/")
	return table
}

// Lookup returns the first entry whose match string appears in input
func (t *DomainTable) Lookup(input string) internal.DomainConfig {
	lower := strings.ToLower(input)
	for _, d := range t.domains {
		if d.Match != "" && strings.Contains(lower, strings.ToLower(d.Match)) {
			return d
		}
	}
	return t.fallback
}

// ShareParser combines code extraction and domain lookup
type ShareParser struct {
	extractor *ShareCodeExtractor
	domains   *DomainTable
}

// NewShareParser creates a parser over the given domain table
func NewShareParser(domains *DomainTable) *ShareParser {
	return &ShareParser{
		extractor: NewShareCodeExtractor(),
		domains:   domains,
	}
}

// Parse resolves input into a ShareRef
func (p *ShareParser) Parse(input string) (*ShareRef, error) {
	code, err := p.extractor.Extract(input)
	if err != nil {
		return nil, err
	}
	return &ShareRef{
		Input:  input,
		Code:   code,
		Domain: p.domains.Lookup(input),
	}, nil
}
