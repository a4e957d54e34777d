package downloader

import (
	"context"
	"regexp"
	"strings"

	"teraproxy/internal"
	"teraproxy/utils"
)

// Patterns for values the share page inlines in its script blocks
var (
	jsTokenPattern   = regexp.MustCompile(`window\.jsToken\s*=\s*["']([^"']+)["']`)
	signPattern      = regexp.MustCompile(`"sign":"([^"]+)"`)
	timestampPattern = regexp.MustCompile(`"timestamp":(\d+)`)
	shareIDPattern   = regexp.MustCompile(`"shareid":(\d+)`)
	ukPattern        = regexp.MustCompile(`"uk":(\d+)`)
)

// bootstrap fetches the share page once to harvest cookies and tokens.
// It never fails: on any error the returned context only carries BaseURL and Surl.
func (c *Client) bootstrap(ctx context.Context, ref *utils.ShareRef) *internal.SessionContext {
	session := &internal.SessionContext{
		BaseURL: ref.Domain.BaseURL,
		Surl:    string(ref.Code),
	}

	resp, err := c.api.R().
		SetContext(ctx).
		SetHeaders(c.pageHeaders()).
		Get(ref.PageURL())
	if err != nil {
		internal.LogDebug("Share page bootstrap failed for %s: %v", ref.Code, err)
		return session
	}
	if resp.IsError() {
		internal.LogDebug("Share page bootstrap for %s returned HTTP %d", ref.Code, resp.StatusCode())
		return session
	}

	var extra []string
	for _, cookie := range resp.Cookies() {
		if cookie.Name != "" && cookie.Value != "" {
			extra = append(extra, cookie.Name+"="+cookie.Value)
		}
	}
	session.ExtraCookies = strings.Join(extra, "; ")

	scrapePage(resp.String(), session)

	internal.LogDebug("Share page bootstrap for %s: jsToken=%t inlineShareInfo=%t cookies=%d",
		ref.Code, session.JSToken != "", session.HasShareInfo(), len(extra))
	return session
}

// scrapePage fills session fields found in the page body
func scrapePage(body string, session *internal.SessionContext) {
	session.JSToken = firstSubmatch(jsTokenPattern, body)
	session.Sign = firstSubmatch(signPattern, body)
	session.Timestamp = firstSubmatch(timestampPattern, body)
	session.ShareID = firstSubmatch(shareIDPattern, body)
	session.UK = firstSubmatch(ukPattern, body)
}

func firstSubmatch(pattern *regexp.Regexp, s string) string {
	if m := pattern.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}
