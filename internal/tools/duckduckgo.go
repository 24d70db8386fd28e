package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const ddgEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the keyless HTML endpoint. It is the fallback provider
// when no Tavily key is configured.
type DuckDuckGo struct {
	Endpoint   string
	MaxResults int
	client     *http.Client
}

func NewDuckDuckGo(maxResults int) *DuckDuckGo {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &DuckDuckGo{Endpoint: ddgEndpoint, MaxResults: maxResults, client: &http.Client{Timeout: 15 * time.Second}}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]SearchResult, error) {
	u := d.Endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; multi-agent/1.0)")
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}
	// limit body to avoid huge transfers
	lr := io.LimitedReader{R: resp.Body, N: 2 << 20}
	root, err := html.Parse(&lr)
	if err != nil {
		return nil, err
	}
	return parseDDGResults(root, d.MaxResults), nil
}

// parseDDGResults walks result anchors (class result__a) and their snippets
// (class result__snippet).
func parseDDGResults(root *html.Node, max int) []SearchResult {
	var out []SearchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				if len(out) >= max {
					return
				}
				out = append(out, SearchResult{
					Title: strings.TrimSpace(nodeText(n)),
					URL:   resolveDDGHref(attr(n, "href")),
				})
				return
			case hasClass(n, "result__snippet"):
				if len(out) > 0 && out[len(out)-1].Content == "" {
					out[len(out)-1].Content = strings.TrimSpace(nodeText(n))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func resolveDDGHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(x *html.Node) {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	// compact whitespace
	return strings.Join(strings.Fields(b.String()), " ")
}
