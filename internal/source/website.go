package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/tokenlens/tokenlens/internal/model"
)

// WebsiteCollector is the one collector the core ships with: it fetches the
// project's own site and extracts basic presence signals. Everything else
// (explorers, social APIs, store APIs) is injected through the registry.
type WebsiteCollector struct {
	httpClient *http.Client
	robots     *RobotsChecker
	userAgent  string
	maxBytes   int64
}

// NewWebsiteCollector creates the built-in website collector
func NewWebsiteCollector(cfg model.HTTPConfig) *WebsiteCollector {
	return &WebsiteCollector{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:    NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
	}
}

// ID returns the canonical source id
func (c *WebsiteCollector) ID() string { return OfficialWebsite }

// Collect fetches the entity's site and extracts title, description, and
// link structure. A request without a known site URL is "not found".
func (c *WebsiteCollector) Collect(ctx context.Context, req Request) (*Result, error) {
	if req.SiteURL == "" {
		return nil, nil
	}

	if allowed, crawlDelay, _ := c.robots.CanFetch(ctx, req.SiteURL); !allowed {
		return nil, nil
	} else if crawlDelay > 0 {
		select {
		case <-time.After(crawlDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.SiteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch site: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := parsePage(string(body))
	data := map[string]any{
		"url":           resp.Request.URL.String(),
		"live_product":  true,
		"title":         page.title,
		"description":   page.description,
		"link_count":    page.links,
		"heading_count": page.headings,
		"last_modified": resp.Header.Get("Last-Modified"),
	}

	points := 2 // reachable site + title
	if page.description != "" {
		points++
	}
	if page.links > 10 {
		points++
	}
	if page.headings > 3 {
		points++
	}

	quality := model.QualityMedium
	if page.title != "" && page.description != "" {
		quality = model.QualityHigh
	}

	return &Result{Data: data, DataPoints: points, Quality: quality}, nil
}

type pageSummary struct {
	title       string
	description string
	links       int
	headings    int
}

// parsePage walks the HTML tree once and pulls out coarse structure
func parsePage(body string) pageSummary {
	var page pageSummary

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return page
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.title == "" && n.FirstChild != nil {
					page.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var name, content string
				for _, a := range n.Attr {
					switch a.Key {
					case "name", "property":
						name = strings.ToLower(a.Val)
					case "content":
						content = a.Val
					}
				}
				if (name == "description" || name == "og:description") && page.description == "" {
					page.description = strings.TrimSpace(content)
				}
			case "a":
				page.links++
			case "h1", "h2", "h3":
				page.headings++
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return page
}
