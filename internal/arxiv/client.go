// Package arxiv provides a rate-limited client for the arxiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/paperscope/paperscope/internal/paper"
)

const (
	// BaseURL is the arxiv API query endpoint.
	BaseURL = "https://export.arxiv.org/api/query"

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 60 * time.Second

	// requestInterval follows the arxiv API terms of use: no more than
	// one request every three seconds.
	requestInterval = 3 * time.Second

	userAgent = "paperscope/1.0"
)

// Client is a rate-limited HTTP client for the arxiv API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an arxiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch queries the arxiv API and returns the parsed papers, newest
// update first. query uses arxiv search syntax, e.g.
// "cat:cs.CV OR cat:cs.AI".
func (c *Client) Fetch(ctx context.Context, query string, start, maxResults int) ([]paper.Paper, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	params := url.Values{
		"search_query": {query},
		"start":        {strconv.Itoa(start)},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"lastUpdatedDate"},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return parseFeed(body)
}

// Atom feed wire types.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Rel   string `xml:"rel,attr"`
		Title string `xml:"title,attr"`
	} `xml:"link"`
	PrimaryCategory struct {
		Term string `xml:"term,attr"`
	} `xml:"http://arxiv.org/schemas/atom primary_category"`
}

// versionSuffix matches the trailing version marker of an arxiv id URL.
var versionSuffix = regexp.MustCompile(`v(\d+)$`)

func parseFeed(data []byte) ([]paper.Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parsing atom feed: %w", err)
	}

	papers := make([]paper.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		p, err := parseEntry(e)
		if err != nil {
			return nil, fmt.Errorf("parsing entry %s: %w", e.ID, err)
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func parseEntry(e atomEntry) (paper.Paper, error) {
	arxivID, version := splitVersion(strings.TrimPrefix(lastPathSegmentAfter(e.ID, "/abs/"), "/"))

	published, err := time.Parse(time.RFC3339, e.Published)
	if err != nil {
		return paper.Paper{}, fmt.Errorf("parsing published date: %w", err)
	}
	updated, err := time.Parse(time.RFC3339, e.Updated)
	if err != nil {
		return paper.Paper{}, fmt.Errorf("parsing updated date: %w", err)
	}

	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		authors = append(authors, a.Name)
	}

	var links paper.Links
	for _, l := range e.Links {
		switch {
		case l.Rel == "alternate":
			links.Abs = l.Href
		case l.Title == "pdf":
			links.PDF = l.Href
		}
	}

	return paper.Paper{
		ArxivID:   arxivID,
		Version:   version,
		Title:     cleanText(e.Title),
		Summary:   cleanText(e.Summary),
		Authors:   authors,
		Category:  e.PrimaryCategory.Term,
		Links:     links,
		Published: published.UTC(),
		Updated:   updated.UTC(),
	}, nil
}

// lastPathSegmentAfter returns everything after the first occurrence of
// sep, or the whole string when sep is absent.
func lastPathSegmentAfter(s, sep string) string {
	if i := strings.Index(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}

// splitVersion separates "2401.00001v2" into ("2401.00001", 2).
// An id without a version suffix defaults to version 1.
func splitVersion(id string) (string, int) {
	m := versionSuffix.FindStringSubmatch(id)
	if m == nil {
		return id, 1
	}
	version, err := strconv.Atoi(m[1])
	if err != nil || version < 1 {
		return id, 1
	}
	return strings.TrimSuffix(id, m[0]), version
}

// cleanText collapses the newlines and runs of whitespace that arxiv
// embeds in titles and abstracts.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
