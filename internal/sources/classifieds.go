package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/user/adboard/internal/db"
)

const (
	rowSelector   = "li.result-row"
	titleSelector = "a.result-title"
	dateLayout    = "2006-01-02"
)

// FetchError reports a listing page that could not be retrieved. A failed
// page is never treated as empty.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Options struct {
	HTTPClient      *http.Client
	RequestInterval time.Duration // minimum gap between page requests
	UserAgent       string
	Now             func() time.Time
	// OnPage is called after every page with its URL and row count
	OnPage func(pageURL string, rows int)
}

// ClassifiedsSource scrapes a paginated classifieds search whose result
// offset is appended directly to the base URL.
type ClassifiedsSource struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	now       func() time.Time
	onPage    func(string, int)
}

func NewClassifiedsSource(opts Options) *ClassifiedsSource {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &ClassifiedsSource{
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: opts.UserAgent,
		now:       now,
		onPage:    opts.OnPage,
	}
}

func (c *ClassifiedsSource) Name() string {
	return "classifieds"
}

// Fetch requests baseURL+offset pages until the oldest listing seen so far
// is on or before cutoff, then drops everything older than cutoff.
func (c *ClassifiedsSource) Fetch(ctx context.Context, baseURL string, cutoff time.Time) ([]db.Listing, error) {
	cutoff = dateOf(cutoff)
	earliest := dateOf(c.now())

	var all []db.Listing
	seen := make(map[string]struct{})
	offset := 0

	for earliest.After(cutoff) {
		pageURL := baseURL + strconv.Itoa(offset)
		listings, rows, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if c.onPage != nil {
			c.onPage(pageURL, rows)
		}

		if rows == 0 {
			break // no more results upstream
		}

		added := 0
		for _, l := range listings {
			if l.PostedDate.Before(earliest) {
				earliest = l.PostedDate
			}
			if _, dup := seen[l.Href]; dup {
				continue
			}
			seen[l.Href] = struct{}{}
			all = append(all, l)
			added++
		}

		// Rows on the page drive the next offset, not a fixed page size
		offset += rows

		// A page of only malformed rows still moves the offset on
		if len(listings) > 0 && added == 0 {
			break // upstream is repeating itself
		}
	}

	result := make([]db.Listing, 0, len(all))
	for _, l := range all {
		if !l.PostedDate.Before(cutoff) {
			result = append(result, l)
		}
	}
	return result, nil
}

func (c *ClassifiedsSource) fetchPage(ctx context.Context, pageURL string) ([]db.Listing, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, &FetchError{URL: pageURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, &FetchError{URL: pageURL, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, 0, &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	listings, rows, err := parsePage(resp.Body)
	if err != nil {
		return nil, 0, &FetchError{URL: pageURL, Err: err}
	}
	return listings, rows, nil
}

// parsePage extracts listings from a result page. It returns the number of
// result rows found as well, which includes rows too malformed to use.
func parsePage(r io.Reader) ([]db.Listing, int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, 0, err
	}

	rows := doc.Find(rowSelector)
	listings := make([]db.Listing, 0, rows.Length())

	rows.Each(func(i int, s *goquery.Selection) {
		raw, ok := s.Find("time").First().Attr("datetime")
		if !ok {
			return
		}
		posted, err := parsePostedDate(raw)
		if err != nil {
			return
		}

		link := s.Find(titleSelector).First()
		href, ok := link.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}

		listings = append(listings, db.Listing{
			PostedDate: posted,
			Title:      strings.TrimSpace(link.Text()),
			Href:       href,
		})
	})

	return listings, rows.Length(), nil
}

// parsePostedDate reads the calendar day from a datetime attribute such as
// "2024-01-05 12:30".
func parsePostedDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
