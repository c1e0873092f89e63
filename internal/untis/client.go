package untis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"untiscal/internal/config"
	appLog "untiscal/internal/log"
)

// Client fetches raw timetable data from the provider, one request per
// requested window. Transient failures are reported per window; they
// are never retried here.
type Client struct {
	client  *http.Client
	baseURL string
	school  string
	user    string
	pass    string
}

// NewClient creates a provider client from the source configuration.
func NewClient(src config.SourceConfig) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: src.BaseURL,
		school:  src.School,
		user:    src.Username,
		pass:    src.Password,
	}
}

// FetchResult is one window's outcome.
type FetchResult struct {
	Window  Window
	Payload Payload
}

// FetchAll fetches every window sequentially. Failed windows are logged
// and skipped; results only contain windows that produced a payload.
func (c *Client) FetchAll(ctx context.Context, windows []Window) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(windows))
	errs := make([]error, 0)

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := c.FetchWindow(ctx, w)
		if err != nil {
			errs = append(errs, err)
			appLog.Warn("timetable window skipped",
				"start", w.Start.Format("20060102"),
				"end", w.End.Format("20060102"),
				"err", err,
			)
			continue
		}
		results = append(results, res)
	}

	return results, errs
}

// FetchWindow retrieves one window of raw periods plus the legend.
func (c *Client) FetchWindow(ctx context.Context, w Window) (FetchResult, error) {
	if c.baseURL == "" {
		return FetchResult{}, errors.New("source base URL is empty")
	}

	q := url.Values{}
	q.Set("school", c.school)
	q.Set("start", w.Start.Format("20060102"))
	q.Set("end", w.End.Format("20060102"))

	reqURL := c.baseURL + "/api/timetable?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	appLog.Info("timetable fetch start",
		"url", redactURL(reqURL),
		"start", w.Start.Format("20060102"),
		"end", w.End.Format("20060102"),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, fmt.Errorf("timetable fetch: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, err
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return FetchResult{}, fmt.Errorf("timetable decode: %w", err)
	}

	appLog.Info("timetable fetch success",
		"url", redactURL(reqURL),
		"period_count", len(payload.Periods),
		"legend_count", len(payload.Legend),
	)

	return FetchResult{Window: w, Payload: payload}, nil
}

// Windows splits [from, to] into consecutive spans of days length.
func Windows(from, to time.Time, days int) []Window {
	if days <= 0 {
		days = 7
	}
	var out []Window
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, days) {
		end := cur.AddDate(0, 0, days-1)
		if end.After(to) {
			end = to
		}
		out = append(out, Window{Start: cur, End: end})
	}
	return out
}

// redactURL hides credentials and query strings when logging endpoints.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "timetable://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}

	return u[:j] + redactedSuffix
}
