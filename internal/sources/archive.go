package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"freewatch-server/internal/model"
)

// Archive pulls public-domain feature films from the Internet Archive.
// Everything it returns is free by definition.
type Archive struct {
	BaseURL    string
	Collection string
	MaxRows    int
	client     *http.Client
}

const archiveServiceName = "Internet Archive"

func NewArchive(timeout time.Duration) *Archive {
	return &Archive{
		BaseURL:    "https://archive.org",
		Collection: "feature_films",
		MaxRows:    100,
		client:     newHTTPClient(timeout),
	}
}

func (a *Archive) Name() string { return "archive" }

type archiveResponse struct {
	Response struct {
		Docs []archiveDoc `json:"docs"`
	} `json:"response"`
}

type archiveDoc struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Year        string `json:"year"`
}

func (a *Archive) FetchAll(ctx context.Context) ([]model.RawRecord, error) {
	q := fmt.Sprintf("collection:%s AND mediatype:movies", a.Collection)
	return a.search(ctx, q, a.MaxRows)
}

func (a *Archive) FetchQuery(ctx context.Context, query string) ([]model.RawRecord, error) {
	q := fmt.Sprintf("collection:%s AND mediatype:movies AND title:(%s)", a.Collection, query)
	return a.search(ctx, q, 20)
}

func (a *Archive) search(ctx context.Context, query string, rows int) ([]model.RawRecord, error) {
	v := url.Values{}
	v.Set("q", query)
	for _, f := range []string{"identifier", "title", "description", "date", "year"} {
		v.Add("fl[]", f)
	}
	v.Set("sort[]", "downloads desc")
	v.Set("rows", strconv.Itoa(rows))
	v.Set("output", "json")

	var resp archiveResponse
	u := a.BaseURL + "/advancedsearch.php?" + v.Encode()
	if err := doJSON(ctx, a.client, http.MethodGet, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	out := make([]model.RawRecord, 0, len(resp.Response.Docs))
	for _, d := range resp.Response.Docs {
		out = append(out, a.record(d))
	}
	return out, nil
}

func (a *Archive) record(d archiveDoc) model.RawRecord {
	year := parseYear(d.Date)
	if year == 0 {
		year = parseYear(d.Year)
	}
	rec := model.RawRecord{
		Title:       d.Title,
		ExternalID:  d.Identifier,
		Year:        year,
		Synopsis:    d.Description,
		ServiceName: archiveServiceName,
		Access:      model.AccessFree,
	}
	if d.Identifier != "" {
		rec.URL = a.BaseURL + "/details/" + d.Identifier
		rec.PosterURL = a.BaseURL + "/services/img/" + d.Identifier
	}
	return rec
}

// parseYear takes the leading 4 digits of a date-ish string.
func parseYear(s string) int {
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y < 1880 || y > 2100 {
		return 0
	}
	return y
}
