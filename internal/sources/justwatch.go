package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"freewatch-server/internal/model"
)

// JustWatch aggregates streaming offers across providers for one country.
// It is the primary catalog source and is registered first, so its metadata
// wins scalar conflicts during the merge fold.
type JustWatch struct {
	BaseURL  string
	Country  string
	Language string
	PageSize int
	MaxPages int
	client   *http.Client
}

const justWatchGraphQLURL = "https://apis.justwatch.com/graphql"

const popularTitlesQuery = `
query GetPopularTitles($country: Country!, $language: Language!, $first: Int!, $after: String, $filter: TitleFilter) {
  popularTitles(country: $country, first: $first, after: $after, filter: $filter) {
    pageInfo { endCursor hasNextPage }
    edges {
      node {
        objectId
        content(country: $country, language: $language) {
          title
          originalReleaseYear
          shortDescription
          genres { shortName }
          runtime
          posterUrl
          scoring { imdbScore }
        }
        offers(country: $country, platform: WEB) {
          monetizationType
          standardWebURL
          package { clearName }
        }
      }
    }
  }
}`

// JustWatch genre short codes to display names.
var justWatchGenres = map[string]string{
	"act": "Action",
	"adv": "Adventure",
	"ani": "Animation",
	"cmy": "Comedy",
	"crm": "Crime",
	"doc": "Documentary",
	"drm": "Drama",
	"fml": "Family",
	"fnt": "Fantasy",
	"hrr": "Horror",
	"hst": "History",
	"msc": "Music",
	"mys": "Mystery",
	"rma": "Romance",
	"scf": "Science Fiction",
	"spt": "Sport",
	"trl": "Thriller",
	"war": "War",
	"wsn": "Western",
}

func NewJustWatch(country, language string, timeout time.Duration) *JustWatch {
	if country == "" {
		country = "IN"
	}
	if language == "" {
		language = "en"
	}
	return &JustWatch{
		BaseURL:  justWatchGraphQLURL,
		Country:  country,
		Language: language,
		PageSize: 100,
		MaxPages: 5,
		client:   newHTTPClient(timeout),
	}
}

func (j *JustWatch) Name() string { return "justwatch" }

type jwResponse struct {
	Data struct {
		PopularTitles struct {
			PageInfo struct {
				EndCursor   string `json:"endCursor"`
				HasNextPage bool   `json:"hasNextPage"`
			} `json:"pageInfo"`
			Edges []struct {
				Node jwNode `json:"node"`
			} `json:"edges"`
		} `json:"popularTitles"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type jwNode struct {
	ObjectID int64 `json:"objectId"`
	Content  struct {
		Title               string `json:"title"`
		OriginalReleaseYear int    `json:"originalReleaseYear"`
		ShortDescription    string `json:"shortDescription"`
		Genres              []struct {
			ShortName string `json:"shortName"`
		} `json:"genres"`
		Runtime   int    `json:"runtime"`
		PosterURL string `json:"posterUrl"`
		Scoring   struct {
			ImdbScore *float64 `json:"imdbScore"`
		} `json:"scoring"`
	} `json:"content"`
	Offers []struct {
		MonetizationType string `json:"monetizationType"`
		StandardWebURL   string `json:"standardWebURL"`
		Package          struct {
			ClearName string `json:"clearName"`
		} `json:"package"`
	} `json:"offers"`
}

// FetchAll pages through the free-to-watch popular titles for the
// configured country.
func (j *JustWatch) FetchAll(ctx context.Context) ([]model.RawRecord, error) {
	var out []model.RawRecord
	after := ""
	for page := 0; page < j.MaxPages; page++ {
		filter := map[string]any{
			"objectTypes":       []string{"MOVIE"},
			"monetizationTypes": []string{"FREE", "ADS"},
		}
		resp, err := j.query(ctx, filter, after)
		if err != nil {
			return nil, fmt.Errorf("justwatch: %w", err)
		}
		for _, e := range resp.Data.PopularTitles.Edges {
			out = append(out, j.records(e.Node)...)
		}
		if !resp.Data.PopularTitles.PageInfo.HasNextPage {
			break
		}
		after = resp.Data.PopularTitles.PageInfo.EndCursor
	}
	return out, nil
}

// FetchQuery searches titles by name, all monetization types, and lets the
// record conversion keep only free and subscription offers.
func (j *JustWatch) FetchQuery(ctx context.Context, query string) ([]model.RawRecord, error) {
	filter := map[string]any{
		"objectTypes": []string{"MOVIE"},
		"searchQuery": query,
	}
	resp, err := j.query(ctx, filter, "")
	if err != nil {
		return nil, fmt.Errorf("justwatch search: %w", err)
	}
	var out []model.RawRecord
	for _, e := range resp.Data.PopularTitles.Edges {
		out = append(out, j.records(e.Node)...)
	}
	return out, nil
}

func (j *JustWatch) query(ctx context.Context, filter map[string]any, after string) (*jwResponse, error) {
	vars := map[string]any{
		"country":  j.Country,
		"language": j.Language,
		"first":    j.PageSize,
		"filter":   filter,
	}
	if after != "" {
		vars["after"] = after
	}
	body, err := json.Marshal(map[string]any{
		"query":     popularTitlesQuery,
		"variables": vars,
	})
	if err != nil {
		return nil, err
	}
	var resp jwResponse
	if err := doJSON(ctx, j.client, http.MethodPost, j.BaseURL, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql: %s", resp.Errors[0].Message)
	}
	return &resp, nil
}

// records flattens a title node into one raw record per qualifying offer.
// Rent and buy offers are skipped; this catalog only tracks free and
// subscription availability.
func (j *JustWatch) records(n jwNode) []model.RawRecord {
	var genres []string
	for _, g := range n.Content.Genres {
		if name, ok := justWatchGenres[g.ShortName]; ok {
			genres = append(genres, name)
		}
	}
	base := model.RawRecord{
		Title:          n.Content.Title,
		ExternalID:     fmt.Sprintf("jw-%d", n.ObjectID),
		Year:           n.Content.OriginalReleaseYear,
		Genres:         genres,
		Rating:         n.Content.Scoring.ImdbScore,
		RuntimeMinutes: n.Content.Runtime,
		Synopsis:       n.Content.ShortDescription,
		PosterURL:      n.Content.PosterURL,
	}
	var out []model.RawRecord
	for _, o := range n.Offers {
		var access string
		switch o.MonetizationType {
		case "FREE", "ADS":
			access = model.AccessFree
		case "FLATRATE", "FLATRATE_AND_ADS":
			access = model.AccessSubscription
		default:
			continue
		}
		rec := base
		rec.ServiceName = o.Package.ClearName
		rec.Access = access
		rec.URL = o.StandardWebURL
		out = append(out, rec)
	}
	return out
}
