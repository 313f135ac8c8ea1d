package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"

	"freewatch-server/internal/model"
)

// ErrMalformedRecord marks a raw record that cannot be identified. Such
// records are dropped per record, never fatal to a batch.
var ErrMalformedRecord = errors.New("malformed record")

// Canonicalize maps one raw source record to a single-service canonical
// Movie. The display title is preserved verbatim; normalization is applied
// only when deriving the slug. source is the adapter name, used as the
// service name when the record does not carry one.
func Canonicalize(rec model.RawRecord, source string) (model.Movie, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" && rec.ExternalID == "" {
		return model.Movie{}, fmt.Errorf("%w: no title or external id (source %s)", ErrMalformedRecord, source)
	}
	if title == "" {
		title = rec.ExternalID
	}

	svcName := rec.ServiceName
	if svcName == "" {
		svcName = source
	}
	access := rec.Access
	if access != model.AccessSubscription {
		access = model.AccessFree
	}

	m := model.Movie{
		Slug:           Slug(title, rec.Year),
		Title:          title,
		Year:           rec.Year,
		Genres:         normalizeGenres(rec.Genres),
		Rating:         rec.Rating,
		RuntimeMinutes: rec.RuntimeMinutes,
		Synopsis:       strings.TrimSpace(rec.Synopsis),
		PosterURL:      rec.PosterURL,
		Services:       []model.Service{{Name: svcName, Access: access, URL: rec.URL}},
	}
	deriveAccess(&m)
	return m, nil
}

// Slug derives the stable dedup identifier from a title and optional year,
// e.g. ("The Dark Knight", 2008) -> "the-dark-knight-2008". It is a pure
// function of its inputs: equal normalized titles and years always collide.
func Slug(title string, year int) string {
	base := normalizeTitle(title)
	base = strings.ReplaceAll(base, " ", "-")
	if base == "" {
		base = "untitled"
	}
	if year > 0 {
		return base + "-" + strconv.Itoa(year)
	}
	return base
}

// normalizeTitle case-folds, romanizes and strips punctuation for matching.
func normalizeTitle(s string) string {
	s = unidecode.Unidecode(s)
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func normalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil
	}
	// sorted so a movie's genre order does not depend on which source
	// reported it first
	sort.Strings(out)
	return out
}
