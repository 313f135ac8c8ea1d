// Package recommend ranks unwatched catalog movies against a caller-held
// preference state. It is a pure function of its inputs, touches no shared
// state and is deterministic, so identical inputs always produce identical
// output.
package recommend

import (
	"errors"
	"sort"

	"freewatch-server/internal/model"
	"freewatch-server/internal/prefs"
)

var (
	ErrUnknownMood       = errors.New("unknown mood")
	ErrUnknownTimeBucket = errors.New("unknown time bucket")
)

// Moods maps a mood tag to the genre set it selects.
var Moods = map[string][]string{
	"intense":   {"Thriller", "Action", "Crime", "Horror"},
	"light":     {"Comedy", "Family", "Animation"},
	"heartfelt": {"Romance", "Drama", "Music"},
	"curious":   {"Documentary", "History", "Mystery", "Science Fiction"},
	"epic":      {"Adventure", "Fantasy", "War", "Western"},
}

// Time buckets by runtime, minutes. Closed-open per the upper bound of the
// previous bucket: quick <=90, standard (90,120], marathon >120. A movie
// with unknown runtime fits no specific bucket.
const (
	BucketQuick    = "quick"
	BucketStandard = "standard"
	BucketMarathon = "marathon"
)

func inBucket(runtime int, bucket string) bool {
	if runtime <= 0 {
		return false
	}
	switch bucket {
	case BucketQuick:
		return runtime <= 90
	case BucketStandard:
		return runtime > 90 && runtime <= 120
	case BucketMarathon:
		return runtime > 120
	}
	return false
}

// Ranked is one scored entry in the result.
type Ranked struct {
	Movie         model.Movie `json:"movie"`
	Score         float64     `json:"score"`
	MatchedGenres []string    `json:"matched_genres,omitempty"`
}

// Explanation is the "because you liked X" block. It duplicates entries
// from the ranked list; it is additive, not exclusive.
type Explanation struct {
	Slug   string        `json:"slug"`
	Title  string        `json:"title"`
	Movies []model.Movie `json:"movies"`
}

// Result distinguishes "no preferences yet" (NoSignal) from a preference
// state that simply matched nothing (empty Ranked).
type Result struct {
	NoSignal        bool         `json:"no_signal"`
	Ranked          []Ranked     `json:"ranked"`
	BecauseYouLiked *Explanation `json:"because_you_liked,omitempty"`
}

// Recommend scores every unwatched catalog movie for the given preference
// state, optionally narrowed by mood and time bucket.
func Recommend(snap model.CacheSnapshot, state prefs.State, mood, timeBucket string) (Result, error) {
	if mood != "" {
		if _, ok := Moods[mood]; !ok {
			return Result{}, ErrUnknownMood
		}
	}
	switch timeBucket {
	case "", BucketQuick, BucketStandard, BucketMarathon:
	default:
		return Result{}, ErrUnknownTimeBucket
	}

	if state.Empty() {
		return Result{NoSignal: true}, nil
	}

	pool := filterPool(snap.Movies, state, mood, timeBucket)
	affinity := genreAffinity(state)

	ranked := make([]Ranked, 0, len(pool))
	for _, m := range pool {
		score, matched := movieScore(m, affinity)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, Ranked{Movie: m, Score: score, MatchedGenres: matched})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		ri, rj := ratingOrZero(ranked[i].Movie), ratingOrZero(ranked[j].Movie)
		if ri != rj {
			return ri > rj
		}
		if ranked[i].Movie.Title != ranked[j].Movie.Title {
			return ranked[i].Movie.Title < ranked[j].Movie.Title
		}
		return ranked[i].Movie.Slug < ranked[j].Movie.Slug
	})

	return Result{
		Ranked:          ranked,
		BecauseYouLiked: explanation(snap, state, pool),
	}, nil
}

// filterPool drops watched titles and applies the mood and time filters.
func filterPool(movies []model.Movie, state prefs.State, mood, timeBucket string) []model.Movie {
	var moodGenres []string
	if mood != "" {
		moodGenres = Moods[mood]
	}
	out := make([]model.Movie, 0, len(movies))
	for _, m := range movies {
		if _, watched := state.Watched[m.Slug]; watched {
			continue
		}
		if moodGenres != nil && !intersects(m.Genres, moodGenres) {
			continue
		}
		if timeBucket != "" && !inBucket(m.RuntimeMinutes, timeBucket) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// genreAffinity derives the per-genre weight from ratings and watch
// history. Only the genres recorded at action time count.
func genreAffinity(state prefs.State) map[string]int {
	aff := make(map[string]int)
	for _, r := range state.Ratings {
		w := starWeight(r.Stars)
		for _, g := range r.Genres {
			aff[g] += w
		}
	}
	for _, w := range state.Watched {
		for _, g := range w.Genres {
			aff[g]++
		}
	}
	return aff
}

func starWeight(stars int) int {
	switch {
	case stars >= 5:
		return 3
	case stars == 4:
		return 2
	case stars == 3:
		return 1
	default:
		return -1
	}
}

// movieScore sums the positive genre affinities times 10 plus twice the
// external rating. Negative affinities do not drag a movie down; they just
// contribute nothing.
func movieScore(m model.Movie, affinity map[string]int) (float64, []string) {
	var score float64
	var matched []string
	for _, g := range m.Genres {
		if a := affinity[g]; a > 0 {
			score += float64(a) * 10
			matched = append(matched, g)
		}
	}
	if m.Rating != nil {
		score += *m.Rating * 2
	}
	return score, matched
}

// explanation builds the "because you liked X" block from the most recent
// 4- or 5-star rating: pool movies sharing a genre with that rating's
// snapshot genres, by overlap then rating then title, capped at 6.
func explanation(snap model.CacheSnapshot, state prefs.State, pool []model.Movie) *Explanation {
	likedSlug := ""
	var liked prefs.Rating
	for slug, r := range state.Ratings {
		if r.Stars < 4 {
			continue
		}
		if likedSlug == "" || r.At.After(liked.At) || (r.At.Equal(liked.At) && slug < likedSlug) {
			likedSlug, liked = slug, r
		}
	}
	if likedSlug == "" {
		return nil
	}

	type cand struct {
		movie   model.Movie
		overlap int
	}
	var cands []cand
	for _, m := range pool {
		if m.Slug == likedSlug {
			continue
		}
		n := overlapCount(m.Genres, liked.Genres)
		if n > 0 {
			cands = append(cands, cand{movie: m, overlap: n})
		}
	}
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].overlap != cands[j].overlap {
			return cands[i].overlap > cands[j].overlap
		}
		ri, rj := ratingOrZero(cands[i].movie), ratingOrZero(cands[j].movie)
		if ri != rj {
			return ri > rj
		}
		return cands[i].movie.Title < cands[j].movie.Title
	})
	if len(cands) > 6 {
		cands = cands[:6]
	}

	title := likedSlug
	if m, ok := snap.FindBySlug(likedSlug); ok {
		title = m.Title
	}
	out := &Explanation{Slug: likedSlug, Title: title}
	for _, c := range cands {
		out.Movies = append(out.Movies, c.movie)
	}
	return out
}

func ratingOrZero(m model.Movie) float64 {
	if m.Rating == nil {
		return 0
	}
	return *m.Rating
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func overlapCount(a, b []string) int {
	n := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				n++
				break
			}
		}
	}
	return n
}
