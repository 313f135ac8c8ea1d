package catalog

import (
	"sort"

	"freewatch-server/internal/model"
)

// Merge combines two canonical movies sharing a slug. Services and genres
// are unioned; scalar metadata keeps the existing value whenever it is
// populated, so descriptive fields never oscillate between sources. The
// union fields are commutative and the whole operation is idempotent.
func Merge(existing, incoming model.Movie) model.Movie {
	out := existing

	out.Services = unionServices(existing.Services, incoming.Services)
	out.Genres = unionGenres(existing.Genres, incoming.Genres)

	if out.Year == 0 {
		out.Year = incoming.Year
	}
	if out.Rating == nil {
		out.Rating = incoming.Rating
	}
	if out.RuntimeMinutes == 0 {
		out.RuntimeMinutes = incoming.RuntimeMinutes
	}
	if out.Synopsis == "" {
		out.Synopsis = incoming.Synopsis
	}
	if out.PosterURL == "" {
		out.PosterURL = incoming.PosterURL
	}

	deriveAccess(&out)
	return out
}

// FoldMovies folds canonicalized records into a deduplicated sequence keyed
// by slug. Order is the first-seen order of each slug, which keeps
// pagination stable across identical inputs.
func FoldMovies(movies []model.Movie) []model.Movie {
	return MergeInto(nil, movies)
}

// MergeInto merges incoming movies into an existing sequence. Existing
// entries keep their position (and win scalar conflicts, being the first
// writer); new slugs are appended in first-seen order.
func MergeInto(existing, incoming []model.Movie) []model.Movie {
	out := make([]model.Movie, len(existing), len(existing)+len(incoming))
	copy(out, existing)
	index := make(map[string]int, len(out))
	for i, m := range out {
		index[m.Slug] = i
	}
	for _, m := range incoming {
		if i, ok := index[m.Slug]; ok {
			out[i] = Merge(out[i], m)
			continue
		}
		index[m.Slug] = len(out)
		out = append(out, m)
	}
	return out
}

// deriveAccess recomputes IsFree and HasSubscription from the service set.
func deriveAccess(m *model.Movie) {
	free, sub := false, false
	for _, s := range m.Services {
		switch s.Access {
		case model.AccessFree:
			free = true
		case model.AccessSubscription:
			sub = true
		}
	}
	m.IsFree = free
	m.HasSubscription = sub && !free
}

// unionServices unions by (name, access); the first URL seen for a pair is
// kept. The result is sorted so merge order cannot leak into output.
func unionServices(a, b []model.Service) []model.Service {
	type key struct{ name, access string }
	seen := make(map[key]struct{}, len(a)+len(b))
	out := make([]model.Service, 0, len(a)+len(b))
	for _, list := range [][]model.Service{a, b} {
		for _, s := range list {
			k := key{s.Name, s.Access}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Access < out[j].Access
	})
	return out
}

func unionGenres(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, g := range list {
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
